package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// CartLine is one ingredient line of a recipe in a user's shopping cart.
type CartLine struct {
	IngredientID    uint   `db:"ingredient_id"`
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
	Amount          int    `db:"amount"`
}

// CartLineReader loads the raw ingredient lines behind a user's shopping cart.
type CartLineReader interface {
	CartLines(ctx context.Context, userID uuid.UUID) ([]CartLine, error)
}

const cartLinesQuery = `
SELECT i.id AS ingredient_id,
       i.name AS name,
       i.measurement_unit AS measurement_unit,
       ri.amount AS amount
FROM shopping_carts sc
JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
JOIN ingredients i ON i.id = ri.ingredient_id
WHERE sc.user_id = ?
ORDER BY sc.created_at, sc.id, ri.position`

type sqlxCartLineReader struct {
	db *sqlx.DB
}

// NewCartLineReader wraps the connection pool behind db with sqlx.
func NewCartLineReader(db *gorm.DB) (CartLineReader, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	driverName := "postgres"
	if db.Dialector.Name() == "sqlite" {
		driverName = "sqlite3"
	}
	return &sqlxCartLineReader{db: sqlx.NewDb(sqlDB, driverName)}, nil
}

func (r *sqlxCartLineReader) CartLines(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	lines := []CartLine{}
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(cartLinesQuery), userID.String()); err != nil {
		return nil, err
	}
	return lines, nil
}
