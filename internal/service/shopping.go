package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
)

// ShoppingList is the rendered shopping list attachment.
type ShoppingList struct {
	Filename string
	Body     string
}

// ShoppingItem is the summed amount of one ingredient across the cart.
type ShoppingItem struct {
	IngredientID    uint
	Name            string
	MeasurementUnit string
	Amount          int
}

type ShoppingListService struct {
	users     repository.UserRepo
	relations repository.RelationRepo
	lines     repository.CartLineReader
	log       *logger.Logger
}

func NewShoppingListService(users repository.UserRepo, relations repository.RelationRepo, lines repository.CartLineReader, baseLog *logger.Logger) *ShoppingListService {
	return &ShoppingListService{
		users:     users,
		relations: relations,
		lines:     lines,
		log:       baseLog.With("service", "ShoppingListService"),
	}
}

func (s *ShoppingListService) BuildShoppingList(ctx context.Context, userID uuid.UUID) (*ShoppingList, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, translate("get user", err)
	}

	count, err := s.relations.Count(ctx, models.RelationShoppingCart, userID)
	if err != nil {
		return nil, translate("count shopping cart", err)
	}
	if count == 0 {
		return nil, ErrEmptyCart
	}

	lines, err := s.lines.CartLines(ctx, userID)
	if err != nil {
		return nil, translate("load shopping cart lines", err)
	}

	items := AggregateLines(lines)
	s.log.Debug("shopping list built", "user_id", userID, "recipes", count, "items", len(items))

	return &ShoppingList{
		Filename: user.Username + "_shopping_cart.txt",
		Body:     RenderShoppingList(user, items),
	}, nil
}

// AggregateLines groups cart lines by ingredient and sums their amounts.
// Items are ordered by name (case-insensitive), then unit, then id.
func AggregateLines(lines []repository.CartLine) []ShoppingItem {
	byID := make(map[uint]*ShoppingItem)
	for _, line := range lines {
		item, ok := byID[line.IngredientID]
		if !ok {
			item = &ShoppingItem{
				IngredientID:    line.IngredientID,
				Name:            line.Name,
				MeasurementUnit: line.MeasurementUnit,
			}
			byID[line.IngredientID] = item
		}
		item.Amount += line.Amount
	}

	items := make([]ShoppingItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
			return an < bn
		}
		if a.MeasurementUnit != b.MeasurementUnit {
			return a.MeasurementUnit < b.MeasurementUnit
		}
		return a.IngredientID < b.IngredientID
	})
	return items
}

// RenderShoppingList renders the plain-text attachment body.
func RenderShoppingList(user *models.User, items []ShoppingItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for: %s %s (%s)\n\n", user.FirstName, user.LastName, user.Username)
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s): %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	return b.String()
}
