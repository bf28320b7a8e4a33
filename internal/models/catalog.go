package models

// Ingredient is catalog reference data. There is no update path, so the
// name and unit seen by recipe lines never change under them.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:200;not null;index;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;not null" json:"name"`
	Color string `gorm:"size:7;not null;uniqueIndex" json:"color"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
}
