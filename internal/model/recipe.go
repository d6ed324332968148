package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// StringList is an ordered list of strings stored as a JSON array in a text column
type StringList []string

// Value implements the driver.Valuer interface
func (a StringList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *StringList) Scan(value interface{}) error {
	if value == nil {
		*a = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(bytes) == 0 {
		*a = StringList{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// MarshalJSON keeps empty lists as [] rather than null
func (a StringList) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// Recipe is a single recipe row. Recipes are created by the loader and never
// modified through the API.
type Recipe struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"type:text" json:"name"`
	Minutes          int          `json:"minutes"`
	Description      string       `gorm:"type:text" json:"description"`
	Steps            StringList   `gorm:"type:text" json:"steps"`
	NSteps           int          `gorm:"column:n_steps" json:"n_steps"`
	NIngredients     int          `gorm:"column:n_ingredients" json:"n_ingredients"`
	Calories         float64      `gorm:"column:calories" json:"calories"`
	TotalFatPDV      float64      `gorm:"column:total_fat_pdv" json:"total_fat_pdv"`
	SugarPDV         float64      `gorm:"column:sugar_pdv" json:"sugar_pdv"`
	SodiumPDV        float64      `gorm:"column:sodium_pdv" json:"sodium_pdv"`
	ProteinPDV       float64      `gorm:"column:protein_pdv" json:"protein_pdv"`
	SaturatedFatPDV  float64      `gorm:"column:saturated_fat_pdv" json:"saturated_fat_pdv"`
	CarbohydratesPDV float64      `gorm:"column:carbohydrates_pdv" json:"carbohydrates_pdv"`
	Tags             []Tag        `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients      []Ingredient `gorm:"many2many:recipe_ingredients" json:"ingredients"`
}

// Tag is a unique recipe label such as "dessert"
type Tag struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	TagName string `gorm:"column:tag_name;type:text;uniqueIndex;not null" json:"tag_name"`
}

// Ingredient is a unique ingredient name
type Ingredient struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	IngredientName string `gorm:"column:ingredient_name;type:text;uniqueIndex;not null" json:"ingredient_name"`
}

// RecipeTag is a row of the recipe_tags association table
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey;autoIncrement:false;index:idx_recipe_tags_tag_recipe,priority:2"`
	TagID    uint `gorm:"primaryKey;autoIncrement:false;index:idx_recipe_tags_tag_recipe,priority:1"`
}

// RecipeIngredient is a row of the recipe_ingredients association table
type RecipeIngredient struct {
	RecipeID     uint `gorm:"primaryKey;autoIncrement:false;index:idx_recipe_ingredients_ingredient_recipe,priority:2"`
	IngredientID uint `gorm:"primaryKey;autoIncrement:false;index:idx_recipe_ingredients_ingredient_recipe,priority:1"`
}

// TableName overrides the table name used by gorm
func (RecipeTag) TableName() string { return "recipe_tags" }

// TableName overrides the table name used by gorm
func (RecipeIngredient) TableName() string { return "recipe_ingredients" }
