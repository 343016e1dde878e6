package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultRecipeNote is stored on every newly saved recipe and replaces blank notes.
const DefaultRecipeNote = "Write down something if you need to."

// Recipe is a recipe saved by a user together with a personal note
type Recipe struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index;not null" json:"user_id"`
	RecipeName string         `gorm:"type:text" json:"recipe_name"`
	RecipeLink string         `gorm:"type:text" json:"recipe_link"`
	RecipeNote string         `gorm:"size:500;not null;default:'Write down something if you need to.'" json:"recipe_note"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Recipe model
func (Recipe) TableName() string {
	return "recipes"
}
