package repository

import (
	"errors"

	"github.com/recipe-box/internal/models"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound = errors.New("recipe not found")
)

// RecipeRepository handles saved recipe data access
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create saves a new recipe
func (r *RecipeRepository) Create(recipe *models.Recipe) error {
	return r.db.Create(recipe).Error
}

// GetByIDAndUserID retrieves a recipe by ID and owner
func (r *RecipeRepository) GetByIDAndUserID(id, userID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	result := r.db.Where("id = ? AND user_id = ?", id, userID).First(&recipe)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, result.Error
	}
	return &recipe, nil
}

// GetByUserID retrieves all recipes saved by a user
func (r *RecipeRepository) GetByUserID(userID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	result := r.db.Where("user_id = ?", userID).Order("id").Find(&recipes)
	if result.Error != nil {
		return nil, result.Error
	}
	return recipes, nil
}

// UpdateNote replaces the note of a recipe owned by userID
func (r *RecipeRepository) UpdateNote(id, userID uint, note string) error {
	result := r.db.Model(&models.Recipe{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("recipe_note", note)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// Delete soft deletes a recipe owned by userID
func (r *RecipeRepository) Delete(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Recipe{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}
