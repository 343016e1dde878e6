package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/recipe-box/internal/models"
	"github.com/recipe-box/internal/spoonacular"
)

// RecipeStore persists saved recipes
type RecipeStore interface {
	Create(recipe *models.Recipe) error
	GetByIDAndUserID(id, userID uint) (*models.Recipe, error)
	GetByUserID(userID uint) ([]models.Recipe, error)
	UpdateNote(id, userID uint, note string) error
	Delete(id, userID uint) error
}

// RecipeSource fetches recipes and trivia from the external recipe API
type RecipeSource interface {
	RandomRecipe(ctx context.Context) (*spoonacular.Recipe, error)
	RandomTrivia(ctx context.Context) (*spoonacular.Trivia, error)
}

// RecipeService combines the recipe API with the user's saved recipes.
// Every lookup is scoped to the owning user; other users' recipes are not found.
type RecipeService struct {
	recipes  RecipeStore
	source   RecipeSource
	validate *validator.Validate
}

// NewRecipeService creates a new RecipeService
func NewRecipeService(recipes RecipeStore, source RecipeSource) *RecipeService {
	return &RecipeService{
		recipes:  recipes,
		source:   source,
		validate: newValidator(),
	}
}

// NoteRequest represents the note edit form
type NoteRequest struct {
	Note string `form:"note" binding:"required,min=3,max=500"`
}

// FetchedRecipe is a random recipe together with the row it was saved as
type FetchedRecipe struct {
	Details *spoonacular.Recipe
	Saved   *models.Recipe
}

// FetchRandom fetches a random recipe and saves it for the user with the default note
func (s *RecipeService) FetchRandom(ctx context.Context, userID uint) (*FetchedRecipe, error) {
	details, err := s.source.RandomRecipe(ctx)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		UserID:     userID,
		RecipeName: details.Title,
		RecipeLink: details.SourceURL,
		RecipeNote: models.DefaultRecipeNote,
	}
	if err := s.recipes.Create(recipe); err != nil {
		return nil, fmt.Errorf("save recipe: %w", err)
	}

	return &FetchedRecipe{Details: details, Saved: recipe}, nil
}

// ListForUser returns the recipes saved by the user
func (s *RecipeService) ListForUser(userID uint) ([]models.Recipe, error) {
	return s.recipes.GetByUserID(userID)
}

// Get returns one of the user's recipes
func (s *RecipeService) Get(userID, id uint) (*models.Recipe, error) {
	return s.recipes.GetByIDAndUserID(id, userID)
}

// UpdateNote replaces the note of one of the user's recipes and returns the updated recipe.
// A blank note is stored as the default note.
func (s *RecipeService) UpdateNote(userID, id uint, note string) (*models.Recipe, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		note = models.DefaultRecipeNote
	}
	if err := s.validate.Var(note, "max=500"); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"note": "Field cannot be longer than 500 characters."}}
	}

	if err := s.recipes.UpdateNote(id, userID, note); err != nil {
		return nil, err
	}
	return s.recipes.GetByIDAndUserID(id, userID)
}

// Delete removes one of the user's recipes
func (s *RecipeService) Delete(userID, id uint) error {
	return s.recipes.Delete(id, userID)
}

// Trivia returns a random food fact
func (s *RecipeService) Trivia(ctx context.Context) (*spoonacular.Trivia, error) {
	return s.source.RandomTrivia(ctx)
}
