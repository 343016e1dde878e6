package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/middleware"
	"github.com/recipe-box/internal/repository"
	"github.com/recipe-box/internal/service"
	"github.com/recipe-box/internal/spoonacular"
	"github.com/recipe-box/pkg/response"
)

// RecipeHandler handles random recipe, saved recipe and trivia pages
type RecipeHandler struct {
	recipeService *service.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
	}
}

// RandomRecipe fetches a random recipe and saves it for the current user
// GET /randomrecipe
func (h *RecipeHandler) RandomRecipe(c *gin.Context) {
	user := middleware.GetUser(c)

	fetched, err := h.recipeService.FetchRandom(c.Request.Context(), user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, "random_recipe.html", gin.H{
		"Title":  fetched.Details.Title,
		"Recipe": fetched.Details,
		"Saved":  fetched.Saved,
	})
}

// MyRecipes lists the current user's saved recipes
// GET /myrecipes
func (h *RecipeHandler) MyRecipes(c *gin.Context) {
	user := middleware.GetUser(c)

	recipes, err := h.recipeService.ListForUser(user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, "my_recipes.html", gin.H{
		"Title":   "My Recipes",
		"Recipes": recipes,
	})
}

// Delete removes a saved recipe
// GET|POST /delete/:id
func (h *RecipeHandler) Delete(c *gin.Context) {
	user := middleware.GetUser(c)

	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}

	if err := h.recipeService.Delete(user.ID, recipeID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Redirect(c, "/myrecipes")
}

// Update shows the note form (GET) or saves a new note (POST)
// GET|POST /update/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	user := middleware.GetUser(c)

	recipeID, ok := parseRecipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(user.ID, recipeID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	data := gin.H{
		"Title":  recipe.RecipeName,
		"Name":   recipe.RecipeName,
		"Recipe": recipe,
		"Note":   recipe.RecipeNote,
		"Saved":  false,
		"Errors": map[string]string{},
	}

	if c.Request.Method != http.MethodPost {
		response.Success(c, "my_note.html", data)
		return
	}

	var req service.NoteRequest
	if err := c.ShouldBind(&req); err != nil {
		data["Note"] = req.Note
		data["Errors"] = service.NewValidationError(err).Fields
		response.Page(c, http.StatusBadRequest, "my_note.html", data)
		return
	}

	updated, err := h.recipeService.UpdateNote(user.ID, recipeID, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			data["Note"] = req.Note
			data["Errors"] = service.NewValidationError(err).Fields
			response.Page(c, http.StatusBadRequest, "my_note.html", data)
			return
		}
		h.handleError(c, err)
		return
	}

	data["Recipe"] = updated
	data["Note"] = updated.RecipeNote
	data["Saved"] = true
	response.Success(c, "my_note.html", data)
}

// Trivia shows a random food fact
// GET /trivia
func (h *RecipeHandler) Trivia(c *gin.Context) {
	trivia, err := h.recipeService.Trivia(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, "food_trivia.html", gin.H{
		"Title":  "Food Trivia",
		"Trivia": trivia.Text,
	})
}

// RegisterRoutes registers recipe routes
func (h *RecipeHandler) RegisterRoutes(router gin.IRouter, requireLogin gin.HandlerFunc) {
	router.GET("/trivia", h.Trivia)

	recipes := router.Group("/", requireLogin)
	{
		recipes.GET("/randomrecipe", h.RandomRecipe)
		recipes.GET("/myrecipes", h.MyRecipes)
		recipes.GET("/delete/:id", h.Delete)
		recipes.POST("/delete/:id", h.Delete)
		recipes.GET("/update/:id", h.Update)
		recipes.POST("/update/:id", h.Update)
	}
}

func (h *RecipeHandler) handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, repository.ErrRecipeNotFound):
		response.NotFound(c, "That recipe does not exist.")
	case errors.Is(err, spoonacular.ErrExternalService):
		response.BadGateway(c, "The recipe service is not available right now. Please try again later.")
	default:
		response.InternalError(c, "Something went wrong. Please try again later.")
	}
}

func parseRecipeID(c *gin.Context) (uint, bool) {
	recipeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || recipeID == 0 {
		response.BadRequest(c, "Invalid recipe id.")
		return 0, false
	}
	return uint(recipeID), true
}
