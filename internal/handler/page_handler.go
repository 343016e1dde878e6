package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/middleware"
	"github.com/recipe-box/pkg/response"
)

// PageHandler serves the landing, informational and dashboard pages
type PageHandler struct{}

// NewPageHandler creates a new PageHandler
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Home handles GET /
func (h *PageHandler) Home(c *gin.Context) {
	response.Success(c, "index.html", nil)
}

// DietsAndIntolerances handles GET /dietsandintolerances
func (h *PageHandler) DietsAndIntolerances(c *gin.Context) {
	response.Success(c, "diets_and_intolerances.html", gin.H{"Title": "Diets & Intolerances"})
}

// Dashboard handles GET /dashboard
func (h *PageHandler) Dashboard(c *gin.Context) {
	user := middleware.GetUser(c)
	response.Success(c, "dashboard.html", gin.H{
		"Title": "Dashboard",
		"Name":  user.Username,
	})
}

// RegisterRoutes registers page routes
func (h *PageHandler) RegisterRoutes(router gin.IRouter, requireLogin gin.HandlerFunc) {
	router.GET("/", h.Home)
	router.GET("/dietsandintolerances", h.DietsAndIntolerances)
	router.GET("/dashboard", requireLogin, h.Dashboard)
}
