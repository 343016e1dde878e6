package handler

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/config"
	"github.com/recipe-box/internal/metrics"
	"github.com/recipe-box/internal/middleware"
	"github.com/recipe-box/internal/service"
	"github.com/recipe-box/pkg/response"
)

// BuildInfo is reported by the health endpoint
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// RouterConfig holds everything the HTTP routes depend on
type RouterConfig struct {
	AuthService   *service.AuthService
	RecipeService *service.RecipeService
	Session       config.SessionConfig
	Templates     *template.Template
	Build         BuildInfo
}

// NewRouter builds the gin engine with middleware and all routes registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(cfg.Templates)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.SessionMiddleware(cfg.AuthService, cfg.Session.CookieName))

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Page not found.")
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    cfg.Build.Version,
			"commit":     cfg.Build.Commit,
			"build_time": cfg.Build.BuildTime,
			"time":       time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireLogin := middleware.RequireLogin()

	NewPageHandler().RegisterRoutes(router, requireLogin)
	NewAuthHandler(cfg.AuthService, cfg.Session).RegisterRoutes(router, requireLogin)
	NewRecipeHandler(cfg.RecipeService).RegisterRoutes(router, requireLogin)

	return router
}
