package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/config"
	"github.com/recipe-box/internal/middleware"
	"github.com/recipe-box/internal/service"
	"github.com/recipe-box/pkg/response"
)

const defaultLoginTarget = "/dashboard"

// AuthHandler handles signup, login and logout pages
type AuthHandler struct {
	authService   *service.AuthService
	sessionConfig config.SessionConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, sessionConfig config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessionConfig: sessionConfig,
	}
}

// SignUpForm renders the signup form
// GET /signup
func (h *AuthHandler) SignUpForm(c *gin.Context) {
	renderSignUpForm(c, http.StatusOK, &service.SignUpRequest{}, nil)
}

// SignUp handles user registration
// POST /signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req service.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		renderSignUpForm(c, http.StatusBadRequest, &req, service.NewValidationError(err))
		return
	}

	_, err := h.authService.SignUp(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			renderSignUpForm(c, http.StatusBadRequest, &req, service.NewValidationError(err))
		case errors.Is(err, service.ErrEmailTaken):
			response.Page(c, http.StatusConflict, "email_taken.html", nil)
		case errors.Is(err, service.ErrUsernameTaken):
			response.Page(c, http.StatusConflict, "username_taken.html", nil)
		default:
			_ = c.Error(err)
			response.InternalError(c, "We could not create your account. Please try again later.")
		}
		return
	}

	response.Success(c, "successful_new_user.html", gin.H{"Title": "Welcome"})
}

// LoginForm renders the login form
// GET /login
func (h *AuthHandler) LoginForm(c *gin.Context) {
	next := loginTarget(c)
	if middleware.GetUser(c) != nil {
		response.Redirect(c, next)
		return
	}
	renderLoginForm(c, http.StatusOK, &service.LoginRequest{}, next, nil)
}

// Login handles user login
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	next := loginTarget(c)

	var req service.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		renderLoginForm(c, http.StatusBadRequest, &req, next, service.NewValidationError(err))
		return
	}

	session, err := h.authService.LogIn(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			renderLoginForm(c, http.StatusBadRequest, &req, next, service.NewValidationError(err))
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Page(c, http.StatusUnauthorized, "invalid_warning.html", gin.H{"Title": "Log In"})
		default:
			_ = c.Error(err)
			response.InternalError(c, "We could not log you in. Please try again later.")
		}
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessionConfig.CookieName, session.Token, int(time.Until(session.ExpiresAt).Seconds()), "/", "", h.sessionConfig.Secure, true)
	response.Redirect(c, next)
}

// Logout ends the current session
// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.LogOut(c.Request.Context(), middleware.GetSessionToken(c)); err != nil {
		_ = c.Error(err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessionConfig.CookieName, "", -1, "/", "", h.sessionConfig.Secure, true)
	response.Redirect(c, "/")
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(router gin.IRouter, requireLogin gin.HandlerFunc) {
	router.GET("/signup", h.SignUpForm)
	router.POST("/signup", h.SignUp)
	router.GET("/login", h.LoginForm)
	router.POST("/login", h.Login)
	router.GET("/logout", requireLogin, h.Logout)
}

func renderSignUpForm(c *gin.Context, status int, req *service.SignUpRequest, verr *service.ValidationError) {
	response.Page(c, status, "sign_up.html", gin.H{
		"Title":  "Sign Up",
		"Form":   req,
		"Errors": fieldErrors(verr),
	})
}

func renderLoginForm(c *gin.Context, status int, req *service.LoginRequest, next string, verr *service.ValidationError) {
	response.Page(c, status, "log_in.html", gin.H{
		"Title":  "Log In",
		"Form":   req,
		"Next":   next,
		"Errors": fieldErrors(verr),
	})
}

// loginTarget returns where to go after logging in. Only local paths are
// accepted; anything else falls back to the dashboard.
func loginTarget(c *gin.Context) string {
	next := c.PostForm("next")
	if next == "" {
		next = c.Query("next")
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return defaultLoginTarget
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return defaultLoginTarget
	}
	return next
}

func fieldErrors(verr *service.ValidationError) map[string]string {
	if verr == nil {
		return map[string]string{}
	}
	return verr.Fields
}
