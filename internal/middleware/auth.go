package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/models"
	"github.com/recipe-box/internal/service"
	"github.com/recipe-box/pkg/response"
)

const (
	// ContextKeyUser is the key for the authenticated user in gin context
	ContextKeyUser = "current_user"
	// ContextKeySessionToken is the key for the raw session token in gin context
	ContextKeySessionToken = "session_token"

	// LoginPath is where unauthenticated visitors of protected pages are sent
	LoginPath = "/login"
)

// SessionMiddleware resolves the session cookie to the current user, if any.
// It never rejects a request; protected routes add RequireLogin.
func SessionMiddleware(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				LogError("session lookup failed: %v", err)
			} else {
				LogDebug("ignoring session cookie on %s: %v", c.Request.URL.Path, err)
			}
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeySessionToken, token)
		response.SetViewData(c, "CurrentUser", user)
		c.Next()
	}
}

// RequireLogin redirects anonymous visitors to the login page
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == nil {
			target := LoginPath + "?next=" + url.QueryEscape(c.Request.URL.Path)
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUser gets the authenticated user from the gin context
func GetUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// GetSessionToken gets the session token of the authenticated user from the gin context
func GetSessionToken(c *gin.Context) string {
	return c.GetString(ContextKeySessionToken)
}
