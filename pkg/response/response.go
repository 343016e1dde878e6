package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ErrorTemplate renders every generic failure page
	ErrorTemplate = "error.html"

	viewDataKey = "view_data"
)

// SetViewData stores a value that every page rendered for this request receives,
// such as the logged-in user for the navigation bar
func SetViewData(c *gin.Context, key string, value interface{}) {
	data := viewData(c)
	data[key] = value
	c.Set(viewDataKey, data)
}

func viewData(c *gin.Context) gin.H {
	if value, ok := c.Get(viewDataKey); ok {
		if data, ok := value.(gin.H); ok {
			return data
		}
	}
	return gin.H{}
}

// Page renders an HTML template merged with the request's view data
func Page(c *gin.Context, statusCode int, name string, data gin.H) {
	merged := gin.H{}
	for k, v := range viewData(c) {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	c.HTML(statusCode, name, merged)
}

// Success renders a page with 200 OK
func Success(c *gin.Context, name string, data gin.H) {
	Page(c, http.StatusOK, name, data)
}

// Error renders the generic error page
func Error(c *gin.Context, statusCode int, message string) {
	Page(c, statusCode, ErrorTemplate, gin.H{
		"Status":  statusCode,
		"Title":   http.StatusText(statusCode),
		"Message": message,
	})
}

// BadRequest renders a 400 error page
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound renders a 404 error page
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// BadGateway renders a 502 error page for upstream failures
func BadGateway(c *gin.Context, message string) {
	Error(c, http.StatusBadGateway, message)
}

// InternalError renders a 500 error page
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// Redirect sends a 302 to the given path
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}
