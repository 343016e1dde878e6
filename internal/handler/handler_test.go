package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/config"
	"github.com/recipe-box/internal/handler"
	"github.com/recipe-box/internal/models"
	"github.com/recipe-box/internal/service"
	"github.com/recipe-box/internal/service/servicetest"
	"github.com/recipe-box/internal/spoonacular"
	"github.com/recipe-box/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var sessionConfig = config.SessionConfig{
	Secret:      "handler-test-secret",
	ExpireHours: 1,
	CookieName:  "recipe_box_session",
}

type testApp struct {
	router   *gin.Engine
	users    *servicetest.UserStore
	sessions *servicetest.SessionStore
	recipes  *servicetest.RecipeStore
	source   *servicetest.RecipeSource
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpl, err := web.Templates()
	require.NoError(t, err)

	app := &testApp{
		users:    servicetest.NewUserStore(),
		sessions: servicetest.NewSessionStore(),
		recipes:  servicetest.NewRecipeStore(),
		source:   servicetest.NewRecipeSource(),
	}
	app.router = handler.NewRouter(handler.RouterConfig{
		AuthService:   service.NewAuthService(app.users, app.sessions, sessionConfig),
		RecipeService: service.NewRecipeService(app.recipes, app.source),
		Session:       sessionConfig,
		Templates:     tmpl,
		Build:         handler.BuildInfo{Version: "test"},
	})
	return app
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) signUp(t *testing.T, username, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, http.MethodPost, "/signup", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	}, nil)
}

func (a *testApp) logIn(t *testing.T, username, password string) *http.Cookie {
	t.Helper()

	w := a.do(t, http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {password},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	return cookie
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionConfig.CookieName {
			return c
		}
	}
	return nil
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/dietsandintolerances", "/signup", "/login"} {
		w := app.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "Recipe Box", path)
	}
}

func TestSignUp(t *testing.T) {
	app := newTestApp(t)

	w := app.signUp(t, "alice", "a@x.com", "password1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your account has been created")
	assert.Equal(t, 1, app.users.Count())
}

func TestSignUpTaken(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)

	w := app.signUp(t, "bob", "a@x.com", "password2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "An account with that email already exists")

	w = app.signUp(t, "alice", "b@x.com", "password2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "That username is already taken")

	assert.Equal(t, 1, app.users.Count())
}

func TestSignUpInvalidFormRerendersWithErrors(t *testing.T) {
	app := newTestApp(t)

	w := app.signUp(t, "al", "not-an-email", "short")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Invalid Email")
	assert.Contains(t, body, "Field must be at least 3 characters long.")
	assert.Contains(t, body, "Field must be at least 8 characters long.")
	assert.Contains(t, body, `value="al"`)
	assert.Equal(t, 0, app.users.Count())
}

func TestLogInAndDashboard(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)

	cookie := app.logIn(t, "alice", "password1")
	assert.True(t, cookie.HttpOnly)

	w := app.do(t, http.MethodGet, "/dashboard", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome, alice!")

	// already logged in users skip the login form
	w = app.do(t, http.MethodGet, "/login", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestLogInReturnsToRequestedPage(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)

	gate := app.do(t, http.MethodGet, "/myrecipes", nil, nil)
	require.Equal(t, http.StatusFound, gate.Code)
	loginURL := gate.Header().Get("Location")

	form := app.do(t, http.MethodGet, loginURL, nil, nil)
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), `name="next" value="/myrecipes"`)

	w := app.do(t, http.MethodPost, loginURL, url.Values{"username": {"alice"}, "password": {"password1"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/myrecipes", w.Header().Get("Location"))

	// the hidden form field works without the query string
	w = app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"password1"}, "next": {"/update/1"}}, nil)
	assert.Equal(t, "/update/1", w.Header().Get("Location"))
}

func TestLogInIgnoresOffsiteNext(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)

	for _, next := range []string{"//evil.example", "https://evil.example/", "/\\evil.example", "dashboard", "javascript:alert(1)"} {
		w := app.do(t, http.MethodPost, "/login?next="+url.QueryEscape(next), url.Values{"username": {"alice"}, "password": {"password1"}}, nil)
		assert.Equal(t, http.StatusFound, w.Code, next)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"), next)
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)

	cookie := app.logIn(t, "alice", "password1")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.InDelta(t, sessionConfig.Expiry().Seconds(), float64(cookie.MaxAge), 5)
}

func TestLogInInvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)

	wrongPassword := app.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrongpassword"}}, nil)
	unknownUser := app.do(t, http.MethodPost, "/login", url.Values{"username": {"mallory"}, "password": {"password1"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "Invalid username or password")
	assert.Nil(t, sessionCookie(wrongPassword))
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	app := newTestApp(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/dashboard"},
		{http.MethodGet, "/logout"},
		{http.MethodGet, "/randomrecipe"},
		{http.MethodGet, "/myrecipes"},
		{http.MethodGet, "/update/1"},
		{http.MethodPost, "/update/1"},
		{http.MethodGet, "/delete/1"},
		{http.MethodPost, "/delete/1"},
	}

	for _, r := range routes {
		w := app.do(t, r.method, r.path, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code, r.path)
		assert.Equal(t, "/login?next="+url.QueryEscape(r.path), w.Header().Get("Location"), r.path)
	}
	assert.Equal(t, 0, app.source.CallCount)
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/dashboard", nil, &http.Cookie{Name: sessionConfig.CookieName, Value: "forged"})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestLogOut(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	cookie := app.logIn(t, "alice", "password1")

	w := app.do(t, http.MethodGet, "/logout", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, 0, app.sessions.Len())

	// the old cookie no longer identifies anyone
	w = app.do(t, http.MethodGet, "/dashboard", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", w.Header().Get("Location"))
}

func TestEndToEndScenario(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	w := app.signUp(t, "bob", "a@x.com", "password2")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "An account with that email already exists")

	cookie := app.logIn(t, "alice", "password1")
	alice, err := app.users.GetByUsername("alice")
	require.NoError(t, err)

	w = app.do(t, http.MethodGet, "/randomrecipe", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Lemon Garlic Salmon")
	assert.Contains(t, body, "25 minutes")
	assert.Contains(t, body, "gluten free, pescatarian")
	assert.Contains(t, body, "dinner, main course")

	saved, err := app.recipes.GetByUserID(alice.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, alice.ID, saved[0].UserID)
	assert.Equal(t, models.DefaultRecipeNote, saved[0].RecipeNote)

	w = app.do(t, http.MethodGet, "/myrecipes", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lemon Garlic Salmon")
	assert.Contains(t, w.Body.String(), models.DefaultRecipeNote)
}

func TestUpdateNote(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	cookie := app.logIn(t, "alice", "password1")
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/randomrecipe", nil, cookie).Code)

	w := app.do(t, http.MethodGet, "/update/1", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.DefaultRecipeNote)
	assert.Contains(t, w.Body.String(), "Lemon Garlic Salmon")

	w = app.do(t, http.MethodPost, "/update/1", url.Values{"note": {"new text"}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Note saved.")
	assert.Contains(t, w.Body.String(), "new text")

	recipe, err := app.recipes.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "new text", recipe.RecipeNote)

	w = app.do(t, http.MethodPost, "/update/1", url.Values{"note": {"ab"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Field must be at least 3 characters long.")

	recipe, err = app.recipes.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "new text", recipe.RecipeNote)
}

func TestDeleteRecipe(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	cookie := app.logIn(t, "alice", "password1")
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/randomrecipe", nil, cookie).Code)

	w := app.do(t, http.MethodPost, "/delete/1", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/myrecipes", w.Header().Get("Location"))

	_, err := app.recipes.GetByID(1)
	assert.Error(t, err)

	w = app.do(t, http.MethodGet, "/myrecipes", nil, cookie)
	assert.NotContains(t, w.Body.String(), "Lemon Garlic Salmon")

	w = app.do(t, http.MethodGet, "/delete/1", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "That recipe does not exist.")
}

func TestOtherUsersRecipesAreNotFound(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	require.Equal(t, http.StatusOK, app.signUp(t, "mallory", "m@x.com", "password2").Code)

	alice := app.logIn(t, "alice", "password1")
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/randomrecipe", nil, alice).Code)

	mallory := app.logIn(t, "mallory", "password2")
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/update/1", nil, mallory).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPost, "/update/1", url.Values{"note": {"hijacked"}}, mallory).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPost, "/delete/1", nil, mallory).Code)

	recipe, err := app.recipes.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRecipeNote, recipe.RecipeNote)

	w := app.do(t, http.MethodGet, "/myrecipes", nil, mallory)
	assert.NotContains(t, w.Body.String(), "Lemon Garlic Salmon")
}

func TestInvalidRecipeID(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	cookie := app.logIn(t, "alice", "password1")

	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/update/abc", nil, cookie).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/delete/0", nil, cookie).Code)
}

func TestExternalServiceFailure(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.signUp(t, "alice", "a@x.com", "password1").Code)
	cookie := app.logIn(t, "alice", "password1")
	app.source.Err = &spoonacular.Error{Op: "random_recipe", StatusCode: http.StatusPaymentRequired, Err: assert.AnError}

	w := app.do(t, http.MethodGet, "/randomrecipe", nil, cookie)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "The recipe service is not available right now.")

	w = app.do(t, http.MethodGet, "/trivia", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestTrivia(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/trivia", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Honey never spoils.")
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/no-such-page", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found.")
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}
