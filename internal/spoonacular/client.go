package spoonacular

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recipe-box/internal/metrics"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://api.spoonacular.com"
	apiKeyHeader   = "x-api-key"

	// maxBodySize bounds how much of a response body is read
	maxBodySize = 1 << 20
)

// ErrExternalService matches every failure returned by the client
var ErrExternalService = errors.New("recipe service unavailable")

// Error describes a failed call to the recipe API
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("spoonacular %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("spoonacular %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports every client error as ErrExternalService
func (e *Error) Is(target error) bool {
	return target == ErrExternalService
}

// Recipe is the subset of a random recipe that the application shows and saves
type Recipe struct {
	Title          string
	ReadyInMinutes int
	Servings       int
	Diets          []string
	SourceURL      string
	DishTypes      []string
}

// Trivia is a random food fact
type Trivia struct {
	Text string
}

// Client calls the Spoonacular REST API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Spoonacular client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RandomRecipe fetches one random recipe
func (c *Client) RandomRecipe(ctx context.Context) (*Recipe, error) {
	const op = "random_recipe"

	body, err := c.get(ctx, op, "/recipes/random?number=1")
	if err != nil {
		return nil, err
	}

	first := gjson.GetBytes(body, "recipes.0")
	if !first.Exists() {
		return nil, &Error{Op: op, Err: errors.New("response contains no recipe")}
	}

	title := first.Get("title").String()
	if title == "" {
		return nil, &Error{Op: op, Err: errors.New("recipe has no title")}
	}

	link := first.Get("spoonacularSourceUrl").String()
	if link == "" {
		link = first.Get("sourceUrl").String()
	}

	return &Recipe{
		Title:          title,
		ReadyInMinutes: int(first.Get("readyInMinutes").Int()),
		Servings:       int(first.Get("servings").Int()),
		Diets:          stringArray(first.Get("diets")),
		SourceURL:      link,
		DishTypes:      stringArray(first.Get("dishTypes")),
	}, nil
}

// RandomTrivia fetches one random food trivia fact
func (c *Client) RandomTrivia(ctx context.Context) (*Trivia, error) {
	const op = "random_trivia"

	body, err := c.get(ctx, op, "/food/trivia/random")
	if err != nil {
		return nil, err
	}

	text := gjson.GetBytes(body, "text").String()
	if text == "" {
		return nil, &Error{Op: op, Err: errors.New("trivia has no text")}
	}

	return &Trivia{Text: text}, nil
}

// get performs a GET request and returns the validated JSON body
func (c *Client) get(ctx context.Context, op, path string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveExternalCall(op, err, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := gjson.GetBytes(body, "message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: errors.New(message)}
	}

	if !gjson.ValidBytes(body) {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: errors.New("malformed JSON response")}
	}

	return body, nil
}

func stringArray(result gjson.Result) []string {
	items := result.Array()
	values := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.String(); s != "" {
			values = append(values, s)
		}
	}
	return values
}
