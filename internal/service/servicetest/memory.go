// Package servicetest provides in-memory stores and a stub recipe source
// for exercising the services and handlers without Postgres, Redis or the network.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recipe-box/internal/models"
	"github.com/recipe-box/internal/repository"
	"github.com/recipe-box/internal/spoonacular"
)

// UserStore is an in-memory service.UserStore
type UserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uint]*models.User)}
}

func (s *UserStore) Create(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}

	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *UserStore) GetByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		user := *u
		return &user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) GetByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			user := *u
			return &user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) ExistsByUsername(username string) (bool, error) {
	_, err := s.GetByUsername(username)
	return err == nil, nil
}

func (s *UserStore) ExistsByEmail(email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored users
func (s *UserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SessionStore is an in-memory service.SessionStore. TTLs are recorded, not enforced.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]uint
	TTLs     map[string]time.Duration
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]uint),
		TTLs:     make(map[string]time.Duration),
	}
}

func (s *SessionStore) Save(_ context.Context, sessionID string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = userID
	s.TTLs[sessionID] = ttl
	return nil
}

func (s *SessionStore) GetUserID(_ context.Context, sessionID string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID, ok := s.sessions[sessionID]; ok {
		return userID, nil
	}
	return 0, repository.ErrSessionNotFound
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	delete(s.TTLs, sessionID)
	return nil
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RecipeStore is an in-memory service.RecipeStore
type RecipeStore struct {
	mu      sync.Mutex
	nextID  uint
	recipes map[uint]*models.Recipe
}

func NewRecipeStore() *RecipeStore {
	return &RecipeStore{recipes: make(map[uint]*models.Recipe)}
}

func (s *RecipeStore) Create(recipe *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	recipe.ID = s.nextID
	recipe.CreatedAt = time.Now()
	recipe.UpdatedAt = recipe.CreatedAt
	stored := *recipe
	s.recipes[recipe.ID] = &stored
	return nil
}

func (s *RecipeStore) GetByID(id uint) (*models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.recipes[id]; ok {
		recipe := *r
		return &recipe, nil
	}
	return nil, repository.ErrRecipeNotFound
}

func (s *RecipeStore) GetByIDAndUserID(id, userID uint) (*models.Recipe, error) {
	recipe, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, repository.ErrRecipeNotFound
	}
	return recipe, nil
}

func (s *RecipeStore) GetByUserID(userID uint) ([]models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recipes := make([]models.Recipe, 0)
	for _, r := range s.recipes {
		if r.UserID == userID {
			recipes = append(recipes, *r)
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	return recipes, nil
}

func (s *RecipeStore) UpdateNote(id, userID uint, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok || r.UserID != userID {
		return repository.ErrRecipeNotFound
	}
	r.RecipeNote = note
	r.UpdatedAt = time.Now()
	return nil
}

func (s *RecipeStore) Delete(id, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok || r.UserID != userID {
		return repository.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// RecipeSource is a stub service.RecipeSource returning fixed values or errors
type RecipeSource struct {
	Recipe    *spoonacular.Recipe
	Trivia    *spoonacular.Trivia
	Err       error
	CallCount int
}

// NewRecipeSource returns a source serving a fixed recipe and trivia fact
func NewRecipeSource() *RecipeSource {
	return &RecipeSource{
		Recipe: &spoonacular.Recipe{
			Title:          "Lemon Garlic Salmon",
			ReadyInMinutes: 25,
			Servings:       2,
			Diets:          []string{"gluten free", "pescatarian"},
			SourceURL:      "https://spoonacular.com/lemon-garlic-salmon-1",
			DishTypes:      []string{"dinner", "main course"},
		},
		Trivia: &spoonacular.Trivia{Text: "Honey never spoils."},
	}
}

func (s *RecipeSource) RandomRecipe(context.Context) (*spoonacular.Recipe, error) {
	s.CallCount++
	if s.Err != nil {
		return nil, s.Err
	}
	recipe := *s.Recipe
	return &recipe, nil
}

func (s *RecipeSource) RandomTrivia(context.Context) (*spoonacular.Trivia, error) {
	s.CallCount++
	if s.Err != nil {
		return nil, s.Err
	}
	trivia := *s.Trivia
	return &trivia, nil
}
