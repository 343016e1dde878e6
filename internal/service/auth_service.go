package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/recipe-box/internal/config"
	"github.com/recipe-box/internal/metrics"
	"github.com/recipe-box/internal/models"
	"github.com/recipe-box/internal/repository"
	"github.com/recipe-box/pkg/crypto"
	"github.com/recipe-box/pkg/keygen"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUnauthenticated    = errors.New("not logged in")
)

const tokenIssuer = "recipe-box"

// UserStore persists user identities
type UserStore interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	ExistsByUsername(username string) (bool, error)
	ExistsByEmail(email string) (bool, error)
}

// SessionStore is the server-side registry of active sessions
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error
	GetUserID(ctx context.Context, sessionID string) (uint, error)
	Delete(ctx context.Context, sessionID string) error
}

// AuthService handles signup, login and session management
type AuthService struct {
	users         UserStore
	sessions      SessionStore
	sessionConfig config.SessionConfig
	validate      *validator.Validate
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, sessions SessionStore, sessionConfig config.SessionConfig) *AuthService {
	return &AuthService{
		users:         users,
		sessions:      sessions,
		sessionConfig: sessionConfig,
		validate:      newValidator(),
	}
}

// SignUpRequest represents the signup form
type SignUpRequest struct {
	Username string `form:"username" binding:"required,min=3,max=20"`
	Email    string `form:"email" binding:"required,email,max=40"`
	Password string `form:"password" binding:"required,min=8,max=80"`
}

// LoginRequest represents the login form
type LoginRequest struct {
	Username string `form:"username" binding:"required,min=3,max=20"`
	Password string `form:"password" binding:"required,min=8,max=80"`
}

// Session is an established login session
type Session struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// SessionClaims are the claims carried by the session cookie
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SignUp registers a new user.
// An existing email is reported before an existing username.
func (s *AuthService) SignUp(req *SignUpRequest) (*models.User, error) {
	user, err := s.signUp(req)
	metrics.RecordAuthEvent("signup", outcome(err))
	return user, err
}

func (s *AuthService) signUp(req *SignUpRequest) (*models.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError(err)
	}

	exists, err := s.users.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	exists, err = s.users.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	// The unique indexes settle concurrent signups that passed the checks above
	if err := s.users.Create(user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return user, nil
}

// LogIn verifies credentials and opens a session for the user.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) LogIn(ctx context.Context, req *LoginRequest) (*Session, error) {
	session, err := s.logIn(ctx, req)
	metrics.RecordAuthEvent("login", outcome(err))
	return session, err
}

func (s *AuthService) logIn(ctx context.Context, req *LoginRequest) (*Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError(err)
	}

	user, err := s.users.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	sessionID := keygen.SessionID()
	expiry := s.sessionConfig.Expiry()
	if err := s.sessions.Save(ctx, sessionID, user.ID, expiry); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	expiresAt := time.Now().Add(expiry)
	token, err := s.signToken(user, sessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	}, nil
}

// LogOut ends the session identified by token. Unknown or invalid tokens are ignored.
func (s *AuthService) LogOut(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	metrics.RecordAuthEvent("logout", "success")
	return nil
}

// Authenticate returns the user bound to a live session token
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	userID, err := s.sessions.GetUserID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if userID != claims.UserID {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) signToken(user *models.User, sessionID string, expiresAt time.Time) (string, error) {
	claims := &SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.sessionConfig.Secret))
}

func (s *AuthService) parseToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.sessionConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "invalid_form"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		return "taken"
	default:
		return "error"
	}
}
