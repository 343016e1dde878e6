package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository keeps the server-side registry of active login sessions in Redis.
// Each session is stored as session:<id> -> user id, expiring with the session.
type SessionRepository struct {
	redis *redis.Client
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(redisClient *redis.Client) *SessionRepository {
	return &SessionRepository{redis: redisClient}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Save registers a session for a user
func (r *SessionRepository) Save(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error {
	return r.redis.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
}

// GetUserID returns the user bound to a session
func (r *SessionRepository) GetUserID(ctx context.Context, sessionID string) (uint, error) {
	value, err := r.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}

	userID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}
	return uint(userID), nil
}

// Delete removes a session; deleting an unknown session is not an error
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.redis.Del(ctx, sessionKey(sessionID)).Err()
}
