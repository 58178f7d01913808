package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const refreshPrefix = "tms:refresh:"

// RefreshStore keeps refresh tokens in redis. A token maps to its employee id
// and is consumed atomically on rotation.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore creates the store.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RefreshStore{client: client, ttl: ttl}
}

// Issue stores a new refresh token for the employee.
func (s *RefreshStore) Issue(ctx context.Context, employeeID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, refreshPrefix+token, employeeID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Consume deletes the token and returns the employee it belonged to. Unknown
// or expired tokens return ErrInvalidToken.
func (s *RefreshStore) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	employeeID, err := s.client.GetDel(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	return employeeID, nil
}

// Revoke deletes the token. Unknown tokens are ignored.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, refreshPrefix+token).Err()
}
