package refreshtokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyTypeRefreshToken = "refresh_token"

// RedisRepository stores each refresh token under its own key with a TTL
// matching the token expiry, so Redis evicts expired tokens by itself.
type RedisRepository struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     common.Clock
}

// NewRedisRepository wraps an existing client. Tests pass a client connected
// to miniredis.
func NewRedisRepository(client redis.UniversalClient, keyPrefix string, clock common.Clock) *RedisRepository {
	return &RedisRepository{client: client, keyPrefix: keyPrefix, clock: clock}
}

type storedRefreshToken struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	SchemaID  int64     `json:"schema_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *RedisRepository) key(token string) string {
	return r.keyPrefix + keyTypeRefreshToken + ":" + token
}

func (r *RedisRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if err := validate(token); err != nil {
		return err
	}

	now := r.clock.Now()
	stored := storedRefreshToken{
		ID:        uuid.NewString(),
		UserID:    token.UserID,
		SchemaID:  token.SchemaID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: now,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh token: %w", err)
	}

	ttl := token.ExpiresAt.Sub(now)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	// NX makes an existing value a duplicate instead of an overwrite.
	err = r.client.SetArgs(ctx, r.key(token.Token), data, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NewDuplicateError("token")
		}
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	token.ID = stored.ID
	token.CreatedAt = stored.CreatedAt
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	var stored storedRefreshToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refresh token: %w", err)
	}

	return &models.RefreshToken{
		ID:        stored.ID,
		Token:     token,
		UserID:    stored.UserID,
		SchemaID:  stored.SchemaID,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
	}, nil
}

// Delete relies on DEL reporting the number of removed keys: only one of
// several concurrent callers sees 1.
func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, r.key(token)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (r *RedisRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Ping checks Redis connectivity.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
