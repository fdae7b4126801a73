package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps refresh tokens in process memory.
type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
	clock  common.Clock
}

func NewMemoryRepository(clock common.Clock) *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken), clock: clock}
}

func (r *MemoryRepository) Create(_ context.Context, token *models.RefreshToken) error {
	if err := validate(token); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Token]; ok {
		return models.NewDuplicateError("token")
	}
	token.ID = uuid.NewString()
	token.CreatedAt = r.clock.Now()
	r.tokens[token.Token] = *token
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, rt := range r.tokens {
		if !rt.ExpiresAt.After(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}
