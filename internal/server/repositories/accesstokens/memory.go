package accesstokens

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps tokens in process memory. It is safe for
// concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.AccessToken
	byValue map[string]string
	clock   common.Clock
}

func NewMemoryRepository(clock common.Clock) *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.AccessToken),
		byValue: make(map[string]string),
		clock:   clock,
	}
}

func (r *MemoryRepository) Put(_ context.Context, token *models.AccessToken) (*models.AccessToken, error) {
	if err := validate(token); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byValue[token.AccessToken]; ok {
		return nil, models.NewDuplicateError("accessToken")
	}

	t := *token
	t.ID = uuid.NewString()
	t.CreatedAt = r.clock.Now()

	r.byID[t.ID] = &t
	r.byValue[t.AccessToken] = t.ID

	return clone(&t), nil
}

func (r *MemoryRepository) GetByAccessToken(_ context.Context, value string) (*models.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byValue[value]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.remove(t)
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time, namePrefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.byID {
		if t.ExpiresAt == nil || t.ExpiresAt.After(now) || !strings.HasPrefix(t.Name, namePrefix) {
			continue
		}
		r.remove(t)
		n++
	}
	return n, nil
}

func (r *MemoryRepository) FindByNamePattern(_ context.Context, fragment string) ([]*models.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.AccessToken
	for _, t := range r.byID {
		if strings.Contains(t.Name, fragment) {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// SetEnabled toggles a token. Administrative tooling and tests use it to
// disable a token without deleting it.
func (r *MemoryRepository) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	t.Enabled = enabled
	return nil
}

func (r *MemoryRepository) remove(t *models.AccessToken) {
	delete(r.byID, t.ID)
	delete(r.byValue, t.AccessToken)
}

func clone(t *models.AccessToken) *models.AccessToken {
	c := *t
	if t.ExpiresAt != nil {
		e := *t.ExpiresAt
		c.ExpiresAt = &e
	}
	return &c
}
