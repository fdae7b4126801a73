package schemas

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	schemas map[int64]models.Schema
}

// NewMemoryRepository seeds the registry with schemas.
func NewMemoryRepository(schemas ...models.Schema) *MemoryRepository {
	r := &MemoryRepository{schemas: make(map[int64]models.Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.ID] = s
	}
	return r
}

func (r *MemoryRepository) Add(s models.Schema) {
	r.mu.Lock()
	r.schemas[s.ID] = s
	r.mu.Unlock()
}

func (r *MemoryRepository) GetSchemaByID(_ context.Context, id int64) (*models.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}
