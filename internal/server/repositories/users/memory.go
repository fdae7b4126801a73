package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
)

// MemoryRepository is an in-process user directory.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[int64]*models.User)}
}

// Create stores user. A zero ID is assigned the next free id.
func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.UserName, user.UserName) {
			return nil, models.NewDuplicateError("username")
		}
	}

	if user.ID == 0 {
		r.nextID++
		user.ID = r.nextID
	} else if user.ID > r.nextID {
		r.nextID = user.ID
	}
	if _, ok := r.users[user.ID]; ok {
		return nil, models.NewDuplicateError("id")
	}

	u := cloneUser(user)
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.UserName, login) || (u.Email != "" && strings.EqualFold(u.Email, login)) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Groups = append([]models.UserGroup(nil), u.Groups...)
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
