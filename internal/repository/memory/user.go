package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shestoi/railbook/internal/repository"
)

// UserRepository keeps accounts in a map keyed by id.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]repository.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]repository.User)}
}

func (r *UserRepository) CreateUser(ctx context.Context, user repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = user
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (r *UserRepository) UpdateUser(ctx context.Context, user repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return repository.ErrAlreadyExists
		}
	}
	stored.Email = user.Email
	stored.Name = user.Name
	stored.PhoneNumber = user.PhoneNumber
	r.users[user.ID] = stored
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}
