package repository

import (
	"context"
	"sync"
	"time"

	"quantifyme/internal/domain"
)

// MemoryUserRepository implementa UserRepository en memoria.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		nextID: 1,
		users:  make(map[string]domain.User),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, email string, isPremium bool) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(email, isPremium)
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[normalizeEmail(email)]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) GetOrCreate(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[normalizeEmail(email)]; ok {
		return u, nil
	}
	return r.createLocked(email, false)
}

func (r *MemoryUserRepository) SetPremium(ctx context.Context, userID int64, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, u := range r.users {
		if u.ID == userID {
			u.IsPremium = value
			r.users[key] = u
			return nil
		}
	}
	return ErrUserNotFound
}

func (r *MemoryUserRepository) createLocked(email string, isPremium bool) (domain.User, error) {
	if _, ok := r.users[normalizeEmail(email)]; ok {
		return domain.User{}, ErrDuplicateEmail
	}
	u := domain.User{
		ID:        r.nextID,
		Email:     normalizeEmail(email),
		IsPremium: isPremium,
		CreatedAt: time.Now().UTC(),
	}
	r.nextID++
	r.users[u.Email] = u
	return u, nil
}
