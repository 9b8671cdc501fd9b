package repository

import (
	"context"
	"sort"
	"sync"

	"user-registry/internal/user/domain"
)

// MemoryRepository is an in-memory Repository used when no DATABASE_URL is configured and in tests.
// It enforces email uniqueness itself, like the users_email_key constraint does in Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[int64]domain.User
	byEmail map[string]int64
	nextID  int64
}

// NewMemoryRepository returns an empty in-memory user repository. Ids start at 1.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]domain.User),
		byEmail: make(map[string]int64),
		nextID:  1,
	}
}

// List returns copies of every user ordered by id.
func (r *MemoryRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns a copy of the user for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetByEmail returns a copy of the user with email, or nil if not found.
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

// Create stores u under the next id and sets u.ID. Returns ErrDuplicateEmail if the email is taken.
func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return ErrDuplicateEmail
	}
	u.ID = r.nextID
	r.nextID++
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

// Update replaces the stored user with u. Returns ErrNotFound or ErrDuplicateEmail.
func (r *MemoryRepository) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return ErrDuplicateEmail
	}
	delete(r.byEmail, current.Email)
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

// Delete removes the user with id. Returns ErrNotFound if absent.
func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}
