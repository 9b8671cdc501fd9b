package repository

import (
	"context"
	"errors"

	"user-registry/internal/user/domain"
)

var (
	// ErrDuplicateEmail is returned by Create and Update when another user already holds the email.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrNotFound is returned by Update and Delete when no user has the given id.
	ErrNotFound = errors.New("user not found")
)

// Repository defines persistence for users. Implementations must be safe for concurrent use.
type Repository interface {
	// List returns every user ordered by id.
	List(ctx context.Context) ([]domain.User, error)
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail returns the user with the given email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts u and sets u.ID to the store-assigned id.
	Create(ctx context.Context, u *domain.User) error
	// Update overwrites email, name and age of the user with u.ID.
	Update(ctx context.Context, u *domain.User) error
	// Delete removes the user with id permanently.
	Delete(ctx context.Context, id int64) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
