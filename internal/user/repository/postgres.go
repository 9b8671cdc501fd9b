package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"user-registry/internal/db"
	"user-registry/internal/user/domain"
)

// PostgresRepository stores users in the users table through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a user repository that uses the given pool for persistence.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns every user ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT id, email, name, age FROM users ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.HandlePgError(err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.User])
	if err != nil {
		return nil, db.HandlePgError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT id, email, name, age FROM users WHERE id = @id`
	return r.getOne(ctx, query, pgx.NamedArgs{"id": id})
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, name, age FROM users WHERE email = @email`
	return r.getOne(ctx, query, pgx.NamedArgs{"email": email})
}

// Create inserts the user and sets u.ID from the BIGSERIAL column.
// A unique violation on email is reported as ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	const query = `INSERT INTO users (email, name, age)
		VALUES (@email, @name, @age)
		RETURNING id`
	args := pgx.NamedArgs{"email": u.Email, "name": u.Name, "age": u.Age}
	if err := r.pool.QueryRow(ctx, query, args).Scan(&u.ID); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update overwrites email, name and age for u.ID. Returns ErrNotFound when no row matched.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	const query = `UPDATE users
		SET email = @email, name = @name, age = @age, updated_at = now()
		WHERE id = @id`
	args := pgx.NamedArgs{"id": u.ID, "email": u.Email, "name": u.Name, "age": u.Age}
	tag, err := r.pool.Exec(ctx, query, args)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user. Returns ErrNotFound when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = @id`
	tag, err := r.pool.Exec(ctx, query, pgx.NamedArgs{"id": id})
	if err != nil {
		return db.HandlePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks connectivity with the pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args pgx.NamedArgs) (*domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args)
	if err != nil {
		return nil, db.HandlePgError(err)
	}
	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[domain.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, db.HandlePgError(err)
	}
	return &u, nil
}

func mapWriteError(err error) error {
	err = db.HandlePgError(err)
	if errors.Is(err, db.ErrDuplicatedEntry) {
		return ErrDuplicateEmail
	}
	return err
}
