// Package db opens the Postgres connection pool and maps driver errors to storage sentinels.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes.
const (
	uniqueViolation = "23505"
	undefinedTable  = "42P01"
)

var (
	// ErrDuplicatedEntry is returned by HandlePgError for unique constraint violations.
	ErrDuplicatedEntry = errors.New("duplicated entry")
	// ErrUndefinedTable is returned by HandlePgError when the schema has not been migrated.
	ErrUndefinedTable = errors.New("undefined table")
	// ErrNoRows is returned by HandlePgError when a query matched nothing.
	ErrNoRows = pgx.ErrNoRows
)

const defaultConnectTimeout = 10 * time.Second

type options struct {
	maxConns       int32
	tracer         pgx.QueryTracer
	connectTimeout time.Duration
}

// Option configures Open.
type Option func(*options)

// WithMaxConns sets the maximum pool size. Values <= 0 keep the pgxpool default.
func WithMaxConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = int32(n)
		}
	}
}

// WithTracer sets the query tracer (e.g. QueryTracer for OpenTelemetry spans).
func WithTracer(t pgx.QueryTracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithConnectTimeout bounds the initial connect and ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// Open creates a Postgres connection pool for dsn and verifies it with a ping. Caller must call Close when done.
// The pool is safe for concurrent use.
func Open(ctx context.Context, dsn string, opts ...Option) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("db: DATABASE_URL is empty")
	}
	o := &options{connectTimeout: defaultConnectTimeout}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}
	if o.tracer != nil {
		cfg.ConnConfig.Tracer = o.tracer
	}

	connectCtx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: create pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return pool, nil
}

// HandlePgError converts Postgres errors to the sentinels above. Other errors are returned unchanged.
func HandlePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicatedEntry, pgErr.ConstraintName)
		case undefinedTable:
			return ErrUndefinedTable
		}
	}
	return err
}
