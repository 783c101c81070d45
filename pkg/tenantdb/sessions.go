package tenantdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

// Session is the query surface handed to repositories. *pgxpool.Pool,
// *pgxpool.Conn and pgx.Tx all satisfy it, so repository code is identical
// inside and outside transactions.
type Session interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sessions opens request-scoped database sessions against the database of
// the tenant carried by the context.
type Sessions struct {
	registry *Registry
}

// NewSessions wires a session provider onto a registry.
func NewSessions(registry *Registry) *Sessions {
	return &Sessions{registry: registry}
}

// Pool returns the pool for the tenant in ctx, or
// tenant.ErrTenantNotConfigured when the request resolved no tenant.
func (s *Sessions) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	t, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, tenant.ErrTenantNotConfigured
	}
	return s.registry.Get(ctx, t.DBName)
}

// WithSession acquires one pooled connection for the tenant in ctx, runs
// fn with it, and releases it on every exit path. Statements issued inside
// fn execute in order on that single connection.
func (s *Sessions) WithSession(ctx context.Context, fn func(ctx context.Context, sess Session) error) error {
	pool, err := s.Pool(ctx)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("tenantdb: acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(ctx, conn)
}

// WithTx runs fn inside a transaction on the tenant's database. The
// transaction is rolled back unless fn returns nil.
func (s *Sessions) WithTx(ctx context.Context, fn func(ctx context.Context, sess Session) error) error {
	pool, err := s.Pool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tenantdb: begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tenantdb: commit transaction: %w", err)
	}
	return nil
}

// ErrNoRows is re-exported so module code does not import pgx directly
// for the common not-found check.
var ErrNoRows = pgx.ErrNoRows

// IsNotFound reports whether err is the no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
