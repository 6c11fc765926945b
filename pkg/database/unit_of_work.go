package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoScope is returned when an operation needs a database scope and the
// context has none.
var ErrNoScope = errors.New("no database scope in context")

// UnitOfWork runs a function inside a single database transaction.
type UnitOfWork interface {
	// WithTx begins a transaction on the context's scope, runs fn with a
	// context whose scope routes statements through that transaction, and
	// commits if fn returns nil. Any error or panic rolls back. Calls nested
	// inside an open transaction join it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type unitOfWork struct{}

// NewUnitOfWork creates a UnitOfWork backed by the context's database scope.
func NewUnitOfWork() UnitOfWork {
	return &unitOfWork{}
}

var _ UnitOfWork = (*unitOfWork)(nil)

func (u *unitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	scope, ok := GetScope(ctx)
	if !ok {
		return ErrNoScope
	}
	if scope.InTx() {
		return fn(ctx)
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.Background())
		}
	}()

	if err := fn(SetScope(ctx, &Scope{Conn: scope.Conn, tx: tx})); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
