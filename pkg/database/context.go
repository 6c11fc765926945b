package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	// ScopeKey is the context key for storing the request-scoped database connection.
	ScopeKey contextKey = "dbScope"
)

// Scope is a pooled connection bound to one request, optionally carrying an
// open transaction started by a UnitOfWork.
type Scope struct {
	Conn *pgxpool.Conn
	tx   pgx.Tx
}

// DB returns the transaction when one is open, otherwise the connection.
func (s *Scope) DB() Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.Conn
}

// InTx reports whether the scope carries an open transaction.
func (s *Scope) InTx() bool {
	return s.tx != nil
}

// Close releases the connection to the pool. Transaction scopes share the
// parent's connection and leave releasing to it.
func (s *Scope) Close() {
	if s.Conn == nil || s.tx != nil {
		return
	}
	s.Conn.Release()
}

// GetScope retrieves the database scope from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok
}

// SetScope stores the database scope in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// ClearScope returns a context without a database scope, so work forked onto
// other goroutines acquires its own connection instead of sharing the caller's.
func ClearScope(ctx context.Context) context.Context {
	if _, ok := GetScope(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, ScopeKey, nil)
}

// ScopeProvider creates scoped contexts for callers outside the HTTP stack
// (MCP tools, batch jobs, CLIs).
type ScopeProvider struct {
	db *DB
}

// NewScopeProvider creates a ScopeProvider for the given database.
func NewScopeProvider(db *DB) *ScopeProvider {
	return &ScopeProvider{db: db}
}

// WithScope returns a context carrying a database scope. An existing scope on
// ctx is reused and its cleanup is a no-op.
// The cleanup function must be called when the scope is no longer needed.
func (p *ScopeProvider) WithScope(ctx context.Context) (context.Context, func(), error) {
	if _, ok := GetScope(ctx); ok {
		return ctx, func() {}, nil
	}
	scope, err := p.db.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return SetScope(ctx, scope), scope.Close, nil
}
