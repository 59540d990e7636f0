// Package repomanager opens the configured store, runs its migrations and
// vends repositories bound either to the connection pool or to a
// transaction.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	// WithinTx runs fn against repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// New picks a backend from the DSN scheme:
//
//	postgres://..., postgresql://...   Postgres via pgx
//	sqlite://barbot.db, sqlite:///./barbot.db, sqlite:////abs/path.db
//	memory://                          process memory, lost on exit
//
// Options apply to the SQL backends only.
func New(dsn string, opts ...Option) (RepositoryManager, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresRepositoryManager(dsn, opts...)
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLiteRepositoryManager(sqlitePath(dsn), opts...)
	case strings.HasPrefix(dsn, "memory:"):
		return NewInMemoryRepositoryManager(), nil
	}
	return nil, fmt.Errorf("unsupported database DSN scheme: %q", redact(dsn))
}

// sqlitePath accepts both sqlite://file.db and the SQLAlchemy forms where a
// third slash starts a relative path and a fourth an absolute one.
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "sqlite:")
	p = strings.TrimPrefix(p, "//")
	if strings.HasPrefix(p, "/") {
		p = p[1:]
	}
	return p
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i+3] + "..."
	}
	if len(dsn) > 8 {
		return dsn[:8] + "..."
	}
	return dsn
}
