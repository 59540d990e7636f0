package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/dbx"
	"github.com/dmitrijs2005/barbot/internal/filex"
	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/migrations"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves Postgres and SQLite stores over database/sql.
type SQLRepositoryManager struct {
	db           *sql.DB
	dialect      dbx.Dialect
	gooseDialect string
	migrations   fs.FS
	dir          string
	logger       logging.Logger
}

// Option tunes a manager built by New or one of the SQL constructors.
type Option func(*SQLRepositoryManager)

// WithLogger sends migration output to l instead of discarding it.
func WithLogger(l logging.Logger) Option {
	return func(m *SQLRepositoryManager) {
		m.logger = l
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func NewPostgresRepositoryManager(dsn string, opts ...Option) (*SQLRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return newSQLRepositoryManager(db, dbx.DialectPostgres, opts...), nil
}

// NewSQLiteRepositoryManager opens a SQLite file. Writers are serialised
// through a single connection and wait on locks instead of failing.
func NewSQLiteRepositoryManager(path string, opts ...Option) (*SQLRepositoryManager, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+"_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLRepositoryManager(db, dbx.DialectSQLite, opts...), nil
}

func newSQLRepositoryManager(db *sql.DB, dialect dbx.Dialect, opts ...Option) *SQLRepositoryManager {
	m := &SQLRepositoryManager{db: db, dialect: dialect, logger: logging.Nop()}
	switch dialect {
	case dbx.DialectPostgres:
		m.gooseDialect, m.migrations, m.dir = "pgx", migrations.Postgres, migrations.PostgresDir
	default:
		m.gooseDialect, m.migrations, m.dir = "sqlite3", migrations.SQLite, migrations.SQLiteDir
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SQLRepositoryManager) users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

// Users returns a repository bound to the connection pool.
func (m *SQLRepositoryManager) Users() users.Repository {
	return m.users(m.db)
}

func (m *SQLRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.users(tx))
	})
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	m.logger.Info(ctx, "applying migrations", "dialect", string(m.dialect))
	goose.SetLogger(&gooseLogger{logger: m.logger.With("component", "goose")})
	goose.SetBaseFS(m.migrations)
	if err := goose.SetDialect(m.gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (m *SQLRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
