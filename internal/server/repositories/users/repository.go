// Package users stores user accounts. The SQL implementation serves both
// Postgres and SQLite; the in-memory one backs tests and throwaway runs.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/server/models"
)

var (
	ErrUsernameTaken = fmt.Errorf("username already registered: %w", common.ErrorConflict)
	ErrEmailTaken    = fmt.Errorf("email already registered: %w", common.ErrorConflict)
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

type Repository interface {
	// FindByUsername returns common.ErrorNotFound when no record matches.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// Exists reports whether a record has the given username or email.
	// Empty arguments are not checked.
	Exists(ctx context.Context, username, email string) (bool, error)
	// Insert assigns ID and CreatedAt and stores u. Duplicate usernames or
	// emails yield ErrUsernameTaken or ErrEmailTaken.
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	// List returns users in insertion order.
	List(ctx context.Context, offset, limit int) ([]*models.User, error)
	// SetDisabled flips the disabled flag; common.ErrorNotFound when absent.
	SetDisabled(ctx context.Context, username string, disabled bool) error
}

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit
}
