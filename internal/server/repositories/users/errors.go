package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// classifyWriteError maps unique violations from either driver onto the
// package conflict errors. Anything else is wrapped as a db error.
func classifyWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return ErrUsernameTaken
		case emailConstraint:
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			msg := liteErr.Error()
			switch {
			case strings.Contains(msg, "users.username"):
				return ErrUsernameTaken
			case strings.Contains(msg, "users.email"):
				return ErrEmailTaken
			}
			return fmt.Errorf("%w: %s", common.ErrorConflict, msg)
		}
	}

	return fmt.Errorf("db error: %w", err)
}
