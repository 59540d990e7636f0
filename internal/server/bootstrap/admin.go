// Package bootstrap seeds the store with the reserved administrative
// account on start-up.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
)

type Hasher interface {
	Hash(plaintext string) (string, error)
}

type AdminAccount struct {
	Username string
	Email    string
	FullName string
	Password string
}

// EnsureAdmin creates the admin account unless one with the same username
// already exists. Losing an insert race to another instance counts as
// present. created reports whether this call inserted the record.
func EnsureAdmin(ctx context.Context, repo users.Repository, hasher Hasher, admin AdminAccount, logger logging.Logger) (created bool, err error) {
	log := logger.With("module", "bootstrap", "username", admin.Username)

	_, err = repo.FindByUsername(ctx, admin.Username)
	switch {
	case err == nil:
		log.Debug(ctx, "admin account present")
		return false, nil
	case !errors.Is(err, common.ErrorNotFound):
		return false, fmt.Errorf("look up admin: %w", err)
	}

	digest, err := hasher.Hash(admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	_, err = repo.Insert(ctx, &models.User{
		Username:       admin.Username,
		Email:          admin.Email,
		FullName:       admin.FullName,
		HashedPassword: digest,
	})
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			log.Debug(ctx, "admin account created concurrently")
			return false, nil
		}
		if errors.Is(err, users.ErrEmailTaken) {
			return false, fmt.Errorf("ADMIN_EMAIL %q is used by an account other than ADMIN_USERNAME %q; set ADMIN_EMAIL to a free address or ADMIN_USERNAME back to that account: %w",
				admin.Email, admin.Username, err)
		}
		return false, fmt.Errorf("insert admin: %w", err)
	}

	log.Info(ctx, "admin account created")
	return true, nil
}
