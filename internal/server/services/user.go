// Package services contains server-side business logic. UserService is the
// authorization gate: it registers users, exchanges credentials for access
// tokens and resolves bearer tokens into active accounts.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
)

const (
	maxUsernameLength = 64
	maxPasswordBytes  = 72
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
	Validate(token string) (string, error)
}

// TokenResponse is what a successful login hands back to the client.
type TokenResponse struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	logger      logging.Logger

	// dummyDigest is verified against when the username is unknown so a
	// miss costs about as much as a wrong password.
	dummyDigest string
}

func NewUserService(m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, logger logging.Logger) (*UserService, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "user_service"),
		dummyDigest: dummy,
	}, nil
}

// Login verifies the password and issues an access token. Unknown users
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	user, err := s.repomanager.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			s.logger.Info(ctx, "login failed", "reason", "unknown user")
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.logger.Info(ctx, "login failed", "reason", "bad password", "username", username)
		return nil, common.ErrorUnauthorized
	}

	token, exp, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "username", user.Username)
	return &TokenResponse{AccessToken: token, TokenType: common.TokenTypeBearer, ExpiresAt: exp}, nil
}

// Register creates an active account. The Exists checks give early,
// specific conflicts; the store's unique constraints still decide races.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users()

	taken, err := repo.Exists(ctx, in.Username, "")
	if err != nil {
		s.logger.Error(ctx, "exists check failed", "error", err)
		return nil, common.ErrorInternal
	}
	if taken {
		return nil, users.ErrUsernameTaken
	}

	taken, err = repo.Exists(ctx, "", in.Email)
	if err != nil {
		s.logger.Error(ctx, "exists check failed", "error", err)
		return nil, common.ErrorInternal
	}
	if taken {
		return nil, users.ErrEmailTaken
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error(ctx, "hash failed", "error", err)
		return nil, common.ErrorInternal
	}

	u, err := repo.Insert(ctx, &models.User{
		Username:       in.Username,
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: digest,
		Disabled:       false,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		s.logger.Error(ctx, "insert user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "username", u.Username)
	return u, nil
}

// ResolveIdentity maps a bearer token onto its active user. Bad tokens and
// vanished users give common.ErrorUnauthorized; disabled accounts give
// common.ErrorForbidden.
func (s *UserService) ResolveIdentity(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", err)
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "token subject not found", "username", username)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "identity lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !user.Active() {
		return nil, common.ErrorForbidden
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	list, err := s.repomanager.Users().List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return list, nil
}

// SetDisabled toggles the account flag and returns the updated record.
func (s *UserService) SetDisabled(ctx context.Context, username string, disabled bool) (*models.User, error) {
	var updated *models.User
	err := s.repomanager.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		if err := repo.SetDisabled(ctx, username, disabled); err != nil {
			return err
		}
		u, err := repo.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set disabled for %s: %w", username, err)
	}

	s.logger.Info(ctx, "account flag changed", "username", username, "disabled", disabled)
	return updated, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Username == "" || strings.TrimSpace(in.Username) != in.Username:
		return fmt.Errorf("%w: username must be non-empty without surrounding spaces", common.ErrorValidation)
	case utf8.RuneCountInString(in.Username) > maxUsernameLength:
		return fmt.Errorf("%w: username longer than %d characters", common.ErrorValidation, maxUsernameLength)
	case in.Password == "":
		return fmt.Errorf("%w: password must not be empty", common.ErrorValidation)
	case len(in.Password) > maxPasswordBytes:
		return fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, maxPasswordBytes)
	}

	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return nil
}
