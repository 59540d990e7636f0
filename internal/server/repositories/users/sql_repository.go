package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/dbx"
	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, username, email, full_name, hashed_password, disabled, created_at`

// SQLRepository is a Repository over database/sql. Queries are written
// with '?' placeholders and rebound for the dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, now: time.Now}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		fullName  sql.NullString
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &fullName, &u.HashedPassword, &u.Disabled, &createdAt); err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, r.q(query), username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var (
		conds []string
		args  []any
	)
	if username != "" {
		conds = append(conds, "username = ?")
		args = append(args, username)
	}
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if len(conds) == 0 {
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + strings.Join(conds, " OR ") + `)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, r.q(query), args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *SQLRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	stored := *u
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = r.now().UTC().Truncate(time.Second)

	query := `INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	var fullName sql.NullString
	if stored.FullName != "" {
		fullName = sql.NullString{String: stored.FullName, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.q(query),
		stored.ID, stored.Username, stored.Email, fullName,
		stored.HashedPassword, stored.Disabled, stored.CreatedAt.Unix())
	if err != nil {
		return nil, classifyWriteError(err)
	}
	return &stored, nil
}

func (r *SQLRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	offset, limit = normalizePage(offset, limit)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY seq LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, r.q(query), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) SetDisabled(ctx context.Context, username string, disabled bool) error {
	query := `UPDATE users SET disabled = ? WHERE username = ?`

	res, err := r.db.ExecContext(ctx, r.q(query), disabled, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
