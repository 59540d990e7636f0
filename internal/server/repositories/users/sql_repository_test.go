package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/dbx"
	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLRepository(db, dbx.DialectPostgres)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

const (
	selectByUsernameQ = `(?s)^SELECT\s+id,\s*username,\s*email,\s*full_name,\s*hashed_password,\s*disabled,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	insertQ           = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*full_name,\s*hashed_password,\s*disabled,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`
)

var userCols = []string{"id", "username", "email", "full_name", "hashed_password", "disabled", "created_at"}

func TestFindByUsername_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByUsernameQ).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice", "alice@example.com", nil, "$2a$hash", false, fixedNow.Unix()))

	got, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{
		ID:             "u-1",
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "$2a$hash",
		CreatedAt:      fixedNow,
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsername_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByUsernameQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByUsername_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByUsernameQ).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.FindByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestExists(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		query    string
		args     []driver.Value
	}{
		{"username only", "alice", "", `(?s)^SELECT EXISTS \(SELECT 1 FROM users WHERE username = \$1\)$`, []driver.Value{"alice"}},
		{"email only", "", "a@x.io", `(?s)^SELECT EXISTS \(SELECT 1 FROM users WHERE email = \$1\)$`, []driver.Value{"a@x.io"}},
		{"both", "alice", "a@x.io", `(?s)^SELECT EXISTS \(SELECT 1 FROM users WHERE username = \$1 OR email = \$2\)$`, []driver.Value{"alice", "a@x.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(tt.query).WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

			ok, err := repo.Exists(context.Background(), tt.username, tt.email)
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExists_NothingToCheck(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	ok, err := repo.Exists(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", "Alice Liddell", "$2a$hash", false, fixedNow.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	in := &models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice Liddell", HashedPassword: "$2a$hash"}
	got, err := repo.Insert(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Empty(t, in.ID, "input must not be mutated")
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.Equal(t, "alice", got.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NullFullName(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs("fixed-id", "bob", "bob@example.com", nil, "h", true, fixedNow.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Insert(context.Background(), &models.User{ID: "fixed-id", Username: "bob", Email: "bob@example.com", HashedPassword: "h", Disabled: true})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)
}

func TestInsert_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"username", "users_username_key", ErrUsernameTaken},
		{"email", "users_email_key", ErrEmailTaken},
		{"other", "users_id_key", common.ErrorConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectExec(insertQ).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Insert(context.Background(), &models.User{Username: "alice", Email: "a@x.io", HashedPassword: "h"})
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, common.ErrorConflict)
		})
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "57P01"})

	_, err := repo.Insert(context.Background(), &models.User{Username: "alice", Email: "a@x.io", HashedPassword: "h"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorConflict)
	assert.Contains(t, err.Error(), "db error")
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+ORDER\s+BY\s+seq\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`
	mock.ExpectQuery(q).
		WithArgs(DefaultPageSize, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice", "a@x.io", "Alice", "h1", false, fixedNow.Unix()).
			AddRow("u-2", "bob", "b@x.io", nil, "h2", true, fixedNow.Unix()))

	got, err := repo.List(context.Background(), -5, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "Alice", got[0].FullName)
	assert.True(t, got[1].Disabled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_CapsLimit(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users`).
		WithArgs(MaxPageSize, 10).
		WillReturnRows(sqlmock.NewRows(userCols))

	got, err := repo.List(context.Background(), 10, 1_000_000)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestList_ScanError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice", "a@x.io", nil, "h", false, "not-a-number"))

	_, err := repo.List(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestSetDisabled(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+disabled\s*=\s*\$1\s+WHERE\s+username\s*=\s*\$2$`

	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(true, "alice").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.SetDisabled(context.Background(), "alice", true))
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(false, "ghost").WillReturnResult(sqlmock.NewResult(0, 0))
		require.ErrorIs(t, repo.SetDisabled(context.Background(), "ghost", false), common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("boom"))
		err := repo.SetDisabled(context.Background(), "alice", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error: boom")
	})
}
