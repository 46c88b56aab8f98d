package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"userapi/internal/models"
)

func newRepoWithMock(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUserRepository(sqlx.NewDb(db, "postgres"), zap.NewNop()), mock
}

var userRowColumns = []string{"id", "username", "email", "password_hash", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`)).
		WithArgs("miguel", "miguel@test.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(int64(1), "miguel", "miguel@test.com", "hash", created))

	user := &models.User{Username: "miguel", Email: "miguel@test.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, models.User{
		ID:           1,
		Username:     "miguel",
		Email:        "miguel@test.com",
		PasswordHash: "hash",
		CreatedAt:    created,
	}, *user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"lib/pq", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}},
		{"pgx", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(`INSERT INTO users`).WillReturnError(tc.err)

			err := repo.Create(context.Background(), &models.User{Username: "miguel", Email: "miguel@test.com", PasswordHash: "hash"})
			assert.ErrorIs(t, err, ErrDuplicate)
		})
	}
}

func TestCreate_OtherPgxErrorIsNotDuplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "23502", Message: "null value in column"})

	err := repo.Create(context.Background(), &models.User{Username: "miguel"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{Username: "miguel"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("melissa@test.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(int64(7), "melissa", "melissa@test.com", "hash", time.Now()))

	user, err := repo.GetByEmail(context.Background(), "melissa@test.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "melissa", user.Username)
}

func TestFindByUsernameOrEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE username = $1 OR email = $2 ORDER BY id LIMIT 1`)).
		WithArgs("melissa", "other@test.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(int64(7), "melissa", "melissa@test.com", "hash", time.Now()))

	user, err := repo.FindByUsernameOrEmail(context.Background(), "melissa", "other@test.com")
	require.NoError(t, err)
	assert.Equal(t, "melissa@test.com", user.Email)
}

func TestList_AppliesPaging(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY id LIMIT $1 OFFSET $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(2), "b", "b@test.com", "h", time.Now()).
			AddRow(int64(3), "c", "c@test.com", "h", time.Now()))

	users, err := repo.List(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), users[0].ID)
	assert.Equal(t, int64(3), users[1].ID)
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUpdate(t *testing.T) {
	q := regexp.QuoteMeta(`UPDATE users SET username = $1, email = $2, password_hash = $3 WHERE id = $4`)
	user := &models.User{ID: 1, Username: "sara", Email: "sara@test.com", PasswordHash: "h"}

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("sara", "sara@test.com", "h", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Update(context.Background(), user))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(context.Background(), user), ErrNotFound)
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(&pq.Error{Code: "23505"})
		assert.ErrorIs(t, repo.Update(context.Background(), user), ErrDuplicate)
	})
}

func TestDelete(t *testing.T) {
	q := regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), 1))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrNotFound)
	})
}
