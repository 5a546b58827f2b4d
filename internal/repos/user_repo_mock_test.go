package repos

import (
	"context"
	"errors"
	"testing"

	"megastore/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "sqlite")), mock
}

func TestRotateRefreshToken_LostSwap(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE users SET refresh_token = \? WHERE id = \? AND refresh_token = \?`).
		WithArgs("new", "u-1", "old").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "new")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefreshToken_DBError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("boom")
	mock.ExpectExec(`UPDATE users SET refresh_token`).WillReturnError(boom)

	err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "new")
	assert.ErrorIs(t, err, boom)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))

	err := repo.Create(context.Background(), &domain.User{ID: "u-1", Email: "a@b.c", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreate_RefusesMissingHash(t *testing.T) {
	repo, mock := newMockRepo(t)
	err := repo.Create(context.Background(), &domain.User{ID: "u-1", Email: "a@b.c"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassword_RefusesEmptyHash(t *testing.T) {
	repo, mock := newMockRepo(t)
	err := repo.UpdatePassword(context.Background(), "u-1", "", true)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByEmail_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).
		WithArgs("x@y.z").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ByEmail(context.Background(), "x@y.z")
	assert.ErrorIs(t, err, ErrNotFound)
}
