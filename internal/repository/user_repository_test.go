package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewUserRepo(db), mock, func() { db.Close() }
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'uq_users_email'"))

	_, err := repo.Create(context.Background(), "a@x.com", "anna", "pw", "user", 4)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserNormalizesEmailAndHashes(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("a@x.com", "anna", sqlmock.AnyArg(), "user", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "  A@X.com ", "anna", "pw", "user", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailReadsNullRefreshHash(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "username", "password_hash", "role", "confirmed",
			"refresh_token_hash", "avatar", "created_at", "updated_at",
		}).AddRow(1, "a@x.com", "anna", "hash", "user", false, nil, "url", now, now))

	u, err := repo.GetByEmail(context.Background(), "A@X.com")
	require.NoError(t, err)
	assert.Nil(t, u.RefreshTokenHash)
	assert.False(t, u.Confirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailUnknownSurfacesNoRows(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRefreshTokenStoresAndClears(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	hash := "abc123"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token_hash=? WHERE email=?")).
		WithArgs(&hash, "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token_hash=? WHERE email=?")).
		WithArgs(nil, "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateRefreshToken(context.Background(), "a@x.com", &hash))
	require.NoError(t, repo.UpdateRefreshToken(context.Background(), "a@x.com", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmEmail(t *testing.T) {
	repo, mock, done := newUserMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET confirmed=1 WHERE email=?")).
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ConfirmEmail(context.Background(), "a@x.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
