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

	"github.com/iliyamo/contact-book/internal/model"
)

func newContactMock(t *testing.T) (*ContactRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewContactRepo(db), mock, func() { db.Close() }
}

func contactRows(contacts ...*model.Contact) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "firstname", "lastname", "email", "phone",
		"birthday", "note", "created_at", "updated_at",
	})
	for _, c := range contacts {
		var bday any
		if c.Birthday != nil {
			bday = *c.Birthday
		}
		rows.AddRow(c.ID, c.UserID, c.Firstname, c.Lastname, c.Email, c.Phone,
			bday, c.Note, c.CreatedAt, c.UpdatedAt)
	}
	return rows
}

func TestListScopesToOwner(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, firstname, lastname, email, phone, birthday, note, created_at, updated_at FROM contacts WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?")).
		WithArgs(uint64(1), 10, 0).
		WillReturnRows(contactRows(&model.Contact{
			ID: 3, UserID: 1, Firstname: "John", Lastname: "Smith",
			Email: "john@x.com", Phone: "111", CreatedAt: now, UpdatedAt: now,
		}))

	out, err := repo.List(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(1), out[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDForeignOwnerLooksAbsent(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	// The query carries the owner id, so another user's contact simply
	// returns no rows.
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs(uint64(3), uint64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 3, 2)
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmailIsConflict(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO contacts").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'john@x.com' for key 'uq_contacts_owner_email'"))

	err := repo.Create(context.Background(), &model.Contact{
		UserID: 1, Firstname: "John", Lastname: "Smith", Email: "john@x.com", Phone: "111",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePopulatesIDAndTimestamps(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(uint64(1), "John", "Smith", "john@x.com", "111", nil, "note").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM contacts WHERE id = ?")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c := &model.Contact{UserID: 1, Firstname: "John", Lastname: "Smith", Email: "john@x.com", Phone: "111", Note: "note"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, uint64(42), c.ID)
	assert.Equal(t, now, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRowReportsNotFound(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	mock.ExpectQuery("SELECT .+ FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs(uint64(9), uint64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), 9, 1, &model.Contact{
		Firstname: "J", Lastname: "S", Email: "j@x.com", Phone: "1",
	})
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteIsIdempotentInEffect(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 3, 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 3, 1), ErrContactNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchByFirstNameOnly(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	now := time.Now().UTC()
	// Only the firstname condition appears when last_name is absent, so
	// "Jo" matches John Smith and leaves Mark Smith out.
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE user_id = \\? AND \\(LOWER\\(firstname\\) LIKE \\?\\) ORDER BY id").
		WithArgs(uint64(1), "%jo%").
		WillReturnRows(contactRows(&model.Contact{
			ID: 1, UserID: 1, Firstname: "John", Lastname: "Smith",
			Email: "john@x.com", Phone: "111", CreatedAt: now, UpdatedAt: now,
		}))

	out, err := repo.SearchByName(context.Background(), 1, "Jo", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "John", out[0].Firstname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithNoTermsReturnsNothing(t *testing.T) {
	repo, _, done := newContactMock(t)
	defer done()

	out, err := repo.SearchByName(context.Background(), 1, "", "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUpcomingBirthdaysFiltersPage(t *testing.T) {
	repo, mock, done := newContactMock(t)
	defer done()

	now := time.Now().UTC()
	soon := now.AddDate(-30, 0, 3)  // birthday 3 days from now, 30 years ago
	far := now.AddDate(-30, 0, 20)  // 20 days out, past the window
	past := now.AddDate(-30, 0, -2) // already passed this year

	mock.ExpectQuery("SELECT .+ FROM contacts WHERE user_id = \\? ORDER BY id LIMIT \\? OFFSET \\?").
		WithArgs(uint64(1), 10, 0).
		WillReturnRows(contactRows(
			&model.Contact{ID: 1, UserID: 1, Firstname: "A", Lastname: "A", Email: "a@x.com", Phone: "1", Birthday: &soon, CreatedAt: now, UpdatedAt: now},
			&model.Contact{ID: 2, UserID: 1, Firstname: "B", Lastname: "B", Email: "b@x.com", Phone: "2", Birthday: &far, CreatedAt: now, UpdatedAt: now},
			&model.Contact{ID: 3, UserID: 1, Firstname: "C", Lastname: "C", Email: "c@x.com", Phone: "3", Birthday: &past, CreatedAt: now, UpdatedAt: now},
			&model.Contact{ID: 4, UserID: 1, Firstname: "D", Lastname: "D", Email: "d@x.com", Phone: "4", CreatedAt: now, UpdatedAt: now},
		))

	out, err := repo.UpcomingBirthdays(context.Background(), 1, 10, 0, 7)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(1), out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBirthdayInWindow(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name     string
		birthday time.Time
		today    time.Time
		want     bool
	}{
		{"two days ahead", day(2020, time.June, 10), day(2024, time.June, 8), true},
		{"window boundary inclusive", day(2020, time.June, 15), day(2024, time.June, 8), true},
		{"already passed", day(2020, time.June, 10), day(2024, time.June, 20), false},
		{"today counts", day(1990, time.June, 8), day(2024, time.June, 8), true},
		{"feb 29 clamps to feb 28 on non-leap years", day(2000, time.February, 29), day(2023, time.February, 25), true},
		{"feb 29 kept on leap years", day(2000, time.February, 29), day(2024, time.February, 25), true},
		{"january birthday invisible in late december", day(1990, time.January, 2), day(2024, time.December, 28), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, birthdayInWindow(tc.birthday, tc.today, 7))
		})
	}
}
