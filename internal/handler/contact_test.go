package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contact-book/internal/repository"
)

func newContactMock(t *testing.T) (*ContactHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewContactHandler(repository.NewContactRepo(db), repository.NewUserRepo(db))
	return h, mock, func() { db.Close() }
}

// expectOwner mocks the per-request email-to-owner lookup every contact
// endpoint performs first.
func expectOwner(t *testing.T, mock sqlmock.Sqlmock, email string, id uint64) {
	t.Helper()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM users WHERE email=\\?").
		WithArgs(email).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "username", "password_hash", "role", "confirmed",
			"refresh_token_hash", "avatar", "created_at", "updated_at",
		}).AddRow(id, email, "anna", "hash", "user", true, nil, "url", now, now))
}

func authedContext(method, target, body, email string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if email != "" {
		c.Set("user_email", email)
	}
	return c, rec
}

func contactRow(id, userID uint64, firstname, email string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "user_id", "firstname", "lastname", "email", "phone",
		"birthday", "note", "created_at", "updated_at",
	}).AddRow(id, userID, firstname, "Smith", email, "111", nil, "", now, now)
}

func TestListRequiresAuthenticatedEmail(t *testing.T) {
	h, _, done := newContactMock(t)
	defer done()

	c, rec := authedContext(http.MethodGet, "/api/contacts", "", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListReturnsOwnerPage(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE user_id = \\? ORDER BY id LIMIT \\? OFFSET \\?").
		WithArgs(uint64(1), 10, 0).
		WillReturnRows(contactRow(3, 1, "John", "john@x.com"))

	c, rec := authedContext(http.MethodGet, "/api/contacts", "", "a@x.com")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "john@x.com")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDForeignContactReports404(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 2)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs(uint64(3), uint64(2)).
		WillReturnError(sql.ErrNoRows)

	c, rec := authedContext(http.MethodGet, "/", "", "a@x.com")
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.GetByID(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	// The pre-insert lookup finds an existing contact, so no INSERT runs.
	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE email = \\? AND user_id = \\?").
		WithArgs("john@x.com", uint64(1)).
		WillReturnRows(contactRow(3, 1, "John", "john@x.com"))

	c, rec := authedContext(http.MethodPost, "/api/contacts",
		`{"firstname":"John","lastname":"Smith","email":"john@x.com","phone":"111"}`, "a@x.com")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContact(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	now := time.Now().UTC()
	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE email = \\? AND user_id = \\?").
		WithArgs("john@x.com", uint64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(uint64(1), "John", "Smith", "john@x.com", "111", sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM contacts WHERE id = ?")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c, rec := authedContext(http.MethodPost, "/api/contacts",
		`{"firstname":"John","lastname":"Smith","email":"John@X.com","phone":"111","birthday":"1990-06-08"}`, "a@x.com")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":42`)
	assert.Contains(t, rec.Body.String(), `"birthday":"1990-06-08"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsBadBirthday(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)

	c, rec := authedContext(http.MethodPost, "/api/contacts",
		`{"firstname":"John","lastname":"Smith","email":"john@x.com","phone":"111","birthday":"06/08/1990"}`, "a@x.com")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "birthday must be YYYY-MM-DD")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingContactReports404(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs(uint64(9), uint64(1)).
		WillReturnError(sql.ErrNoRows)

	c, rec := authedContext(http.MethodPut, "/",
		`{"firstname":"John","lastname":"Smith","email":"john@x.com","phone":"111"}`, "a@x.com")
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDuplicateEmailConflicts(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE id = \\? AND user_id = \\?").
		WithArgs(uint64(3), uint64(1)).
		WillReturnRows(contactRow(3, 1, "John", "john@x.com"))
	mock.ExpectExec("UPDATE contacts SET").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'mark@x.com' for key 'uq_contacts_owner_email'"))

	c, rec := authedContext(http.MethodPut, "/",
		`{"firstname":"John","lastname":"Smith","email":"mark@x.com","phone":"111"}`, "a@x.com")
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteContact(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := authedContext(http.MethodDelete, "/", "", "a@x.com")
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTwiceReports404(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contacts WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(3), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := authedContext(http.MethodDelete, "/", "", "a@x.com")
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPassesTrimmedTerms(t *testing.T) {
	h, mock, done := newContactMock(t)
	defer done()

	expectOwner(t, mock, "a@x.com", 1)
	mock.ExpectQuery("SELECT .+ FROM contacts WHERE user_id = \\? AND \\(LOWER\\(firstname\\) LIKE \\?\\) ORDER BY id").
		WithArgs(uint64(1), "%jo%").
		WillReturnRows(contactRow(1, 1, "John", "john@x.com"))

	c, rec := authedContext(http.MethodGet, "/api/contacts/find?first_name=+Jo+", "", "a@x.com")
	require.NoError(t, h.Find(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "John")
	assert.NoError(t, mock.ExpectationsWereMet())
}
