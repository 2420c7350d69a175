package handler // handler package contains the contact CRUD endpoints

import (
	"database/sql" // sql is imported for sentinel errors like sql.ErrNoRows
	"errors"       // errors.Is for sentinel comparisons
	"net/http"     // http provides status code constants
	"strconv"      // strconv parses string identifiers to numeric types
	"strings"      // strings offers trimming utilities
	"time"         // birthday parsing

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/iliyamo/contact-book/internal/model"      // contact and user records
	"github.com/iliyamo/contact-book/internal/repository" // owner-scoped data access
)

// ContactHandler bundles the repositories used by the contact endpoints.
// Users is needed to resolve the token's email subject to an owner id:
// every repository call is scoped to that id.
type ContactHandler struct {
	Contacts *repository.ContactRepo
	Users    *repository.UserRepo
}

func NewContactHandler(contacts *repository.ContactRepo, users *repository.UserRepo) *ContactHandler {
	return &ContactHandler{Contacts: contacts, Users: users}
}

// ----- DTOs -----

// contactReq is the full field set; PUT overwrites every mutable field,
// partial updates are not supported.
type contactReq struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"` // "2006-01-02", empty for unknown
	Note      string `json:"note"`
}

type contactResp struct {
	ID        uint64    `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  *string   `json:"birthday"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toContactResp(c *model.Contact) contactResp {
	var bday *string
	if c.Birthday != nil {
		s := c.Birthday.Format("2006-01-02")
		bday = &s
	}
	return contactResp{
		ID:        c.ID,
		Firstname: c.Firstname,
		Lastname:  c.Lastname,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  bday,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toContactList(cs []*model.Contact) []contactResp {
	out := make([]contactResp, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContactResp(c))
	}
	return out
}

// ownerID resolves the authenticated email (set by JWTAuth) to the owning
// user's id. The lookup happens per request; there is no ambient identity
// beyond the context values.
func (h *ContactHandler) ownerID(c echo.Context) (uint64, error) {
	email, _ := c.Get("user_email").(string)
	if email == "" {
		return 0, echo.ErrUnauthorized
	}
	u, err := h.Users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		return 0, echo.ErrUnauthorized
	}
	return u.ID, nil
}

// parseLimitOffset reads pagination query params. The limit defaults to 10
// and is capped at 100 regardless of what the caller asks for.
func parseLimitOffset(c echo.Context) (int, int) {
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func parseBirthday(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List handles GET /api/contacts and returns a page of the caller's contacts.
func (h *ContactHandler) List(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := parseLimitOffset(c)
	items, err := h.Contacts.List(c.Request().Context(), ownerID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toContactList(items))
}

// GetByID handles GET /api/contacts/:id. Absent and foreign-owned records
// both report 404.
func (h *ContactHandler) GetByID(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	contact, err := h.Contacts.GetByID(c.Request().Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toContactResp(contact))
}

// GetByEmail handles GET /api/contacts/email/:email.
func (h *ContactHandler) GetByEmail(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	contact, err := h.Contacts.GetByEmail(c.Request().Context(), email, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toContactResp(contact))
}

// Find handles GET /api/contacts/find?first_name=..&last_name=.. with a
// case-insensitive substring match on either name.
func (h *ContactHandler) Find(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	first := strings.TrimSpace(c.QueryParam("first_name"))
	last := strings.TrimSpace(c.QueryParam("last_name"))
	items, err := h.Contacts.SearchByName(c.Request().Context(), ownerID, first, last)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toContactList(items))
}

// Birthdays handles GET /api/contacts/birthday: contacts whose birthday
// falls within the next seven days. Pagination applies to the raw contact
// page before the window filter.
func (h *ContactHandler) Birthdays(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := parseLimitOffset(c)
	items, err := h.Contacts.UpcomingBirthdays(c.Request().Context(), ownerID, limit, offset, 7)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toContactList(items))
}

// Create handles POST /api/contacts. The duplicate check runs before the
// insert; the unique index backs it up under concurrency, so both paths
// answer 409.
func (h *ContactHandler) Create(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	contact, errMsg := contactFromReq(&req, ownerID)
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errMsg})
	}

	ctx := c.Request().Context()
	if _, err := h.Contacts.GetByEmail(ctx, contact.Email, ownerID); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	} else if !errors.Is(err, repository.ErrContactNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if err := h.Contacts.Create(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create contact"})
	}
	return c.JSON(http.StatusCreated, toContactResp(contact))
}

// Update handles PUT /api/contacts/:id and overwrites all mutable fields.
func (h *ContactHandler) Update(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	contact, errMsg := contactFromReq(&req, ownerID)
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errMsg})
	}

	updated, err := h.Contacts.Update(c.Request().Context(), id, ownerID, contact)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) || errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toContactResp(updated))
}

// Delete handles DELETE /api/contacts/:id. Routing restricts this to the
// admin role; deletion is permanent. A repeated delete reports 404.
func (h *ContactHandler) Delete(c echo.Context) error {
	ownerID, err := h.ownerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Contacts.Delete(c.Request().Context(), id, ownerID); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// contactFromReq validates the request body and builds the model. The
// returned message is empty on success.
func contactFromReq(req *contactReq, ownerID uint64) (*model.Contact, string) {
	firstname := strings.TrimSpace(req.Firstname)
	lastname := strings.TrimSpace(req.Lastname)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if firstname == "" || lastname == "" || email == "" || phone == "" {
		return nil, "firstname/lastname/email/phone required"
	}
	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		return nil, "birthday must be YYYY-MM-DD"
	}
	return &model.Contact{
		UserID:    ownerID,
		Firstname: firstname,
		Lastname:  lastname,
		Email:     email,
		Phone:     phone,
		Birthday:  birthday,
		Note:      req.Note,
	}, ""
}
