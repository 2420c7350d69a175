package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book/internal/repository"
	"github.com/iliyamo/contact-book/internal/storage"
)

// UserHandler serves the profile endpoints. Avatars may be nil when object
// storage is not configured; the upload endpoint then reports the feature
// as unavailable instead of failing at startup.
type UserHandler struct {
	Users   *repository.UserRepo
	Avatars *storage.AvatarStore
}

func NewUserHandler(users *repository.UserRepo, avatars *storage.AvatarStore) *UserHandler {
	return &UserHandler{Users: users, Avatars: avatars}
}

// Me handles GET /api/users/me and returns the authenticated account.
func (h *UserHandler) Me(c echo.Context) error {
	email, _ := c.Get("user_email").(string)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, userPart{
		ID: u.ID, Email: u.Email, Username: u.Username,
		Role: u.Role, Confirmed: u.Confirmed, Avatar: u.Avatar,
	})
}

// UpdateAvatar handles PATCH /api/users/avatar. The multipart "file" field
// is uploaded to object storage under a key derived from the email, and
// the resulting public URL is stored on the user row.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	email, _ := c.Get("user_email").(string)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Avatars == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "avatar storage not configured"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request().Context()
	url, err := h.Avatars.Upload(ctx, storage.AvatarKey(email), contentType, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	u, err := h.Users.UpdateAvatar(ctx, email, url)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save avatar failed"})
	}
	return c.JSON(http.StatusOK, userPart{
		ID: u.ID, Email: u.Email, Username: u.Username,
		Role: u.Role, Confirmed: u.Confirmed, Avatar: u.Avatar,
	})
}
