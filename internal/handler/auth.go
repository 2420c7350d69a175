package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // sentinel errors such as sql.ErrNoRows
	"log"          // logging for swallowed background errors
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/contact-book/internal/config"     // app configuration
	"github.com/iliyamo/contact-book/internal/model"      // role constants
	"github.com/iliyamo/contact-book/internal/queue"      // email event payloads
	"github.com/iliyamo/contact-book/internal/repository" // DB repositories
	queue_publisher "github.com/iliyamo/contact-book/internal/service"
	"github.com/iliyamo/contact-book/internal/utils" // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // admin | moderator | user (defaults to user)
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type requestEmailReq struct {
	Email string `json:"email"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Confirmed bool   `json:"confirmed"`
	Avatar    string `json:"avatar"`
}
type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Signup creates an unconfirmed account and queues the confirmation email.
// No tokens are issued here: login stays refused until the emailed link is
// followed. The email publish happens off the request path; a failed
// publish is logged by the publisher and never fails the signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" || req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/username/password required"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !model.ValidRole(role) {
		role = model.RoleUser
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Username, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	h.queueConfirmationEmail(u.Email, u.Username)

	return c.JSON(http.StatusCreated, echo.Map{
		"user":   userPart{ID: uid, Email: u.Email, Username: u.Username, Role: u.Role, Confirmed: u.Confirmed, Avatar: u.Avatar},
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

// Login verifies credentials and returns a fresh access/refresh pair. The
// three refusal reasons share the 401 status but keep distinct messages.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.Confirmed {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "email not confirmed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
	}

	return h.issuePair(c, ctx, u.Email, u.Role)
}

// RefreshToken exchanges a valid refresh token for a new access/refresh
// pair and records the new refresh token as the only valid one. A token
// that verifies cryptographically but is not the recorded one is stale:
// it fails AND clears the stored token, forcing a full re-login.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	email, err := utils.ParseToken(h.Cfg.JWTSecret, raw, utils.ScopeRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	hash := utils.HashRefreshRaw(raw)
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != hash {
		// Stale or unknown refresh token: wipe the stored one entirely.
		_ = h.Users.UpdateRefreshToken(ctx, email, nil)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	return h.issuePair(c, ctx, u.Email, u.Role)
}

// issuePair creates an access+refresh pair, stores the refresh digest as
// the single valid one for the user and writes the token response.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, email, role string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, email, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, email, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	hash := utils.HashRefreshRaw(refresh.Raw)
	if err := h.Users.UpdateRefreshToken(ctx, email, &hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  access.Raw,
		RefreshToken: refresh.Raw,
		TokenType:    "bearer",
	})
}

// ConfirmedEmail handles the link from the confirmation email. Confirming
// twice is harmless and reports the idempotent message.
func (h *AuthHandler) ConfirmedEmail(c echo.Context) error {
	token := c.Param("token")

	email, err := utils.ParseToken(h.Cfg.JWTSecret, token, utils.ScopeEmail)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
	}
	if u.Confirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "Your email is already confirmed"})
	}
	if err := h.Users.ConfirmEmail(ctx, email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email confirmed"})
}

// RequestEmail re-sends the confirmation email. The response is the same
// generic acknowledgement whether or not the address is registered, so the
// endpoint cannot be used to probe for accounts.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req requestEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if u, err := h.Users.GetByEmail(ctx, email); err == nil && !u.Confirmed {
		h.queueConfirmationEmail(u.Email, u.Username)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Check your email for confirmation."})
}

// queueConfirmationEmail issues a confirmation token and publishes the
// email event in the background. The request context is not used: the
// publish outlives the HTTP response on purpose.
func (h *AuthHandler) queueConfirmationEmail(email, username string) {
	token, err := utils.NewEmailToken(h.Cfg.JWTSecret, email, h.Cfg.EmailTTLDays)
	if err != nil {
		log.Printf("auth: issue email token for %s failed: %v", email, err)
		return
	}
	ev := queue.EmailRequestedEvent{
		Email:    email,
		Username: username,
		BaseURL:  h.Cfg.BaseURL,
		Token:    token.Raw,
	}
	go func() {
		_ = queue_publisher.PublishEmailRequested(context.Background(), ev)
	}()
}
