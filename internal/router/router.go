package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/contact-book/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/contact-book/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/contact-book/internal/model"      // role constants for the authorization gate
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes under /api/auth.
// None of them require an existing session: signup and login establish one,
// refresh_token carries its own credential in the Authorization header, and
// the two email endpoints are reached from a mail client.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// The refresh endpoint reads the refresh token from the Authorization
	// header itself; the JWTAuth middleware must NOT wrap it, since that
	// middleware only accepts access-scoped tokens.
	g.GET("/refresh_token", a.RefreshToken)
	g.GET("/confirmed_email/:token", a.ConfirmedEmail)
	g.POST("/request_email", a.RequestEmail)
}

// RegisterContacts registers the role-gated contact CRUD under /api/contacts.
// Every route requires a valid access token.  Read, search, create and
// update are open to all three roles; delete is admin only.  The cache
// middleware wraps the GET routes with user-scoped keys.
func RegisterContacts(e *echo.Echo, h *handler.ContactHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/api/contacts")
	g.Use(middleware.JWTAuth(jwtSecret))

	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleModerator, model.RoleUser)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	g.GET("", h.List, anyRole, cache)
	g.GET("/find", h.Find, anyRole, cache)
	g.GET("/birthday", h.Birthdays, anyRole, cache)
	g.GET("/email/:email", h.GetByEmail, anyRole, cache)
	g.GET("/:id", h.GetByID, anyRole, cache)
	g.POST("", h.Create, anyRole)
	g.PUT("/:id", h.Update, anyRole)
	g.DELETE("/:id", h.Delete, adminOnly)
}

// RegisterUsers registers the profile endpoints under /api/users.  Both
// require a valid access token and accept any known role.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
	g := e.Group("/api/users")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleModerator, model.RoleUser))
	g.GET("/me", u.Me)
	g.PATCH("/avatar", u.UpdateAvatar)
}
