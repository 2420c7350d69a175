// Package repository defines error values that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them to HTTP statuses without inspecting driver error strings.
package repository

import "errors"

// ErrConflict is returned when an insert collides with existing state,
// such as creating a contact whose email the owner already has. Handlers
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrContactNotFound is returned when a contact does not exist or does
// not belong to the requesting user. The two cases are deliberately
// indistinguishable so that foreign-owned records look absent.
var ErrContactNotFound = errors.New("contact not found")
