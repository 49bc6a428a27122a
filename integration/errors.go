package integration

import "github.com/goliatone/go-errors"

const (
	TextCodeSessionExpired = "session_expired"
	TextCodeUserNotFound   = "user_not_found"
	TextCodeNotConnected   = "not_connected"
)

// ErrSessionExpired is returned when the connection cookie is missing,
// tampered, or past its window. The user must restart the handoff.
var ErrSessionExpired = errors.New("connection session expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when the cookie verifies but the embedded
// user no longer exists.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrNotConnected is returned by operations that require an existing
// connection record.
var ErrNotConnected = errors.New("instagram account not connected", errors.CategoryNotFound).
	WithTextCode(TextCodeNotConnected).
	WithCode(errors.CodeNotFound)
