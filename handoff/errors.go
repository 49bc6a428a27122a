package handoff

import "github.com/goliatone/go-errors"

const (
	TextCodeCookieInvalid = "handoff_cookie_invalid"
	TextCodeCookieExpired = "handoff_cookie_expired"
	TextCodeTokenUnknown  = "handoff_token_unknown"
	TextCodeTokenExpired  = "handoff_token_expired"
)

// ErrCookieInvalid is returned when a signed value fails decoding or
// signature verification.
var ErrCookieInvalid = errors.New("invalid signed value", errors.CategoryBadInput).
	WithTextCode(TextCodeCookieInvalid).
	WithCode(errors.CodeBadRequest)

// ErrCookieExpired is returned when a signed value verifies but its
// timestamp is outside the allowed window.
var ErrCookieExpired = errors.New("signed value expired", errors.CategoryAuth).
	WithTextCode(TextCodeCookieExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenUnknown is returned when a connection token was never issued or
// was already consumed.
var ErrTokenUnknown = errors.New("unknown connection token", errors.CategoryNotFound).
	WithTextCode(TextCodeTokenUnknown).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when a connection token exists but its TTL
// has elapsed.
var ErrTokenExpired = errors.New("connection token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)
