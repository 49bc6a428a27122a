package instagram

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Identity is the minimal view of an authenticated tenant user. Session
// issuance and validation live in the host application; this package only
// needs to confirm the user exists and address their Business rows.
type Identity interface {
	ID() string
	Email() string
}

// UserProvider resolves an already-authenticated user identifier to an
// identity. Absence is reported with ErrIdentityNotFound.
type UserProvider interface {
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

// UserProviderFunc adapts a function to the UserProvider interface.
type UserProviderFunc func(ctx context.Context, id string) (Identity, error)

func (f UserProviderFunc) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	return f(ctx, id)
}

// Config holds connection options
type Config interface {
	GetAppID() string
	GetAppSecret() string
	GetConfigID() string
	GetAuthorizeURL() string
	GetRedirectURI() string
	GetScopes() []string
	GetGraphBaseURL() string
	GetBackendBaseURL() string
	GetCookieSecret() string
	GetSigningKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IG "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IG "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IG "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// DefaultLogger returns the package fallback logger.
func DefaultLogger() Logger {
	return defLogger{}
}
