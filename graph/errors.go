package graph

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Graph API error codes that drive connection-status classification.
const (
	CodeInvalidToken     = 190
	CodeAPIPermission    = 10
	CodePermissionDenied = 200
	SubcodeAdminCooldown = 33
)

// APIError is the tagged error envelope the Graph API returns in its
// "error" field, plus the HTTP status it arrived with.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
	Type    string `json:"type"`
	Message string `json:"message"`
	TraceID string `json:"fbtrace_id"`
}

// Error implements the error interface. Access tokens never appear in
// the message.
func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error: code=%d subcode=%d type=%s message=%s trace=%s",
		e.Code, e.Subcode, e.Type, e.Message, e.TraceID)
}

// IsTokenExpired reports whether the error means the access token is
// invalid or expired.
func IsTokenExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Code == CodeInvalidToken
}

// IsMissingPermissions reports whether the error means a required OAuth
// permission was not granted.
func IsMissingPermissions(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeAPIPermission || apiErr.Code == CodePermissionDenied
}

// IsAdminCooldown reports whether the error is Meta's waiting period for
// new Page admins. Subcode 33 is authoritative; the message match covers
// older responses that omit the subcode.
func IsAdminCooldown(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Subcode == SubcodeAdminCooldown {
		return true
	}

	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "7 day") || strings.Contains(msg, "cooldown")
}
