package handoff

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// SignedRequest is the payload Meta sends on deauthorize and data-deletion
// callbacks, delivered as "{base64url(sig)}.{base64url(json)}".
type SignedRequest struct {
	UserID                     string `json:"user_id"`
	Algorithm                  string `json:"algorithm"`
	IssuedAt                   int64  `json:"issued_at"`
	InstagramBusinessAccountID string `json:"instagram_business_account_id,omitempty"`
}

// SignedRequestParser verifies Meta signed_request payloads using the app
// secret.
type SignedRequestParser struct {
	appSecret []byte
}

// NewSignedRequestParser creates a parser keyed with the Meta app secret.
func NewSignedRequestParser(appSecret string) *SignedRequestParser {
	return &SignedRequestParser{appSecret: []byte(appSecret)}
}

// Parse verifies the signature and decodes the payload. Only HMAC-SHA256
// payloads are accepted, and the comparison is constant time.
func (p *SignedRequestParser) Parse(raw string) (*SignedRequest, error) {
	sig, payload, ok := strings.Cut(raw, ".")
	if !ok {
		return nil, ErrCookieInvalid
	}

	signature, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return nil, ErrCookieInvalid
	}

	body, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrCookieInvalid
	}

	var req SignedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, ErrCookieInvalid
	}

	if !strings.EqualFold(req.Algorithm, "HMAC-SHA256") {
		return nil, ErrCookieInvalid
	}

	mac := hmac.New(sha256.New, p.appSecret)
	mac.Write([]byte(payload))

	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, ErrCookieInvalid
	}

	return &req, nil
}
