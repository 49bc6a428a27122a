package handoff

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultCookieTTL bounds how long a minted identity cookie stays valid.
const DefaultCookieTTL = 10 * time.Minute

// Codec signs and verifies opaque string payloads. The wire form is
// base64url(plaintext) + "." + base64url(hmac-sha256(plaintext)).
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCookieTTL overrides the validity window for minted cookies.
func WithCookieTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a Codec keyed with the given secret.
func NewCodec(secret []byte, opts ...CodecOption) *Codec {
	c := &Codec{
		secret: secret,
		ttl:    DefaultCookieTTL,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Sign produces the wire form for the given plaintext.
func (c *Codec) Sign(plaintext string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(plaintext))

	return base64.RawURLEncoding.EncodeToString([]byte(plaintext)) +
		"." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature and returns the recovered plaintext. The
// comparison is constant time.
func (c *Codec) Verify(signed string) (string, error) {
	payload, sig, ok := strings.Cut(signed, ".")
	if !ok {
		return "", ErrCookieInvalid
	}

	plaintext, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrCookieInvalid
	}

	signature, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrCookieInvalid
	}

	mac := hmac.New(sha256.New, c.secret)
	mac.Write(plaintext)

	if !hmac.Equal(signature, mac.Sum(nil)) {
		return "", ErrCookieInvalid
	}

	return string(plaintext), nil
}

// MintCookie signs a "{userID}:{unixMillis}" payload stamped with the
// current time.
func (c *Codec) MintCookie(userID string) string {
	return c.Sign(fmt.Sprintf("%s:%d", userID, c.now().UnixMilli()))
}

// VerifyCookie validates a minted cookie and returns the embedded user id.
// A valid signature with a stale timestamp yields ErrCookieExpired.
func (c *Codec) VerifyCookie(cookie string) (string, error) {
	plaintext, err := c.Verify(cookie)
	if err != nil {
		return "", err
	}

	userID, stamp, ok := strings.Cut(plaintext, ":")
	if !ok || userID == "" {
		return "", ErrCookieInvalid
	}

	millis, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return "", ErrCookieInvalid
	}

	issuedAt := time.UnixMilli(millis)
	if c.now().Sub(issuedAt) > c.ttl {
		return "", ErrCookieExpired
	}

	return userID, nil
}
