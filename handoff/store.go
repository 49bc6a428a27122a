package handoff

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// DefaultTokenTTL bounds how long an issued connection token can be redeemed.
const DefaultTokenTTL = 5 * time.Minute

// TokenStore issues single-use connection tokens mapped to a user id. A
// token can be consumed exactly once, and only before its TTL elapses.
type TokenStore interface {
	Issue(ctx context.Context, userID string) (token string, expiresIn time.Duration, err error)
	Consume(ctx context.Context, token string) (userID string, err error)
}

type entry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore is an in-process TokenStore. Expired entries are reaped
// lazily on every Issue call.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// StoreOption configures a MemoryStore.
type StoreOption func(*MemoryStore)

// WithTokenTTL overrides the redemption window for issued tokens.
func WithTokenTTL(ttl time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithStoreClock overrides the time source, mostly for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-process token store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     DefaultTokenTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue mints a crypto-random token bound to the user id.
func (s *MemoryStore) Issue(ctx context.Context, userID string) (string, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", 0, err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.reap(now)
	s.entries[token] = entry{userID: userID, expiresAt: now.Add(s.ttl)}

	return token, s.ttl, nil
}

// Consume redeems a token, removing it so no concurrent caller can redeem
// it again. Expired tokens are removed and reported as expired.
func (s *MemoryStore) Consume(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return "", ErrTokenUnknown
	}

	delete(s.entries, token)

	if s.now().After(e.expiresAt) {
		return "", ErrTokenExpired
	}

	return e.userID, nil
}

// reap drops expired entries. Callers must hold the lock.
func (s *MemoryStore) reap(now time.Time) {
	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, token)
		}
	}
}
