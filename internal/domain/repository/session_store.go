package repository

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session key is absent or has expired.
// A miss is a valid outcome for callers, not a failure.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore defines a key/value store with per-entry expiration used to
// hold serialized session state between requests. Payloads are opaque to the
// store.
type SessionStore interface {
	// Set writes payload under key with the given time-to-live,
	// overwriting any existing entry for that key.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Get returns the payload stored under key, or ErrSessionNotFound when
	// the key is absent or expired. An empty payload is a successful result,
	// distinct from a miss.
	Get(ctx context.Context, key string) ([]byte, error)
}
