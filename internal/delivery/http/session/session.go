// Package session defines the cookie-backed session principal shared by the
// login handler and the session middleware.
package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CookieName is the session cookie issued at login. Its value is the opaque
// session key the cache entry is stored under.
const CookieName = "gatehouse_session"

// Principal is the payload serialized into the session cache at login and
// read back on every authenticated request.
type Principal struct {
	UserID   uuid.UUID `json:"userId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Encode serializes the principal for storage in the session cache.
func Encode(p *Principal) ([]byte, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode session principal")
	}

	return payload, nil
}

// Decode parses a cached session payload back into a principal.
func Decode(payload []byte) (*Principal, error) {
	var p Principal
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, errors.Wrap(err, "failed to decode session principal")
	}

	return &p, nil
}

// NewKey generates a fresh opaque session key.
func NewKey() string {
	return uuid.New().String()
}
