// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// ValidateUserInput defines the credential pair supplied at login.
// The plaintext password is consumed by the hasher and never persisted.
type ValidateUserInput struct {
	Email    string
	Password string
}

// SerializeUserInput defines a session write: an opaque payload stored under
// a session key with a time-to-live.
type SerializeUserInput struct {
	SessionKey string
	Payload    []byte
	TTL        time.Duration
}

// DeserializeUserInput identifies the session entry to read back.
type DeserializeUserInput struct {
	SessionKey string
}

// RegisterInput defines the data required to register a new local account.
type RegisterInput struct {
	Email    string
	Password string
}

// GoogleLoginInput carries an already-authenticated federated identity
// assertion: the provider-issued user id and the email it reported.
type GoogleLoginInput struct {
	ProviderID string
	Email      string
}

// --- Output DTOs ---

// UserView is the sanitized projection of a user returned to callers.
// It never includes the password hash.
type UserView struct {
	ID          uuid.UUID
	Email       string
	FederatedID *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

// DeserializeUserOutput reports the result of a session read. Found is false
// on a cache miss or expiry; an empty Payload with Found true is a valid,
// distinct outcome.
type DeserializeUserOutput struct {
	Payload []byte
	Found   bool
}

// RegisterOutput returns the newly created account's sanitized view.
type RegisterOutput struct {
	User *UserView
}

// GoogleLoginOutput returns the federated id the account is keyed on, plus
// the resolved user so the caller can issue a session without a second lookup.
type GoogleLoginOutput struct {
	FederatedID string
	User        *UserView
}

// AuthUsecase defines the authentication and session lifecycle operations.
// This is the contract that the delivery layer depends on.
type AuthUsecase interface {
	// ValidateUser verifies an email/password pair and returns the sanitized
	// user on success. Unknown email and wrong password are indistinguishable
	// to the caller.
	ValidateUser(ctx context.Context, input *ValidateUserInput) (*UserView, error)

	// SerializeUser writes a session payload into the cache with expiration.
	SerializeUser(ctx context.Context, input *SerializeUserInput) error

	// DeserializeUser reads a session payload back from the cache.
	DeserializeUser(ctx context.Context, input *DeserializeUserInput) (*DeserializeUserOutput, error)

	// Register creates a new local account from an email/password pair.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// ValidateUserForGoogle links or creates an account for a federated
	// identity and returns its federated id (find-or-create keyed on the
	// provider's user id).
	ValidateUserForGoogle(ctx context.Context, input *GoogleLoginInput) (*GoogleLoginOutput, error)

	// LoadSessionUser resolves a deserialized session principal to the
	// current sanitized user record.
	LoadSessionUser(ctx context.Context, userID uuid.UUID) (*UserView, error)
}
