// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core identity entity, representing a unique account.
// An account may carry a local credential (PasswordHash), a linked federated
// identity (FederatedID), or both. Local registration always starts without a
// federated id, and a federated sign-in creates the account without a password.
type User struct {
	ID           uuid.UUID  // The unique identifier for this account.
	Email        string     // The account's email address, unique across all accounts.
	PasswordHash *string    // The bcrypt hash of the local credential. Nil for purely federated accounts.
	FederatedID  *string    // The identity provider's user id (e.g. Google's 'sub' claim). Nil when no provider is linked, unique when present.
	CreatedAt    time.Time  // Timestamp of when this account was created.
	UpdatedAt    *time.Time // Timestamp of the last modification, nil if never modified.
	DeletedAt    *time.Time // Soft-delete marker, nil for live accounts.
}

// HasLocalCredential reports whether the account can log in with a password.
func (u *User) HasLocalCredential() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsFederated reports whether the account is linked to an identity provider.
func (u *User) IsFederated() bool {
	return u.FederatedID != nil && *u.FederatedID != ""
}
