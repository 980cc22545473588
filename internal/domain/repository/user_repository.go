// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatehouse/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for user persistence.
// This allows the application layer to handle specific outcomes without depending on database-specific errors.
var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert violates the unique email constraint.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateFederatedID is returned when an insert violates the unique federated id constraint.
	ErrDuplicateFederatedID = errors.New("federated id already registered")
)

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
//
// Uniqueness of email and federated id is the store's responsibility: Create
// and CreateFederated report constraint violations through the duplicate
// sentinels above, so callers never need a racy check-then-insert.
type UserRepository interface {
	// FindForLogin retrieves a user by email for credential verification.
	// The returned entity includes the password hash.
	FindForLogin(ctx context.Context, email string) (*entity.User, error)

	// FindForSession retrieves a user by id for an authenticated request.
	// The returned entity never carries the password hash.
	FindForSession(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail resolves an email to the owning user's id.
	FindByEmail(ctx context.Context, email string) (uuid.UUID, error)

	// FindByFederatedID retrieves a user by the identity provider's user id.
	// The returned entity never carries the password hash.
	FindByFederatedID(ctx context.Context, federatedID string) (*entity.User, error)

	// Create persists a new locally registered user (email + password hash).
	Create(ctx context.Context, user *entity.User) error

	// CreateFederated persists a new user linked to an identity provider,
	// with no local credential.
	CreateFederated(ctx context.Context, user *entity.User) error
}
