package service

import "context"

// FederatedIdentity represents an identity-provider-asserted user, as
// extracted from an already-authenticated assertion (e.g. a Google ID token
// verified by the upstream layer).
type FederatedIdentity struct {
	ProviderID    string // Provider-issued user id (Google's 'sub' claim).
	Email         string // Email reported by the provider.
	Name          string // Display name, if the provider supplies one.
	AvatarURL     string // Profile picture URL, if any.
	EmailVerified bool   // Whether the provider vouches for the email.
}

// FederatedVerifier extracts a FederatedIdentity from a provider assertion.
type FederatedVerifier interface {
	// ExtractIdentity parses an ID token that has already been authenticated
	// upstream and returns the asserted identity.
	ExtractIdentity(ctx context.Context, idToken string) (*FederatedIdentity, error)
}
