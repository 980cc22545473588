package impl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_ValidateUser_Success(t *testing.T) {
	f := newAuthTestFixture(10)
	userID := f.seedLocalUser("user@example.com", "Password123!")

	view, err := f.uc.ValidateUser(context.Background(), &usecase.ValidateUserInput{
		Email:    "user@example.com",
		Password: "Password123!",
	})

	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, userID, view.ID)
	assert.Equal(t, "user@example.com", view.Email)
	assert.Nil(t, view.FederatedID)
}

func TestAuthService_ValidateUser_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	f := newAuthTestFixture(10)
	f.seedLocalUser("user@example.com", "Password123!")

	ctx := context.Background()

	_, missErr := f.uc.ValidateUser(ctx, &usecase.ValidateUserInput{
		Email:    "nobody@example.com",
		Password: "Password123!",
	})
	_, mismatchErr := f.uc.ValidateUser(ctx, &usecase.ValidateUserInput{
		Email:    "user@example.com",
		Password: "wrong-password",
	})

	require.Error(t, missErr)
	require.Error(t, mismatchErr)

	// Both failure modes must collapse to the same error so a caller cannot
	// probe which emails are registered.
	assert.True(t, errors.Is(missErr, domainerrors.ErrInvalidCredentials))
	assert.True(t, errors.Is(mismatchErr, domainerrors.ErrInvalidCredentials))
}

func TestAuthService_ValidateUser_FederatedOnlyAccountRejected(t *testing.T) {
	f := newAuthTestFixture(10)

	// An account created through Google has no local credential.
	_, err := f.uc.ValidateUserForGoogle(context.Background(), &usecase.GoogleLoginInput{
		ProviderID: "google-sub-1",
		Email:      "federated@example.com",
	})
	require.NoError(t, err)

	_, err = f.uc.ValidateUser(context.Background(), &usecase.ValidateUserInput{
		Email:    "federated@example.com",
		Password: "anything",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestAuthService_SerializeDeserialize_RoundTrip(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	payload := []byte(`{"user_id":"abc"}`)
	err := f.uc.SerializeUser(ctx, &usecase.SerializeUserInput{
		SessionKey: "sess-1",
		Payload:    payload,
		TTL:        time.Hour,
	})
	require.NoError(t, err)

	out, err := f.uc.DeserializeUser(ctx, &usecase.DeserializeUserInput{SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, payload, out.Payload)
}

func TestAuthService_SerializeUser_OverwritesExistingKey(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	require.NoError(t, f.uc.SerializeUser(ctx, &usecase.SerializeUserInput{
		SessionKey: "sess-1",
		Payload:    []byte("first"),
		TTL:        time.Hour,
	}))
	require.NoError(t, f.uc.SerializeUser(ctx, &usecase.SerializeUserInput{
		SessionKey: "sess-1",
		Payload:    []byte("second"),
		TTL:        time.Hour,
	}))

	out, err := f.uc.DeserializeUser(ctx, &usecase.DeserializeUserInput{SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, []byte("second"), out.Payload)
}

func TestAuthService_DeserializeUser_MissIsNotAnError(t *testing.T) {
	f := newAuthTestFixture(10)

	out, err := f.uc.DeserializeUser(context.Background(), &usecase.DeserializeUserInput{
		SessionKey: "never-written",
	})

	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Nil(t, out.Payload)
}

func TestAuthService_DeserializeUser_ExpiredSessionIsAMiss(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	require.NoError(t, f.uc.SerializeUser(ctx, &usecase.SerializeUserInput{
		SessionKey: "sess-1",
		Payload:    []byte("payload"),
		TTL:        time.Minute,
	}))

	f.sessionStore.advance(2 * time.Minute)

	out, err := f.uc.DeserializeUser(ctx, &usecase.DeserializeUserInput{SessionKey: "sess-1"})
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestAuthService_SerializeUser_CacheFailureSurfaces(t *testing.T) {
	f := newAuthTestFixture(10)
	f.sessionStore.failSet = true

	err := f.uc.SerializeUser(context.Background(), &usecase.SerializeUserInput{
		SessionKey: "sess-1",
		Payload:    []byte("payload"),
		TTL:        time.Hour,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrCacheWrite))
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthTestFixture(12)

	out, err := f.uc.Register(context.Background(), &usecase.RegisterInput{
		Email:    "new@example.com",
		Password: "Password123!",
	})

	require.NoError(t, err)
	require.NotNil(t, out.User)
	assert.NotEqual(t, uuid.Nil, out.User.ID)
	assert.Equal(t, "new@example.com", out.User.Email)

	// The cost factor comes from the provider on every call.
	assert.Equal(t, 12, f.hasher.lastUsedCost())

	// The stored credential verifies the original password.
	stored, err := f.userRepo.FindForLogin(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.True(t, f.hasher.Check("Password123!", *stored.PasswordHash))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthTestFixture(10)
	f.seedLocalUser("taken@example.com", "Password123!")

	out, err := f.uc.Register(context.Background(), &usecase.RegisterInput{
		Email:    "taken@example.com",
		Password: "AnotherPass1!",
	})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))
	assert.Equal(t, 1, f.userRepo.count())
}

func TestAuthService_Register_HasherFailure(t *testing.T) {
	f := newAuthTestFixture(10)
	f.hasher.failHash = true

	out, err := f.uc.Register(context.Background(), &usecase.RegisterInput{
		Email:    "new@example.com",
		Password: "Password123!",
	})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordHashFailed))
	assert.Equal(t, 0, f.userRepo.count())
}

func TestAuthService_Register_ConcurrentSameEmail(t *testing.T) {
	const attempts = 8

	f := newAuthTestFixture(10)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var duplicateCount atomic.Int64

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.uc.Register(context.Background(), &usecase.RegisterInput{
				Email:    "contested@example.com",
				Password: "Password123!",
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domainerrors.ErrEmailAlreadyRegistered):
				duplicateCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), successCount.Load())
	assert.Equal(t, int64(attempts-1), duplicateCount.Load())
	assert.Equal(t, 1, f.userRepo.count())
}

func TestAuthService_ValidateUserForGoogle_MissingAssertion(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	_, nilErr := f.uc.ValidateUserForGoogle(ctx, nil)
	_, emptyErr := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{Email: "a@b.com"})

	assert.True(t, errors.Is(nilErr, domainerrors.ErrInvalidFederatedAssertion))
	assert.True(t, errors.Is(emptyErr, domainerrors.ErrInvalidFederatedAssertion))
	assert.Equal(t, 0, f.userRepo.count())
}

func TestAuthService_ValidateUserForGoogle_FindOrCreateIsIdempotent(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	first, err := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "google-sub-1",
		Email:      "federated@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", first.FederatedID)
	require.NotNil(t, first.User)

	// Repeat login with a changed email returns the stored record untouched.
	second, err := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "google-sub-1",
		Email:      "renamed@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "federated@example.com", second.User.Email)
	assert.Equal(t, 1, f.userRepo.count())
}

func TestAuthService_ValidateUserForGoogle_DistinctProvidersShareEmail(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	first, err := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "provider-1",
		Email:      "shared@example.com",
	})
	require.NoError(t, err)

	// Accounts are keyed on the provider's user id, so a second provider
	// asserting the same email gets its own record.
	second, err := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "provider-2",
		Email:      "shared@example.com",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.User.ID, second.User.ID)
	assert.Equal(t, "provider-1", first.FederatedID)
	assert.Equal(t, "provider-2", second.FederatedID)
	assert.Equal(t, 2, f.userRepo.count())
}

func TestAuthService_Register_EmailHeldByFederatedAccount(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	_, err := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "google-sub-1",
		Email:      "shared@example.com",
	})
	require.NoError(t, err)

	// Email uniqueness is scoped to local accounts; a federated holder of
	// the email does not block local registration.
	out, err := f.uc.Register(ctx, &usecase.RegisterInput{
		Email:    "shared@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)
	require.NotNil(t, out.User)
	assert.Equal(t, 2, f.userRepo.count())
}

func TestAuthService_ValidateUserForGoogle_SoftDeletedAccountStaysDeleted(t *testing.T) {
	f := newAuthTestFixture(10)
	ctx := context.Background()

	first, err := f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "google-sub-1",
		Email:      "federated@example.com",
	})
	require.NoError(t, err)

	f.userRepo.softDelete(first.User.ID)

	// The provider id still holds its unique slot, so the login neither
	// resurrects the deleted account nor creates a replacement row.
	_, err = f.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: "google-sub-1",
		Email:      "federated@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, 1, f.userRepo.count())
}

func TestAuthService_ValidateUserForGoogle_ConcurrentFirstLogin(t *testing.T) {
	const attempts = 8

	f := newAuthTestFixture(10)

	var wg sync.WaitGroup
	var errCount atomic.Int64
	ids := make([]uuid.UUID, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			out, err := f.uc.ValidateUserForGoogle(context.Background(), &usecase.GoogleLoginInput{
				ProviderID: "google-sub-1",
				Email:      "federated@example.com",
			})
			if err != nil {
				errCount.Add(1)

				return
			}
			ids[i] = out.User.ID
		}(i)
	}

	wg.Wait()

	// Every invocation converges on the single winner's record.
	assert.Equal(t, int64(0), errCount.Load())
	assert.Equal(t, 1, f.userRepo.count())
	for i := 1; i < attempts; i++ {
		assert.Equal(t, ids[0], ids[i], fmt.Sprintf("attempt %d resolved a different user", i))
	}
}

func TestAuthService_LoadSessionUser(t *testing.T) {
	f := newAuthTestFixture(10)
	userID := f.seedLocalUser("user@example.com", "Password123!")

	view, err := f.uc.LoadSessionUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, view.ID)

	_, err = f.uc.LoadSessionUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
}
