// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
// It owns no long-lived state; all mutable state lives in the user store and
// the session cache, so any number of instances may run concurrently.
type authService struct {
	userRepo     repository.UserRepository
	sessionStore repository.SessionStore
	hasher       service.PasswordHasher
	costProvider service.HashCostProvider
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	SessionStore repository.SessionStore
	Hasher       service.PasswordHasher
	CostProvider service.HashCostProvider
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		userRepo:     params.UserRepo,
		sessionStore: params.SessionStore,
		hasher:       params.Hasher,
		costProvider: params.CostProvider,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ValidateUser verifies an email/password pair against the stored credential.
// A lookup miss and a password mismatch produce the same error so callers
// cannot enumerate registered emails.
func (srv *authService) ValidateUser(ctx context.Context, input *usecase.ValidateUserInput) (*usecase.UserView, error) {
	srv.log(ctx).Debug("Validating user credentials", slog.String("email", input.Email))

	user, err := srv.userRepo.FindForLogin(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", domainerrors.ErrInvalidCredentials))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to find user for login")
	}

	if !user.HasLocalCredential() || !srv.hasher.Check(input.Password, *user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", input.Email), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.log(ctx).Debug("User validated successfully", slog.Any("userID", user.ID))

	return toUserView(user), nil
}

// SerializeUser writes the session payload into the cache under the session
// key, overwriting any previous entry. Cache failures surface to the caller
// unretried.
func (srv *authService) SerializeUser(ctx context.Context, input *usecase.SerializeUserInput) error {
	if err := srv.sessionStore.Set(ctx, input.SessionKey, input.Payload, input.TTL); err != nil {
		srv.log(ctx).Error("Failed to write session to cache", slog.String("sessionKey", input.SessionKey), slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrCacheWrite, "failed to serialize session")
	}

	return nil
}

// DeserializeUser reads the payload stored under the session key. A miss or
// an expired entry yields Found=false rather than an error, so an expired
// session is never mistaken for an authenticated one with blank data.
func (srv *authService) DeserializeUser(ctx context.Context, input *usecase.DeserializeUserInput) (*usecase.DeserializeUserOutput, error) {
	payload, err := srv.sessionStore.Get(ctx, input.SessionKey)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return &usecase.DeserializeUserOutput{Found: false}, nil
		}

		return nil, errors.Wrap(err, "failed to read session from cache")
	}

	return &usecase.DeserializeUserOutput{Payload: payload, Found: true}, nil
}

// Register creates a new local account. The hash cost is read from the
// config provider on every call so cost rotation applies to subsequent
// registrations. Email uniqueness is enforced by the store on insert, not by
// a racy pre-check.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	hashedPassword, err := srv.hasher.Hash(input.Password, srv.costProvider.HashCost())
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash password during registration")
	}

	newUser := &entity.User{
		Email:        input.Email,
		PasswordHash: &hashedPassword,
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			srv.log(ctx).Warn("Registration rejected, email already registered", slog.String("email", input.Email))

			return nil, errors.Wrap(domainerrors.ErrEmailAlreadyRegistered, "registration failed")
		}

		srv.log(ctx).Error("Failed to create user during registration", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, "failed to create user during registration")
	}

	if newUser.ID == uuid.Nil {
		srv.log(ctx).Error("Store reported no created record", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, "store returned no created record")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.RegisterOutput{User: toUserView(newUser)}, nil
}

// ValidateUserForGoogle performs the find-or-create for a federated login.
// The account is keyed on the provider's user id, not the email: two
// providers asserting the same email remain distinct accounts. A repeat
// login returns the stored record untouched; the linked email is not
// refreshed.
func (srv *authService) ValidateUserForGoogle(ctx context.Context, input *usecase.GoogleLoginInput) (*usecase.GoogleLoginOutput, error) {
	if input == nil || input.ProviderID == "" {
		return nil, errors.Wrap(domainerrors.ErrInvalidFederatedAssertion, "missing federated identity assertion")
	}

	srv.log(ctx).Debug("Handling federated login", slog.String("providerID", input.ProviderID))

	existing, err := srv.userRepo.FindByFederatedID(ctx, input.ProviderID)
	if err == nil {
		srv.log(ctx).Debug("Found existing federated user", slog.Any("userID", existing.ID))

		return &usecase.GoogleLoginOutput{FederatedID: *existing.FederatedID, User: toUserView(existing)}, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user by federated id")
	}

	created, err := srv.createFederatedUser(ctx, input)
	if err != nil {
		return nil, err
	}

	return &usecase.GoogleLoginOutput{FederatedID: *created.FederatedID, User: toUserView(created)}, nil
}

// createFederatedUser inserts the new federated account. A duplicate-key
// verdict means another invocation won the race; the winner's record is
// looked up and returned so concurrent first logins converge on one row.
func (srv *authService) createFederatedUser(ctx context.Context, input *usecase.GoogleLoginInput) (*entity.User, error) {
	srv.log(ctx).Info("Federated user not found, creating new user", slog.String("providerID", input.ProviderID))

	providerID := input.ProviderID
	newUser := &entity.User{
		Email:       input.Email,
		FederatedID: &providerID,
	}

	err := srv.userRepo.CreateFederated(ctx, newUser)
	if err == nil {
		return newUser, nil
	}

	if errors.Is(err, repository.ErrDuplicateFederatedID) {
		winner, findErr := srv.userRepo.FindByFederatedID(ctx, input.ProviderID)
		if findErr != nil {
			return nil, errors.Wrap(findErr, "failed to load federated user after create race")
		}

		return winner, nil
	}

	srv.log(ctx).Error("Failed to create federated user", slog.String("providerID", input.ProviderID), slog.Any("error", err))

	return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, "failed to create federated user")
}

// LoadSessionUser resolves a session principal back to the current user record.
func (srv *authService) LoadSessionUser(ctx context.Context, userID uuid.UUID) (*usecase.UserView, error) {
	user, err := srv.userRepo.FindForSession(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "session user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user for session")
	}

	return toUserView(user), nil
}

// toUserView maps a user entity to its sanitized projection.
// The password hash never crosses this boundary.
func toUserView(user *entity.User) *usecase.UserView {
	return &usecase.UserView{
		ID:          user.ID,
		Email:       user.Email,
		FederatedID: user.FederatedID,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		DeletedAt:   user.DeletedAt,
	}
}
