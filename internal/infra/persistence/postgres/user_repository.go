package postgres

import (
	"context"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the repository.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindForLogin retrieves a user by email for credential verification.
// The password hash stays in the entity here; the application layer strips it
// before anything leaves the usecase boundary. Soft-deleted accounts cannot
// log in.
func (repo *userRepository) FindForLogin(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("email = ? AND deleted_at IS NULL", email).
		First(&userM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user for login")
	}

	return toUserDomain(&userM), nil
}

// FindForSession retrieves a user by id for an authenticated request.
func (repo *userRepository) FindForSession(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&userM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user for session")
	}

	user := toUserDomain(&userM)
	user.PasswordHash = nil

	return user, nil
}

// FindByEmail resolves an email to the owning local account's id. Email is
// only a unique key within local-credential rows, so federated accounts are
// out of scope here.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Select("id").
		Where("email = ? AND google_id IS NULL AND deleted_at IS NULL", email).
		First(&userM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, repository.ErrUserNotFound
		}

		return uuid.Nil, errors.Wrap(err, "failed to find user by email")
	}

	return userM.ID, nil
}

// FindByFederatedID retrieves a user by the identity provider's user id.
// Soft-deleted accounts are invisible here, same as the login lookups; a
// deleted account does not resurrect through a repeat federated sign-in.
func (repo *userRepository) FindByFederatedID(ctx context.Context, federatedID string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Where("google_id = ? AND deleted_at IS NULL", federatedID).
		First(&userM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by federated id")
	}

	user := toUserDomain(&userM)
	user.PasswordHash = nil

	return user, nil
}

// Create persists a new locally registered user. A unique-email violation is
// translated to the repository sentinel so the caller never needs a racy
// pre-check.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateEmail
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// CreateFederated persists a new user linked to an identity provider.
// Federated rows sit outside the partial email index, so the only unique
// constraint that can fire here is the provider id racing itself; the email
// may collide with any number of existing accounts.
func (repo *userRepository) CreateFederated(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)
	userM.PasswordHash = nil

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateFederatedID
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create federated user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// toUserDomain maps the persistence model back to a pure domain entity.
func toUserDomain(userM *model.UserModel) *entity.User {
	return &entity.User{
		ID:           userM.ID,
		Email:        userM.Email,
		PasswordHash: userM.PasswordHash,
		FederatedID:  userM.GoogleID,
		CreatedAt:    userM.CreatedAt,
		UpdatedAt:    userM.UpdatedAt,
		DeletedAt:    userM.DeletedAt,
	}
}

// fromUserDomain maps a domain entity to its GORM persistence model.
func fromUserDomain(user *entity.User) *model.UserModel {
	return &model.UserModel{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.FederatedID,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
		DeletedAt:    user.DeletedAt,
	}
}
