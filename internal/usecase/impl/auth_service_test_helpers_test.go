package impl

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/errors"
	"gatehouse/internal/usecase"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory user store. Inserts are arbitrated under a
// single mutex, mirroring the database's constraints: email is unique only
// among local-credential rows (the partial index), the federated id is
// unique across all rows including soft-deleted ones.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) FindForLogin(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			copied := *u

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindForSession(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, repository.ErrUserNotFound
	}

	copied := *u
	copied.PasswordHash = nil

	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email && u.FederatedID == nil && u.DeletedAt == nil {
			return u.ID, nil
		}
	}

	return uuid.Nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByFederatedID(_ context.Context, federatedID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.FederatedID != nil && *u.FederatedID == federatedID && u.DeletedAt == nil {
			copied := *u
			copied.PasswordHash = nil

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email && u.FederatedID == nil {
			return repository.ErrDuplicateEmail
		}
	}

	return r.insertLocked(user)
}

func (r *fakeUserRepo) CreateFederated(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.FederatedID != nil && user.FederatedID != nil && *u.FederatedID == *user.FederatedID {
			return repository.ErrDuplicateFederatedID
		}
	}

	return r.insertLocked(user)
}

func (r *fakeUserRepo) insertLocked(user *entity.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()

	copied := *user
	r.users[user.ID] = &copied

	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.users)
}

// softDelete marks a user as deleted in place, keeping the row around the
// way the database's soft-delete column does.
func (r *fakeUserRepo) softDelete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.DeletedAt = &now
	}
}

type fakeSessionEntry struct {
	payload   []byte
	expiresAt time.Time
}

// fakeSessionStore is an in-memory session cache with a manual clock so tests
// can cross TTL boundaries without sleeping.
type fakeSessionStore struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]fakeSessionEntry
	failSet bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		now:     time.Now(),
		entries: make(map[string]fakeSessionEntry),
	}
}

func (s *fakeSessionStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSet {
		return errors.New("cache unavailable")
	}

	copied := make([]byte, len(payload))
	copy(copied, payload)

	s.entries[key] = fakeSessionEntry{
		payload:   copied,
		expiresAt: s.now.Add(ttl),
	}

	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !s.now.Before(entry.expiresAt) {
		delete(s.entries, key)

		return nil, repository.ErrSessionNotFound
	}

	return entry.payload, nil
}

func (s *fakeSessionStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = s.now.Add(d)
}

// fakeHasher produces inspectable hashes of the form "hashed:<cost>:<password>".
type fakeHasher struct {
	mu       sync.Mutex
	lastCost int
	failHash bool
}

func (h *fakeHasher) Hash(password string, cost int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failHash {
		return "", errors.New("hasher unavailable")
	}

	h.lastCost = cost

	return "hashed:" + strconv.Itoa(cost) + ":" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	parts := strings.SplitN(hash, ":", 3)

	return len(parts) == 3 && parts[0] == "hashed" && parts[2] == password
}

func (h *fakeHasher) lastUsedCost() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.lastCost
}

type fakeCostProvider struct {
	cost int
}

func (p *fakeCostProvider) HashCost() int {
	return p.cost
}

type authTestFixture struct {
	uc           usecase.AuthUsecase
	userRepo     *fakeUserRepo
	sessionStore *fakeSessionStore
	hasher       *fakeHasher
}

func newAuthTestFixture(hashCost int) *authTestFixture {
	userRepo := newFakeUserRepo()
	sessionStore := newFakeSessionStore()
	hasher := &fakeHasher{}

	uc := NewAuthService(AuthServiceParams{
		UserRepo:     userRepo,
		SessionStore: sessionStore,
		Hasher:       hasher,
		CostProvider: &fakeCostProvider{cost: hashCost},
		Logger:       newDiscardLogger(),
	})

	return &authTestFixture{
		uc:           uc,
		userRepo:     userRepo,
		sessionStore: sessionStore,
		hasher:       hasher,
	}
}

// seedLocalUser inserts a local-credential user directly into the fake store.
func (f *authTestFixture) seedLocalUser(email, password string) uuid.UUID {
	hash, _ := f.hasher.Hash(password, 10)
	user := &entity.User{
		Email:        email,
		PasswordHash: &hash,
	}
	_ = f.userRepo.Create(context.Background(), user)

	return user.ID
}
