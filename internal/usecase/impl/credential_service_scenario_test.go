package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"secondchance/config"
	"secondchance/internal/domain/entity"
	domainerrors "secondchance/internal/domain/errors"
	"secondchance/internal/domain/repository"
	"secondchance/internal/domain/service"
	"secondchance/internal/infra/auth"
	"secondchance/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const scenarioSecret = "scenario_signing_secret"

// memoryUserRepository is a map-backed UserRepository that enforces email uniqueness
// the way the store's unique index does.
type memoryUserRepository struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	nextID int
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*entity.User)}
}

func (repo *memoryUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user

	return &clone, nil
}

func (repo *memoryUserRepository) Insert(_ context.Context, user *entity.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.users[user.Email]; exists {
		return repository.ErrDuplicateKey
	}
	repo.nextID++
	user.ID = fmt.Sprintf("%024x", repo.nextID)
	clone := *user
	repo.users[user.Email] = &clone

	return nil
}

func (repo *memoryUserRepository) UpdateByEmail(_ context.Context, email string, patch *entity.UserPatch) (*entity.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	patch.Apply(user)
	clone := *user

	return &clone, nil
}

func (repo *memoryUserRepository) stored(email string) entity.User {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return *repo.users[email]
}

func newScenarioService(t *testing.T) (usecase.CredentialUsecase, *memoryUserRepository) {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.JWT = scenarioSecret
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	repo := newMemoryUserRepository()

	return NewCredentialService(CredentialServiceParams{
		UserRepo:     repo,
		Hasher:       auth.NewBcryptHasherWithCost(bcrypt.MinCost),
		TokenService: tokenService,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}), repo
}

func tokenSubject(t *testing.T, token string) string {
	t.Helper()

	claims := &service.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(scenarioSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)

	return claims.User.ID
}

func TestCredentialScenario_RegisterLoginUpdate(t *testing.T) {
	svc, repo := newScenarioService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &usecase.RegisterInput{
		Email:     "alice@example.com",
		Password:  "secret123",
		FirstName: "Alice",
		LastName:  "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.Email)

	alice := repo.stored("alice@example.com")
	assert.Equal(t, alice.ID, tokenSubject(t, registered.Token))
	assert.NotEqual(t, "secret123", alice.PasswordHash)
	assert.NotContains(t, alice.PasswordHash, "secret123")
	assert.Nil(t, alice.UpdatedAt)

	loggedIn, err := svc.Login(ctx, &usecase.LoginInput{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", loggedIn.FirstName)
	assert.Equal(t, "alice@example.com", loggedIn.Email)
	assert.Equal(t, alice.ID, tokenSubject(t, loggedIn.Token))

	_, err = svc.Login(ctx, &usecase.LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &usecase.LoginInput{Email: "bob@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	_, err = svc.Register(ctx, &usecase.RegisterInput{Email: "alice@example.com", Password: "other"})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
	assert.Equal(t, alice.PasswordHash, repo.stored("alice@example.com").PasswordHash)

	firstName := "Alicia"
	updated, err := svc.UpdateProfile(ctx, &usecase.UpdateProfileInput{
		Email:     "alice@example.com",
		FirstName: &firstName,
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, tokenSubject(t, updated.Token))

	afterUpdate := repo.stored("alice@example.com")
	assert.Equal(t, "Alicia", afterUpdate.FirstName)
	assert.Equal(t, "A", afterUpdate.LastName)
	assert.Equal(t, alice.Email, afterUpdate.Email)
	assert.Equal(t, alice.PasswordHash, afterUpdate.PasswordHash)
	assert.Equal(t, alice.ID, afterUpdate.ID)
	require.NotNil(t, afterUpdate.UpdatedAt)
	assert.False(t, afterUpdate.UpdatedAt.Before(afterUpdate.CreatedAt))

	loggedIn, err = svc.Login(ctx, &usecase.LoginInput{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", loggedIn.FirstName)
}

func TestCredentialScenario_SamePasswordDistinctHashes(t *testing.T) {
	svc, repo := newScenarioService(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Register(ctx, &usecase.RegisterInput{Email: email, Password: "shared-password"})
		require.NoError(t, err)
	}

	assert.NotEqual(t, repo.stored("a@example.com").PasswordHash, repo.stored("b@example.com").PasswordHash)
}

func TestCredentialScenario_EmailIsCaseSensitive(t *testing.T) {
	svc, _ := newScenarioService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &usecase.RegisterInput{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &usecase.LoginInput{Email: "Alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestCredentialScenario_ConcurrentRegistrationsOfOneEmail(t *testing.T) {
	svc, _ := newScenarioService(t)
	ctx := context.Background()

	const attempts = 8

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := svc.Register(ctx, &usecase.RegisterInput{Email: "race@example.com", Password: "secret123"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++

			continue
		}
		assert.True(t, errors.Is(err, domainerrors.ErrDuplicateEmail), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}
