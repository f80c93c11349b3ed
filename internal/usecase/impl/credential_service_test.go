package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"secondchance/internal/domain/entity"
	domainerrors "secondchance/internal/domain/errors"
	"secondchance/internal/domain/repository"
	mockRepo "secondchance/internal/mocks/repository"
	mockSvc "secondchance/internal/mocks/service"
	"secondchance/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// credentialServiceFixtures holds all test dependencies for credential service tests.
type credentialServiceFixtures struct {
	service      usecase.CredentialUsecase
	userRepo     *mockRepo.MockUserRepository
	hasher       *mockSvc.MockPasswordHasher
	tokenService *mockSvc.MockTokenService
}

func createTestCredentialService(t *testing.T) credentialServiceFixtures {
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokenService := mockSvc.NewMockTokenService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewCredentialService(CredentialServiceParams{
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokenService,
		Logger:       logger,
	})
	service.(*credentialService).now = func() time.Time { return fixedNow }

	return credentialServiceFixtures{
		service:      service,
		userRepo:     userRepo,
		hasher:       hasher,
		tokenService: tokenService,
	}
}

func storedAlice() *entity.User {
	return &entity.User{
		ID:           "65f1c0ffee00000000000001",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "A",
		PasswordHash: "$2a$10$storedhash",
		CreatedAt:    fixedNow.Add(-time.Hour),
	}
}

func strPtr(s string) *string {
	return &s
}

func TestCredentialService_Register_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().Hash("secret123").Return("$2a$10$newhash", nil)
	fx.userRepo.EXPECT().
		Insert(mock.Anything, mock.MatchedBy(func(u *entity.User) bool {
			return u.Email == "alice@example.com" &&
				u.FirstName == "Alice" &&
				u.LastName == "A" &&
				u.PasswordHash == "$2a$10$newhash" &&
				u.CreatedAt.Equal(fixedNow) &&
				u.UpdatedAt == nil
		})).
		Run(func(_ context.Context, u *entity.User) {
			u.ID = "65f1c0ffee00000000000001"
		}).
		Return(nil)
	fx.tokenService.EXPECT().Issue("65f1c0ffee00000000000001").Return("signed-token", nil)

	output, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Email:     "alice@example.com",
		Password:  "secret123",
		FirstName: "Alice",
		LastName:  "A",
	})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", output.Token)
	assert.Equal(t, "alice@example.com", output.Email)
}

func TestCredentialService_Register_DuplicateEmail(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(storedAlice(), nil)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "another",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
	fx.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	fx.userRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCredentialService_Register_StoreRejectsDuplicate(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().Hash("secret123").Return("$2a$10$newhash", nil)
	fx.userRepo.EXPECT().Insert(mock.Anything, mock.Anything).Return(errors.Wrap(repository.ErrDuplicateKey, "insert"))

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "secret123",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
	fx.tokenService.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestCredentialService_Register_StoreUnavailable(t *testing.T) {
	fx := createTestCredentialService(t)

	storeErr := domainerrors.NewStoreUnavailableError(context.DeadlineExceeded, "find user by email: timeout")
	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(nil, storeErr)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "secret123",
	})

	assert.Nil(t, output)
	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "STORE_UNAVAILABLE", appErr.ErrorCode())
	assert.NotErrorIs(t, err, domainerrors.ErrDuplicateEmail)
}

func TestCredentialService_Register_HashFailure(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().Hash(mock.Anything).Return("", domainerrors.ErrPasswordTooLong)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "secret123",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordTooLong)
}

func TestCredentialService_Register_TokenFailure(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(nil, repository.ErrUserNotFound)
	fx.hasher.EXPECT().Hash("secret123").Return("$2a$10$newhash", nil)
	fx.userRepo.EXPECT().Insert(mock.Anything, mock.Anything).
		Run(func(_ context.Context, u *entity.User) { u.ID = "id-1" }).
		Return(nil)
	fx.tokenService.EXPECT().Issue("id-1").Return("", domainerrors.ErrTokenIssueFailed)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Email:    "alice@example.com",
		Password: "secret123",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrTokenIssueFailed)
}

func TestCredentialService_Login_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	alice := storedAlice()

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(alice, nil)
	fx.hasher.EXPECT().Verify("secret123", alice.PasswordHash).Return(true, nil)
	fx.tokenService.EXPECT().Issue(alice.ID).Return("signed-token", nil)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", output.Token)
	assert.Equal(t, "Alice", output.FirstName)
	assert.Equal(t, "alice@example.com", output.Email)
}

func TestCredentialService_Login_UserNotFound(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "secret123",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestCredentialService_Login_WrongPassword(t *testing.T) {
	fx := createTestCredentialService(t)
	alice := storedAlice()

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(alice, nil)
	fx.hasher.EXPECT().Verify("wrong", alice.PasswordHash).Return(false, nil)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "wrong",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, domainerrors.ErrUserNotFound)
	fx.tokenService.AssertNotCalled(t, "Issue", mock.Anything)
}

func TestCredentialService_Login_MalformedHashIsNotWrongPassword(t *testing.T) {
	fx := createTestCredentialService(t)
	alice := storedAlice()
	alice.PasswordHash = "plaintext-left-by-a-bad-migration"

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(alice, nil)
	fx.hasher.EXPECT().Verify("secret123", alice.PasswordHash).
		Return(false, errors.Wrap(domainerrors.ErrHashFormat, "bcrypt"))

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "secret123",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrHashFormat)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.False(t, domainerrors.IsClientError(err))
}

func TestCredentialService_UpdateProfile_Success(t *testing.T) {
	fx := createTestCredentialService(t)
	alice := storedAlice()

	updated := storedAlice()
	updated.FirstName = "Alicia"
	updatedAt := fixedNow
	updated.UpdatedAt = &updatedAt

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(alice, nil)
	fx.userRepo.EXPECT().
		UpdateByEmail(mock.Anything, "alice@example.com", mock.MatchedBy(func(p *entity.UserPatch) bool {
			return p.FirstName != nil && *p.FirstName == "Alicia" &&
				p.LastName == nil &&
				p.UpdatedAt.Equal(fixedNow)
		})).
		Return(updated, nil)
	fx.tokenService.EXPECT().Issue(alice.ID).Return("fresh-token", nil)

	output, err := fx.service.UpdateProfile(context.Background(), &usecase.UpdateProfileInput{
		Email:     "alice@example.com",
		FirstName: strPtr("Alicia"),
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", output.Token)
}

func TestCredentialService_UpdateProfile_MissingIdentity(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "empty", email: ""},
		{name: "blank", email: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestCredentialService(t)

			output, err := fx.service.UpdateProfile(context.Background(), &usecase.UpdateProfileInput{
				Email:     tt.email,
				FirstName: strPtr("Alicia"),
			})

			assert.Nil(t, output)
			assert.ErrorIs(t, err, domainerrors.ErrMissingIdentity)
			fx.userRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestCredentialService_UpdateProfile_UserNotFound(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	output, err := fx.service.UpdateProfile(context.Background(), &usecase.UpdateProfileInput{
		Email:    "nobody@example.com",
		LastName: strPtr("B"),
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	fx.userRepo.AssertNotCalled(t, "UpdateByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestCredentialService_UpdateProfile_RecordVanishesBeforeUpdate(t *testing.T) {
	fx := createTestCredentialService(t)

	fx.userRepo.EXPECT().FindByEmail(mock.Anything, "alice@example.com").Return(storedAlice(), nil)
	fx.userRepo.EXPECT().UpdateByEmail(mock.Anything, "alice@example.com", mock.Anything).Return(nil, repository.ErrUserNotFound)

	output, err := fx.service.UpdateProfile(context.Background(), &usecase.UpdateProfileInput{
		Email:     "alice@example.com",
		FirstName: strPtr("Alicia"),
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
