// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "secondchance/internal/delivery/context"
	"secondchance/internal/domain/entity"
	domainerrors "secondchance/internal/domain/errors"
	"secondchance/internal/domain/repository"
	"secondchance/internal/domain/service"
	"secondchance/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// credentialService implements the CredentialUsecase interface.
type credentialService struct {
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// CredentialServiceParams holds dependencies for CredentialService, injected by Fx.
type CredentialServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewCredentialService is the constructor for credentialService. It receives all dependencies as interfaces.
func NewCredentialService(params CredentialServiceParams) usecase.CredentialUsecase {
	return &credentialService{
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *credentialService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user record for an unused email and issues its first token.
// The lookup and the insert are not atomic; a store-level duplicate is reported the same way.
func (srv *credentialService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Debug("Starting registration", slog.String("email", input.Email))

	_, err := srv.userRepo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		srv.log(ctx).Warn("Email id already exists", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrDuplicateEmail, "registration failed")
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, errors.Wrap(err, "failed to look up existing user")
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &entity.User{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: passwordHash,
		CreatedAt:    srv.now(),
	}

	if err := srv.userRepo.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			srv.log(ctx).Warn("Email id already exists", slog.String("email", input.Email), slog.String("source", "store"))

			return nil, errors.Wrap(domainerrors.ErrDuplicateEmail, "registration failed")
		}

		return nil, errors.Wrap(err, "failed to insert user")
	}

	token, err := srv.tokenService.Issue(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	srv.log(ctx).Info("User registered successfully", slog.String("userID", user.ID))

	return &usecase.RegisterOutput{
		Token: token,
		Email: user.Email,
	}, nil
}

// Login verifies the password against the stored hash and issues a token.
func (srv *credentialService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Debug("Starting user login", slog.String("email", input.Email))

	user, err := srv.findUser(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "login failed")
	}

	matched, err := srv.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		srv.log(ctx).Error("Stored password hash rejected", slog.String("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "login failed")
	}
	if !matched {
		srv.log(ctx).Warn("Passwords do not match", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	token, err := srv.tokenService.Issue(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	srv.log(ctx).Info("User logged in successfully", slog.String("userID", user.ID))

	return &usecase.LoginOutput{
		Token:     token,
		FirstName: user.FirstName,
		Email:     user.Email,
	}, nil
}

// UpdateProfile changes the name fields of the user named by input.Email and issues a new token.
// The email is taken as asserted by the caller; no password or token is checked here.
func (srv *credentialService) UpdateProfile(ctx context.Context, input *usecase.UpdateProfileInput) (*usecase.UpdateProfileOutput, error) {
	if strings.TrimSpace(input.Email) == "" {
		srv.log(ctx).Warn("Email not found in the request headers")

		return nil, errors.WithStack(domainerrors.ErrMissingIdentity)
	}

	srv.log(ctx).Debug("Starting profile update", slog.String("email", input.Email))

	if _, err := srv.findUser(ctx, input.Email); err != nil {
		return nil, errors.Wrap(err, "profile update failed")
	}

	patch := &entity.UserPatch{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		UpdatedAt: srv.now(),
	}

	updated, err := srv.userRepo.UpdateByEmail(ctx, input.Email, patch)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("User not found", slog.String("email", input.Email), slog.String("stage", "update"))

			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "profile update failed")
		}

		return nil, errors.Wrap(err, "failed to update user")
	}

	token, err := srv.tokenService.Issue(updated.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	srv.log(ctx).Info("User updated successfully", slog.String("userID", updated.ID))

	return &usecase.UpdateProfileOutput{Token: token}, nil
}

// findUser loads a user by email, translating absence into the domain's not-found error.
func (srv *credentialService) findUser(ctx context.Context, email string) (*entity.User, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("User not found", slog.String("email", email))

			return nil, errors.WithStack(domainerrors.ErrUserNotFound)
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return user, nil
}
