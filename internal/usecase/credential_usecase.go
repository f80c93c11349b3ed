// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import "context"

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput carries the caller-asserted identity and the name fields to change.
// A nil field is left untouched.
type UpdateProfileInput struct {
	Email     string
	FirstName *string
	LastName  *string
}

// --- Output DTOs ---

// RegisterOutput returns the session token for the newly created user.
type RegisterOutput struct {
	Token string
	Email string
}

// LoginOutput returns the session token and the display data of the authenticated user.
type LoginOutput struct {
	Token     string
	FirstName string
	Email     string
}

// UpdateProfileOutput returns a fresh session token for the updated user.
type UpdateProfileOutput struct {
	Token string
}

// CredentialUsecase defines the register, login and profile update operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type CredentialUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UpdateProfileOutput, error)
}
