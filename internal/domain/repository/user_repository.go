// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"secondchance/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned when no stored user matches the email.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateKey is returned when the store itself rejects a second record for an email.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMalformedRecord is returned when a stored document lacks required fields.
	ErrMalformedRecord = errors.New("malformed user record")
)

// UserRepository is the gateway to the user collection. Implementations do not retry;
// transport failures surface as domain StoreUnavailableError values.
type UserRepository interface {
	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Insert persists a new user and sets its store-assigned ID.
	Insert(ctx context.Context, user *entity.User) error

	// UpdateByEmail applies the patch and returns the record as it is after the update.
	UpdateByEmail(ctx context.Context, email string, patch *entity.UserPatch) (*entity.User, error)
}
