package mongo

import (
	"context"

	domainerrors "secondchance/internal/domain/errors"
	"secondchance/internal/errors"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// storeFailure converts a driver failure into the domain's StoreUnavailableError.
// The classification only feeds the log details; every kind maps to the same error.
func storeFailure(err error, operation string) error {
	return domainerrors.NewStoreUnavailableError(
		errors.Wrap(err, operation),
		operation+": "+classifyFailure(err),
	)
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded), mongodriver.IsTimeout(err):
		return "timeout"
	case mongodriver.IsNetworkError(err):
		return "network error"
	default:
		return "driver error"
	}
}
