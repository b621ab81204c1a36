package service

import (
	"errors"
	"fmt"

	"github.com/wenwu/saas-platform/directory-service/internal/repository"
)

// Error kinds surfaced to the HTTP boundary. Callers match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrNoEligibleProvider = errors.New("no eligible provider")
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// notFoundOr translates repository.ErrNotFound into the service kind and
// wraps anything else with op context.
func notFoundOr(err error, op, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
