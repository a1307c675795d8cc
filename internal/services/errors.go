package services

import (
	"errors"
	"fmt"

	"site_stores_backend/internal/repositories"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrFIFOExhausted means the stock level and the FIFO batches disagree. It is a data-integrity
	// alarm, never a user error.
	ErrFIFOExhausted    = errors.New("fifo batches exhausted before issue was satisfied")
	ErrRequestNotFound  = errors.New("request not found")
	ErrAlreadyProcessed = errors.New("request already processed")
	ErrSiteNotFound     = errors.New("site not found")
	ErrMaterialNotFound = errors.New("material not found")
	ErrForbidden        = errors.New("not allowed for this site")
	ErrDuplicateName    = errors.New("name already exists")
	ErrSiteInUse        = errors.New("site is still referenced")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mapNotFound swaps a repository ErrNotFound for the given service error and passes
// anything else through.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound
	}
	return err
}
