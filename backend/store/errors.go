package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skillhub/backend/apperr"

	"gorm.io/gorm"
)

// translate maps a gorm/driver error onto the application taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s not found", what)
	case isUniqueViolation(err):
		return apperr.Conflict(fmt.Errorf("%s already exists", what))
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Timeout(fmt.Errorf("%s: %w", what, err))
	default:
		return apperr.StoreUnavailable(fmt.Errorf("%s: %w", what, err))
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
