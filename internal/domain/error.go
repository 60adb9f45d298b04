package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnsupportedModel    = errors.New("unsupported model")
	ErrMissingSourceImage  = errors.New("model requires a source image")
	ErrVendorNotConfigured = errors.New("vendor credentials not configured")
	ErrRateLimited         = errors.New("too many requests")
	ErrOperationFailed     = errors.New("operation failed")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrInvalidExecContext  = errors.New("invalid executor context")
)
