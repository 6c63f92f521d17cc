package errors

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed         = errors.New("record store fetch failed")
	ErrListingNotFound     = errors.New("listing not found")
	ErrImportNotFound      = errors.New("import file not found")
	ErrNotOwner            = errors.New("listing belongs to another user")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidFileFormat   = errors.New("invalid file format")
	ErrSchemaValidation    = errors.New("schema validation failed")
	ErrMirrorRejected      = errors.New("spreadsheet mirror rejected the row")
	ErrUnknownSortField    = errors.New("unknown sort field")
	ErrUnsupportedField    = errors.New("unsupported filter field")
	ErrMirrorNotConfigured = errors.New("spreadsheet mirror webhook is not configured")
	ErrPoolClosed          = errors.New("worker pool is closed")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrSchemaValidation
}

type RetryableError struct {
	Err     error
	Message string
}

func (e RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %s - %s", e.Message, e.Err.Error())
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error, message string) error {
	return RetryableError{
		Err:     err,
		Message: message,
	}
}

// IsRetryable reports whether err (or anything it wraps) is a RetryableError.
func IsRetryable(err error) bool {
	var re RetryableError
	return errors.As(err, &re)
}
