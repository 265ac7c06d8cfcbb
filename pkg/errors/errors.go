package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidData       = errors.New("invalid data type")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnavailable       = errors.New("coordinator unavailable")
	ErrValidation        = errors.New("validation error")
)
