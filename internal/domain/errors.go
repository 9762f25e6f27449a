package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	ErrValidation       = errors.New("validation failed")
	ErrNetwork          = errors.New("upstream unavailable")
	ErrPermission       = errors.New("permission denied")
	ErrAlreadyClaimed   = errors.New("request already claimed")
	ErrLocationRequired = errors.New("location required")
)

// ValidationError reports the first field constraint an input violated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }
