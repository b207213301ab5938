package domain

import "errors"

// Error kinds shared by the matching engine and the usecases. Callers wrap them
// with fmt.Errorf("%w: ...") and handlers match them with errors.Is.
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNotFound               = errors.New("not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConflict               = errors.New("conflict")
	ErrTimeout                = errors.New("timeout")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
)
