package room

import "errors"

// Failures reported by room operations. Messages are wrapped around these
// with fmt.Errorf so callers classify with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrAuth                = errors.New("not authorized")
	ErrInvalidState        = errors.New("invalid state")
	ErrTiming              = errors.New("stage not open")
	ErrValidation          = errors.New("invalid input")
	ErrDuplicateSubmission = errors.New("result already submitted")
)

// ErrConflict is returned by Repository.Save when the stored version moved on.
var ErrConflict = errors.New("room modified concurrently")
