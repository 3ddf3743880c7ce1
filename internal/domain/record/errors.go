package record

import "errors"

// Sentinel kinds for field access errors.
var (
	ErrFieldNotFound = errors.New("field not found")
	ErrTypeMismatch  = errors.New("field type mismatch")
)
