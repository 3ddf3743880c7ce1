package policy

import "errors"

// Sentinel kinds for policy errors.
var (
	ErrNegativeFactor = errors.New("scale factor must be non-negative")
	ErrInvalidCap     = errors.New("ceiling must be positive")
	ErrNotNumeric     = errors.New("value is not numeric")
)
