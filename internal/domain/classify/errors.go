package classify

import "errors"

// ErrInvalidRules marks an unusable rule set.
var ErrInvalidRules = errors.New("invalid classification rules")
