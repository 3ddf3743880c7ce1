package walker

import "errors"

// ErrNilTable is returned when Walk is given no table.
var ErrNilTable = errors.New("nil table")
