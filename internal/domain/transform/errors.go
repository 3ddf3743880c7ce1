package transform

import (
	"errors"
	"fmt"

	"github.com/okian/lootscale/internal/domain/record"
)

// Sentinel kinds for transformation errors.
var (
	ErrInvalidSettings     = errors.New("invalid transform settings")
	ErrUnexpectedFieldType = errors.New("unexpected field type")
	ErrFieldNotFound       = record.ErrFieldNotFound
)

// RowError identifies the record a transformation failed on.
type RowError struct {
	Index   int
	Row     string
	ItemID  string
	Context string
	Field   string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s) item=%q context=%q field=%q: %v",
		e.Index, e.Row, e.ItemID, e.Context, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
