package transform

import (
	"fmt"
	"strings"

	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/record"
)

// Adjustment flags how a field's new value was produced.
type Adjustment uint8

const (
	Scaled Adjustment = 1 << iota
	Capped
	Floored
	Quantized
)

func (a Adjustment) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		flag Adjustment
		name string
	}{
		{Scaled, "scaled"},
		{Capped, "capped"},
		{Floored, "floored"},
		{Quantized, "quantized"},
	} {
		if a&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "+")
}

// Has reports whether every flag in f is set.
func (a Adjustment) Has(f Adjustment) bool { return a&f == f }

// FieldChange is one written field.
type FieldChange struct {
	Field      string
	Old        record.Value
	New        record.Value
	Adjustment Adjustment
}

// Entry is the change report for one transformed record.
type Entry struct {
	Index          int
	Row            string
	ItemID         string
	Context        string
	Classification classify.Classification
	Changes        []FieldChange
}

// String renders the entry for logs.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "row=%d name=%s item=%s context=%s kind=%s", e.Index, e.Row, e.ItemID, e.Context, e.Classification.Kind)
	if e.Classification.Expedition {
		b.WriteString(" expedition")
	}
	for _, c := range e.Changes {
		fmt.Fprintf(&b, " %s: %s -> %s", c.Field, c.Old, c.New)
		if e.Classification.Kind == classify.WeightAdjustment {
			if old, ok := c.Old.Float(); ok && old != 0 {
				nv, _ := c.New.Float()
				fmt.Fprintf(&b, " (%+.2f%%)", (nv-old)/old*100)
			}
		}
		fmt.Fprintf(&b, " [%s]", c.Adjustment)
	}
	return b.String()
}
