// Package transform applies the weight and quantity rebalancing rules to a
// single loot-table record.
package transform

import (
	"fmt"

	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/policy"
	"github.com/okian/lootscale/internal/domain/record"
)

// contextFallback is reported for rows without a symbolic context field.
const contextFallback = "N/A"

// Option applies a configuration option to the Transformer.
type Option func(*Transformer)

// WithSchema overrides the row field names.
func WithSchema(schema Schema) Option {
	return func(t *Transformer) {
		t.schema = schema
	}
}

// Result is the outcome of transforming one record. Entry is nil for skipped
// rows.
type Result struct {
	Classification classify.Classification
	Entry          *Entry
}

// Transformer mutates records in place according to the classifier's
// decision. It holds only immutable state and is safe for concurrent use on
// distinct records.
type Transformer struct {
	settings   Settings
	schema     Schema
	classifier *classify.Classifier
}

// New validates settings and builds a Transformer.
func New(settings Settings, classifier *classify.Classifier, opts ...Option) (*Transformer, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrInvalidSettings)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	t := &Transformer{
		settings:   settings,
		schema:     DefaultSchema(),
		classifier: classifier,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.schema.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Settings returns the transformer's multiplier set.
func (t *Transformer) Settings() Settings { return t.settings }

// Schema returns the field names in use.
func (t *Transformer) Schema() Schema { return t.schema }

// Apply classifies r and applies the matching transformation. index is the
// record's position in its table and only serves diagnostics.
func (t *Transformer) Apply(index int, r *record.Record) (Result, error) {
	identity, ok := t.symbol(r, t.schema.Identity)
	if !ok {
		return Result{Classification: classify.Classification{Kind: classify.Skip}}, nil
	}
	context, ok := t.symbol(r, t.schema.Context)
	if !ok {
		context = contextFallback
	}

	c := t.classifier.Classify(identity, context)
	entry := &Entry{
		Index:          index,
		Row:            r.Name,
		ItemID:         identity,
		Context:        context,
		Classification: c,
	}

	var err error
	switch c.Kind {
	case classify.WeightAdjustment:
		err = t.adjustWeight(r, entry)
	case classify.QuantityAdjustment:
		err = t.adjustQuantity(r, entry)
	default:
		return Result{Classification: c}, nil
	}
	if err != nil {
		return Result{Classification: c}, err
	}
	return Result{Classification: c, Entry: entry}, nil
}

func (t *Transformer) symbol(r *record.Record, name string) (string, bool) {
	v, err := r.Get(name)
	if err != nil {
		return "", false
	}
	return v.Symbol()
}

func (t *Transformer) rowError(e *Entry, field string, err error) error {
	return &RowError{
		Index:   e.Index,
		Row:     e.Row,
		ItemID:  e.ItemID,
		Context: e.Context,
		Field:   field,
		Err:     err,
	}
}

// adjustWeight scales the weight and applies the minimum-weight floor. The
// float kind is preserved: single-precision tables stay single precision.
func (t *Transformer) adjustWeight(r *record.Record, e *Entry) error {
	field := t.schema.Weight
	old, err := r.Get(field)
	if err != nil {
		return t.rowError(e, field, err)
	}
	if k := old.Kind(); k != record.KindSingle && k != record.KindDouble {
		return t.rowError(e, field, fmt.Errorf("%w: want single or double, got %s", ErrUnexpectedFieldType, k))
	}

	scaled, err := policy.Scale(old, t.settings.WeightMultiplier)
	if err != nil {
		return t.rowError(e, field, err)
	}
	floored, clamped, err := policy.ClampFloor(scaled, t.settings.MinWeight)
	if err != nil {
		return t.rowError(e, field, err)
	}
	if err := r.Set(field, floored); err != nil {
		return t.rowError(e, field, err)
	}

	adj := Scaled
	if clamped {
		adj |= Floored
	}
	e.Changes = append(e.Changes, FieldChange{Field: field, Old: old, New: floored, Adjustment: adj})
	return nil
}

// adjustQuantity moves the min/max/unit triple together. All three fields
// are checked before anything is written so a bad row is never half-applied.
func (t *Transformer) adjustQuantity(r *record.Record, e *Entry) error {
	fields := [3]string{t.schema.Min, t.schema.Max, t.schema.Unit}
	var olds [3]record.Value
	for i, name := range fields {
		v, err := r.Get(name)
		if err != nil {
			return t.rowError(e, name, err)
		}
		if v.Kind() != record.KindInteger {
			return t.rowError(e, name, fmt.Errorf("%w: want integer, got %s", ErrUnexpectedFieldType, v.Kind()))
		}
		olds[i] = v
	}

	multiplier := t.settings.CurrencyMultiplier
	if e.Classification.Expedition {
		multiplier = t.settings.ExpeditionMultiplier
	}

	changes := make([]FieldChange, 0, len(fields))
	for i, name := range fields[:2] {
		nv, adj, err := t.scaleCapped(olds[i], multiplier)
		if err != nil {
			return t.rowError(e, name, err)
		}
		changes = append(changes, FieldChange{Field: name, Old: olds[i], New: nv, Adjustment: adj})
	}

	unit := fields[2]
	switch chunk, ok := policy.Quantize(t.settings.ChunkSize); {
	case e.Classification.Expedition:
		nv, adj, err := t.scaleCapped(olds[2], multiplier)
		if err != nil {
			return t.rowError(e, unit, err)
		}
		changes = append(changes, FieldChange{Field: unit, Old: olds[2], New: nv, Adjustment: adj})
	case ok:
		nv, capped, err := policy.ClampCeiling(record.Int(chunk), t.settings.SoftCap)
		if err != nil {
			return t.rowError(e, unit, err)
		}
		adj := Quantized
		if capped {
			adj |= Capped
		}
		changes = append(changes, FieldChange{Field: unit, Old: olds[2], New: nv, Adjustment: adj})
	}

	for _, c := range changes {
		if err := r.Set(c.Field, c.New); err != nil {
			return t.rowError(e, c.Field, err)
		}
	}
	e.Changes = append(e.Changes, changes...)
	return nil
}

func (t *Transformer) scaleCapped(v record.Value, multiplier float64) (record.Value, Adjustment, error) {
	scaled, err := policy.Scale(v, multiplier)
	if err != nil {
		return v, 0, err
	}
	capped, clamped, err := policy.ClampCeiling(scaled, t.settings.SoftCap)
	if err != nil {
		return v, 0, err
	}
	adj := Scaled
	if clamped {
		adj |= Capped
	}
	return capped, adj, nil
}
