package record

import "fmt"

// Field is one named cell of a record.
type Field struct {
	Name  string
	Value Value
	// Property is the store's property-type label (e.g. "NameProperty").
	// The engine never reads it; stores round-trip it unchanged.
	Property string
}

// Record is one loot-table row: an ordered list of fields.
type Record struct {
	Name   string
	Fields []Field
}

// Table is an ordered sequence of records.
type Table struct {
	Name    string
	Records []*Record
}

func (r *Record) index(name string) int {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the record carries a field with the given name.
func (r *Record) Has(name string) bool {
	return r.index(name) >= 0
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (Value, error) {
	i := r.index(name)
	if i < 0 {
		return Value{}, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	return r.Fields[i].Value, nil
}

// Set replaces the value stored under name. The new value must have the
// same kind as the stored one; fields are never reinterpreted.
func (r *Record) Set(name string, v Value) error {
	i := r.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, name)
	}
	if have := r.Fields[i].Value.Kind(); have != v.Kind() {
		return fmt.Errorf("%w: field %q holds %s, got %s", ErrTypeMismatch, name, have, v.Kind())
	}
	r.Fields[i].Value = v
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	fields := make([]Field, len(r.Fields))
	copy(fields, r.Fields)
	return &Record{Name: r.Name, Fields: fields}
}

// Equal reports whether two records have the same name and identical fields
// in the same order.
func (r *Record) Equal(o *Record) bool {
	if r.Name != o.Name || len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		a, b := r.Fields[i], o.Fields[i]
		if a.Name != b.Name || a.Property != b.Property || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	records := make([]*Record, len(t.Records))
	for i, r := range t.Records {
		records[i] = r.Clone()
	}
	return &Table{Name: t.Name, Records: records}
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }
