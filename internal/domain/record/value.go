// Package record contains the table model the engine mutates: tagged values,
// named fields, records and tables.
package record

import (
	"math"
	"strconv"
)

// Kind enumerates the closed set of value kinds a field can hold.
type Kind uint8

// Supported value kinds. KindInvalid is the zero Value.
const (
	KindInvalid Kind = iota
	KindInteger
	KindSingle
	KindDouble
	KindSymbol
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindSingle:
		return "single"
	case KindDouble:
		return "double"
	case KindSymbol:
		return "symbol"
	default:
		return "invalid"
	}
}

// Numeric reports whether values of this kind take part in arithmetic.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindSingle || k == KindDouble
}

// Value is a tagged union over integer, single, double and symbol values.
// Only the payload matching kind is meaningful.
type Value struct {
	kind Kind
	i    int64
	f32  float32
	f64  float64
	s    string
}

// Int builds an integer value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Single builds a single-precision float value.
func Single(v float32) Value { return Value{kind: KindSingle, f32: v} }

// Double builds a double-precision float value.
func Double(v float64) Value { return Value{kind: KindDouble, f64: v} }

// Symbol builds a symbolic name value.
func Symbol(v string) Value { return Value{kind: KindSymbol, s: v} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload and true when the value is an integer.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// Single returns the float32 payload and true when the value is a single.
func (v Value) Single() (float32, bool) {
	if v.kind != KindSingle {
		return 0, false
	}
	return v.f32, true
}

// Double returns the float64 payload and true when the value is a double.
func (v Value) Double() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.f64, true
}

// Float widens any float kind to float64 for reading. Integers and symbols
// report false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindSingle:
		return float64(v.f32), true
	case KindDouble:
		return v.f64, true
	default:
		return 0, false
	}
}

// Symbol returns the string payload and true when the value is a symbol.
func (v Value) Symbol() (string, bool) {
	if v.kind != KindSymbol {
		return "", false
	}
	return v.s, true
}

// Equal reports whether two values have the same kind and payload.
// NaN floats compare by bit pattern so a value always equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindSingle:
		return math.Float32bits(v.f32) == math.Float32bits(o.f32)
	case KindDouble:
		return math.Float64bits(v.f64) == math.Float64bits(o.f64)
	case KindSymbol:
		return v.s == o.s
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindSingle:
		return strconv.FormatFloat(float64(v.f32), 'f', 2, 32)
	case KindDouble:
		return strconv.FormatFloat(v.f64, 'f', 2, 64)
	case KindSymbol:
		return v.s
	default:
		return "<invalid>"
	}
}
