// Package policy implements the numeric transformations applied to loot
// table fields. Every function is pure and returns its result in the kind of
// its input; no function converts between kinds.
package policy

import (
	"fmt"
	"math"

	"github.com/okian/lootscale/internal/domain/record"
)

// Scale multiplies v by factor. Integers are truncated toward zero and
// saturate at the int64 range; a whole factor multiplies them exactly.
// Singles are scaled in single precision.
func Scale(v record.Value, factor float64) (record.Value, error) {
	if factor < 0 || math.IsNaN(factor) {
		return v, fmt.Errorf("%w: %v", ErrNegativeFactor, factor)
	}
	switch v.Kind() {
	case record.KindInteger:
		i, _ := v.Int()
		if factor == math.Trunc(factor) && factor < wholeFactorLimit {
			return record.Int(multiply(i, int64(factor))), nil
		}
		return record.Int(truncate(float64(i) * factor)), nil
	case record.KindSingle:
		f, _ := v.Single()
		return record.Single(f * float32(factor)), nil
	case record.KindDouble:
		d, _ := v.Double()
		return record.Double(d * factor), nil
	default:
		return v, fmt.Errorf("%w: %s", ErrNotNumeric, v.Kind())
	}
}

// ClampFloor raises v to floor when v is below it. A non-positive floor
// disables the clamp.
func ClampFloor(v record.Value, floor float64) (record.Value, bool, error) {
	if floor <= 0 {
		if !v.Kind().Numeric() {
			return v, false, fmt.Errorf("%w: %s", ErrNotNumeric, v.Kind())
		}
		return v, false, nil
	}
	switch v.Kind() {
	case record.KindInteger:
		i, _ := v.Int()
		if float64(i) < floor {
			return record.Int(int64(math.Ceil(floor))), true, nil
		}
	case record.KindSingle:
		f, _ := v.Single()
		if float64(f) < floor {
			return record.Single(float32(floor)), true, nil
		}
	case record.KindDouble:
		d, _ := v.Double()
		if d < floor {
			return record.Double(floor), true, nil
		}
	default:
		return v, false, fmt.Errorf("%w: %s", ErrNotNumeric, v.Kind())
	}
	return v, false, nil
}

// ClampCeiling lowers v to limit when v exceeds it. The limit is always
// enforced, so a non-positive limit is rejected.
func ClampCeiling(v record.Value, limit int64) (record.Value, bool, error) {
	if limit <= 0 {
		return v, false, fmt.Errorf("%w: %d", ErrInvalidCap, limit)
	}
	switch v.Kind() {
	case record.KindInteger:
		i, _ := v.Int()
		if i > limit {
			return record.Int(limit), true, nil
		}
	case record.KindSingle:
		f, _ := v.Single()
		if float64(f) > float64(limit) {
			return record.Single(float32(limit)), true, nil
		}
	case record.KindDouble:
		d, _ := v.Double()
		if d > float64(limit) {
			return record.Double(float64(limit)), true, nil
		}
	default:
		return v, false, fmt.Errorf("%w: %s", ErrNotNumeric, v.Kind())
	}
	return v, false, nil
}

// Quantize returns the chunk a quantity is replaced with. The second result
// is false when chunk is non-positive and the caller must leave the field
// alone. Quantization replaces the value outright; it does not round.
func Quantize(chunk int64) (int64, bool) {
	if chunk <= 0 {
		return 0, false
	}
	return chunk, true
}

// wholeFactorLimit bounds the whole factors multiplied in integer arithmetic.
const wholeFactorLimit = 1 << 62

// multiply returns a*b saturated at the int64 range. b must not be negative.
func multiply(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b == a {
		return p
	}
	if a < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}

func truncate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
