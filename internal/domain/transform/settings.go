package transform

import (
	"fmt"
	"math"
)

// Settings is the multiplier set for one run. It is passed by value and
// never mutated by the engine.
type Settings struct {
	CurrencyMultiplier   float64
	ExpeditionMultiplier float64
	WeightMultiplier     float64
	// SoftCap bounds every scaled quantity field. Must be positive.
	SoftCap int64
	// MinWeight floors scaled weights; <= 0 disables the floor.
	MinWeight float64
	// ChunkSize replaces currency unit counts; <= 0 disables quantization.
	ChunkSize int64
}

// Validate reports configuration errors the engine refuses to run with.
func (s Settings) Validate() error {
	multipliers := []struct {
		name  string
		value float64
	}{
		{"currency multiplier", s.CurrencyMultiplier},
		{"expedition multiplier", s.ExpeditionMultiplier},
		{"weight multiplier", s.WeightMultiplier},
	}
	for _, m := range multipliers {
		if m.value < 0 || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return fmt.Errorf("%w: %s must be a finite value >= 0, got %v", ErrInvalidSettings, m.name, m.value)
		}
	}
	if s.SoftCap <= 0 {
		return fmt.Errorf("%w: soft cap must be > 0, got %d", ErrInvalidSettings, s.SoftCap)
	}
	if math.IsNaN(s.MinWeight) {
		return fmt.Errorf("%w: min weight is NaN", ErrInvalidSettings)
	}
	return nil
}

// Schema names the row fields the engine reads and writes.
type Schema struct {
	Identity string `koanf:"identity"`
	Context  string `koanf:"context"`
	Weight   string `koanf:"weight"`
	Min      string `koanf:"min"`
	Max      string `koanf:"max"`
	Unit     string `koanf:"unit"`
}

// DefaultSchema returns the field names of the item lottery table.
func DefaultSchema() Schema {
	return Schema{
		Identity: "StaticItemId",
		Context:  "FieldName",
		Weight:   "WeightInSlot",
		Min:      "MinNum",
		Max:      "MaxNum",
		Unit:     "NumUnit",
	}
}

// Validate requires every field name and rejects a name shared by two roles.
func (s Schema) Validate() error {
	names := []struct{ role, name string }{
		{"identity", s.Identity},
		{"context", s.Context},
		{"weight", s.Weight},
		{"min", s.Min},
		{"max", s.Max},
		{"unit", s.Unit},
	}
	seen := make(map[string]string, len(names))
	for _, n := range names {
		if n.name == "" {
			return fmt.Errorf("%w: %s field name is empty", ErrInvalidSettings, n.role)
		}
		if other, ok := seen[n.name]; ok {
			return fmt.Errorf("%w: %s and %s both use field %q", ErrInvalidSettings, other, n.role, n.name)
		}
		seen[n.name] = n.role
	}
	return nil
}
