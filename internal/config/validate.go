package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/transform"
)

// EngineVersions lists the engine versions the asset tooling understands.
var EngineVersions = []string{
	"VER_UE4_25", "VER_UE4_26", "VER_UE4_27",
	"VER_UE5_0", "VER_UE5_1", "VER_UE5_2", "VER_UE5_3", "VER_UE5_4",
}

// Validate checks the configuration, normalizes paths and corrects a
// non-positive soft cap. It returns human-readable warnings for corrected
// values; any error means the run must not start.
func (c *Config) Validate() ([]string, error) {
	var warnings []string

	multipliers := []struct {
		key   string
		value float64
	}{
		{"cash_multiplier", c.CashMultiplier},
		{"expedition_drop_multiplier", c.ExpeditionDropMultiplier},
		{"weight_multiplier", c.WeightMultiplier},
	}
	for _, m := range multipliers {
		if m.value < 0 || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return nil, fmt.Errorf("%w: %s must be >= 0, got %v (use 1.0 to leave values unchanged)", ErrInvalidConfig, m.key, m.value)
		}
	}
	if math.IsNaN(c.MinWeight) {
		return nil, fmt.Errorf("%w: min_weight is NaN", ErrInvalidConfig)
	}

	if c.SoftCap <= 0 {
		warnings = append(warnings, fmt.Sprintf("soft_cap %d is not positive; using %d", c.SoftCap, DefaultSoftCap))
		c.SoftCap = DefaultSoftCap
	}

	if !slices.Contains(EngineVersions, c.EngineVersion) {
		return nil, fmt.Errorf("%w: unknown engine_version %q", ErrInvalidConfig, c.EngineVersion)
	}
	if strings.TrimSpace(c.TableName) == "" {
		return nil, fmt.Errorf("%w: table_name must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.AssetName) == "" {
		return nil, fmt.Errorf("%w: asset_name must not be empty", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		warnings = append(warnings, fmt.Sprintf("workers %d is below 1; walking sequentially", c.Workers))
		c.Workers = 1
	}

	c.ExportsDir = trimSeparators(c.ExportsDir)
	c.AssetPath = trimSeparators(c.AssetPath)
	c.OutputDir = trimSeparators(c.OutputDir)
	c.UnrealPakDir = trimSeparators(c.UnrealPakDir)

	if c.OutputDir == "" && !c.DryRun {
		return nil, fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if c.DoUnrealPak && c.UnrealPakDir == "" {
		return nil, fmt.Errorf("%w: unreal_pak_dir is required when do_unreal_pak is set", ErrInvalidConfig)
	}

	if err := c.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Fields.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Settings().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return warnings, nil
}

// Classifier builds the row classifier from the configured rules.
func (c *Config) Classifier() (*classify.Classifier, error) {
	return classify.New(c.Rules)
}

// Transformer builds the row transformer from the configured settings, rules
// and field names.
func (c *Config) Transformer() (*transform.Transformer, error) {
	cl, err := c.Classifier()
	if err != nil {
		return nil, err
	}
	return transform.New(c.Settings(), cl, transform.WithSchema(c.Fields))
}

func trimSeparators(p string) string {
	return strings.TrimRight(strings.TrimSpace(p), `\/`)
}
