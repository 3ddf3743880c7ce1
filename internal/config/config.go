// Package config defines lootscale configuration and how it is loaded.
//
// Conventions:
// - New() returns the defaults; Load layers a file and the environment on top.
// - Validate runs before any record is touched.
// - Engine values (settings, rules, schema) are derived as immutable copies.
package config

import (
	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/transform"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// EngineVersion is the Unreal Engine version the asset was cooked with.
	EngineVersion string `koanf:"engine_version"`
	// TableName is the export object name of the data table to rewrite.
	TableName string `koanf:"table_name"`
	// ExportsDir is the root of the exported game content.
	ExportsDir string `koanf:"exports_dir"`
	// AssetPath is the in-game asset directory, e.g. "Pal/Content/Pal/DataTable/ItemLottery".
	AssetPath string `koanf:"asset_path"`
	// AssetName is the asset file name.
	AssetName string `koanf:"asset_name"`
	// OutputDir receives the rewritten asset under AssetPath.
	OutputDir string `koanf:"output_dir"`

	// DoUnrealPak packages OutputDir after writing.
	DoUnrealPak bool `koanf:"do_unreal_pak"`
	// UnrealPakDir holds UnrealPak.exe; required when DoUnrealPak is set.
	UnrealPakDir string `koanf:"unreal_pak_dir"`

	CashMultiplier           float64 `koanf:"cash_multiplier"`
	ExpeditionDropMultiplier float64 `koanf:"expedition_drop_multiplier"`
	WeightMultiplier         float64 `koanf:"weight_multiplier"`
	// SoftCap bounds scaled quantities; non-positive values fall back to DefaultSoftCap.
	SoftCap int64 `koanf:"soft_cap"`
	// MinWeight floors scaled blueprint weights; <= 0 disables the floor.
	MinWeight float64 `koanf:"min_weight"`
	// CashChunkAmount replaces currency unit counts; <= 0 disables chunking.
	CashChunkAmount int64 `koanf:"cash_chunk_amount"`

	// Workers > 1 walks the table concurrently.
	Workers int `koanf:"workers"`
	// DryRun transforms and reports without writing output or packaging.
	DryRun bool `koanf:"dry_run"`
	// AuditDB is a SQLite path recording every run; empty disables auditing.
	AuditDB string `koanf:"audit_db"`
	// MetricsTextfile is a node_exporter textfile path; empty disables it.
	MetricsTextfile string `koanf:"metrics_textfile"`

	Rules  classify.Rules   `koanf:"rules"`
	Fields transform.Schema `koanf:"fields"`
}

// DefaultSoftCap replaces a non-positive soft cap. The game has been observed
// to stay stable with quantities around this value.
const DefaultSoftCap = 15000

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		EngineVersion:            "VER_UE5_1",
		TableName:                "DT_ItemLotteryData",
		AssetName:                "DT_ItemLotteryData.uasset.json",
		OutputDir:                "out",
		CashMultiplier:           1.0,
		ExpeditionDropMultiplier: 1.0,
		WeightMultiplier:         1.0,
		SoftCap:                  DefaultSoftCap,
		Workers:                  1,
		Rules:                    classify.DefaultRules(),
		Fields:                   transform.DefaultSchema(),
	}
}

// Settings derives the engine multiplier set.
func (c *Config) Settings() transform.Settings {
	return transform.Settings{
		CurrencyMultiplier:   c.CashMultiplier,
		ExpeditionMultiplier: c.ExpeditionDropMultiplier,
		WeightMultiplier:     c.WeightMultiplier,
		SoftCap:              c.SoftCap,
		MinWeight:            c.MinWeight,
		ChunkSize:            c.CashChunkAmount,
	}
}
