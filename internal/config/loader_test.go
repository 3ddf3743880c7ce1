package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/lootscale/internal/config"
	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LOOTSCALE_CASH_MULTIPLIER", "2.5")
			_ = os.Setenv("LOOTSCALE_SOFT_CAP", "20000")
			_ = os.Setenv("LOOTSCALE_DO_UNREAL_PAK", "true")
			_ = os.Setenv("LOOTSCALE_RULES__EXPEDITION_PREFIX", "Raid")
			_ = os.Setenv("LOOTSCALE_FIELDS__UNIT", "Count")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CashMultiplier, convey.ShouldEqual, 2.5)
				convey.So(cfg.SoftCap, convey.ShouldEqual, 20000)
				convey.So(cfg.DoUnrealPak, convey.ShouldBeTrue)
				convey.So(cfg.Rules.ExpeditionPrefix, convey.ShouldEqual, "Raid")
				convey.So(cfg.Rules.BlueprintPrefix, convey.ShouldEqual, "Blueprint")
				convey.So(cfg.Fields.Unit, convey.ShouldEqual, "Count")
				convey.So(cfg.Fields.Min, convey.ShouldEqual, "MinNum")
			})
		})

		convey.Convey("When list rules are set from environment variables", func() {
			_ = os.Setenv("LOOTSCALE_RULES__EXCLUSION_PREFIXES", "Dev, CharacterSpawn,Boss")
			_ = os.Setenv("LOOTSCALE_RULES__CURRENCY_SYMBOLS", "Money")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then the comma-separated values become the lists", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rules.ExclusionPrefixes, convey.ShouldResemble, []string{"Dev", "CharacterSpawn", "Boss"})
				convey.So(cfg.Rules.CurrencySymbols, convey.ShouldResemble, []string{"Money"})
				_, err = cfg.Validate()
				convey.So(err, convey.ShouldBeNil)

				c, err := cfg.Classifier()
				convey.So(err, convey.ShouldBeNil)
				d := c.Classify("Money", "DevSpawnReward")
				convey.So(d.Kind, convey.ShouldEqual, classify.Skip)
				convey.So(d.Excluded, convey.ShouldBeTrue)
				convey.So(c.Classify("Money", "Grass1").Kind, convey.ShouldEqual, classify.QuantityAdjustment)
			})
		})

		convey.Convey("When the currency list is set empty from the environment", func() {
			_ = os.Setenv("LOOTSCALE_RULES__CURRENCY_SYMBOLS", " , ")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then validation rejects it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Rules.CurrencySymbols, convey.ShouldBeEmpty)
				_, err = cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(t, "*.yaml", `
cash_multiplier: 2.0
expedition_drop_multiplier: 3.0
weight_multiplier: 0.5
soft_cap: 100
min_weight: 8.0
cash_chunk_amount: 50
table_name: DT_Custom
rules:
  exclusion_prefixes: [Tutorial]
`)

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CashMultiplier, convey.ShouldEqual, 2.0)
				convey.So(cfg.ExpeditionDropMultiplier, convey.ShouldEqual, 3.0)
				convey.So(cfg.WeightMultiplier, convey.ShouldEqual, 0.5)
				convey.So(cfg.SoftCap, convey.ShouldEqual, 100)
				convey.So(cfg.MinWeight, convey.ShouldEqual, 8.0)
				convey.So(cfg.CashChunkAmount, convey.ShouldEqual, 50)
				convey.So(cfg.TableName, convey.ShouldEqual, "DT_Custom")
				convey.So(cfg.Rules.ExclusionPrefixes, convey.ShouldResemble, []string{"Tutorial"})
				convey.So(cfg.Rules.CurrencySymbols, convey.ShouldResemble, []string{"Money", "DogCoin"})
			})
		})

		convey.Convey("When loading config with a JSON file named by the env var", func() {
			tmpFile := createTempConfigFile(t, "*.json", `{"cash_multiplier": 4, "engine_version": "VER_UE5_2"}`)
			_ = os.Setenv("LOOTSCALE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should parse the JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CashMultiplier, convey.ShouldEqual, 4)
				convey.So(cfg.EngineVersion, convey.ShouldEqual, "VER_UE5_2")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, "*.yaml", "cash_multiplier: 2.0\nsoft_cap: 100\n")
			_ = os.Setenv("LOOTSCALE_SOFT_CAP", "500")

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CashMultiplier, convey.ShouldEqual, 2.0)
				convey.So(cfg.SoftCap, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, "*.yaml", `invalid: yaml: content: [`)

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			cfg, err := config.Load(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid numeric environment variable", func() {
			_ = os.Setenv("LOOTSCALE_SOFT_CAP", "lots")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative multiplier", func() {
			_ = os.Setenv("LOOTSCALE_WEIGHT_MULTIPLIER", "-1")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then loading succeeds but validation rejects it", func() {
				convey.So(err, convey.ShouldBeNil)
				_, err = cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "LOOTSCALE_") {
			_ = os.Unsetenv(key)
		}
	}
}

func createTempConfigFile(t *testing.T, pattern, content string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "lootscale-config-"+pattern)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
