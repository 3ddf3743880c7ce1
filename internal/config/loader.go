package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "LOOTSCALE_"
	envFileVar = "LOOTSCALE_CONFIG"
)

// listKeys take comma-separated values when set from the environment.
var listKeys = map[string]bool{
	"rules.currency_symbols":   true,
	"rules.exclusion_prefixes": true,
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML, or JSON which YAML parses too) at path, else $LOOTSCALE_CONFIG
//  3. env (prefix LOOTSCALE_, "__" separates nested keys)
//
// The result is not validated; call Validate before using it.
func Load(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envFileVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LOOTSCALE_SOFT_CAP -> soft_cap, LOOTSCALE_RULES__EXPEDITION_PREFIX -> rules.expedition_prefix
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		if key == envFileVar {
			return "", nil
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "__", ".")
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	// Decoding into a populated slice keeps trailing defaults; lists replace.
	if k.Exists("rules.currency_symbols") {
		cfg.Rules.CurrencySymbols = k.Strings("rules.currency_symbols")
	}
	if k.Exists("rules.exclusion_prefixes") {
		cfg.Rules.ExclusionPrefixes = k.Strings("rules.exclusion_prefixes")
	}
	return cfg, nil
}

// splitList splits a comma-separated env value, dropping blank items.
func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
