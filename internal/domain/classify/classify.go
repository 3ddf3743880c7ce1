// Package classify decides which transformation, if any, a loot-table row
// receives based on its item identity and drop context.
package classify

import (
	"fmt"
	"slices"
	"strings"
)

// Kind enumerates classification outcomes.
type Kind uint8

const (
	Skip Kind = iota
	WeightAdjustment
	QuantityAdjustment
)

func (k Kind) String() string {
	switch k {
	case WeightAdjustment:
		return "weight"
	case QuantityAdjustment:
		return "quantity"
	default:
		return "skip"
	}
}

// Classification is the classifier's decision for one row.
type Classification struct {
	Kind Kind
	// Expedition selects the expedition multiplier for quantity rows.
	Expedition bool
	// Excluded marks quantity candidates dropped by an exclusion prefix.
	Excluded bool
}

// Rules holds the identity-matching literals. They are data so the decision
// table can be exercised and tuned without code changes.
type Rules struct {
	BlueprintPrefix  string   `koanf:"blueprint_prefix"`
	BlueprintSuffix  string   `koanf:"blueprint_suffix"`
	CurrencySymbols  []string `koanf:"currency_symbols"`
	ExpeditionPrefix string   `koanf:"expedition_prefix"`
	// ExclusionPrefixes are drop contexts the consuming game is unstable
	// with at large quantities. Treated as opaque configuration.
	ExclusionPrefixes []string `koanf:"exclusion_prefixes"`
}

// DefaultRules returns the literals used by the shipped item lottery table.
func DefaultRules() Rules {
	return Rules{
		BlueprintPrefix:   "Blueprint",
		BlueprintSuffix:   "_5",
		CurrencySymbols:   []string{"Money", "DogCoin"},
		ExpeditionPrefix:  "Expedition",
		ExclusionPrefixes: []string{"Dev", "CharacterSpawn"},
	}
}

// Validate rejects rule sets that would match every row.
func (r Rules) Validate() error {
	if r.BlueprintPrefix == "" || r.BlueprintSuffix == "" {
		return fmt.Errorf("%w: blueprint prefix and suffix are required", ErrInvalidRules)
	}
	if r.ExpeditionPrefix == "" {
		return fmt.Errorf("%w: expedition prefix is required", ErrInvalidRules)
	}
	if len(r.CurrencySymbols) == 0 {
		return fmt.Errorf("%w: at least one currency symbol is required", ErrInvalidRules)
	}
	if slices.Contains(r.CurrencySymbols, "") {
		return fmt.Errorf("%w: empty currency symbol", ErrInvalidRules)
	}
	if slices.Contains(r.ExclusionPrefixes, "") {
		return fmt.Errorf("%w: empty exclusion prefix", ErrInvalidRules)
	}
	return nil
}

// Classifier applies Rules to row identities. It is safe for concurrent use.
type Classifier struct {
	rules Rules
}

// New builds a Classifier over a copy of rules.
func New(rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	rules.CurrencySymbols = slices.Clone(rules.CurrencySymbols)
	rules.ExclusionPrefixes = slices.Clone(rules.ExclusionPrefixes)
	return &Classifier{rules: rules}, nil
}

// Classify evaluates the decision table in precedence order:
// blueprint weight rows, then currency or expedition quantity rows (unless
// excluded), then skip.
func (c *Classifier) Classify(identity, context string) Classification {
	if strings.HasPrefix(identity, c.rules.BlueprintPrefix) && strings.HasSuffix(identity, c.rules.BlueprintSuffix) {
		return Classification{Kind: WeightAdjustment}
	}

	expedition := strings.HasPrefix(context, c.rules.ExpeditionPrefix)
	if !expedition && !slices.Contains(c.rules.CurrencySymbols, identity) {
		return Classification{Kind: Skip}
	}
	if c.Excluded(context) {
		return Classification{Kind: Skip, Excluded: true}
	}
	return Classification{Kind: QuantityAdjustment, Expedition: expedition}
}

// Excluded reports whether context starts with any exclusion prefix.
func (c *Classifier) Excluded(context string) bool {
	for _, p := range c.rules.ExclusionPrefixes {
		if strings.HasPrefix(context, p) {
			return true
		}
	}
	return false
}

// Rules returns a copy of the classifier's rules.
func (c *Classifier) Rules() Rules {
	r := c.rules
	r.CurrencySymbols = slices.Clone(r.CurrencySymbols)
	r.ExclusionPrefixes = slices.Clone(r.ExclusionPrefixes)
	return r
}
