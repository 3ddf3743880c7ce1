// Package tablegen builds synthetic item lottery documents for smoke testing
// the rebalancing engine.
package tablegen

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/lootscale/internal/adapters/store"
	"github.com/okian/lootscale/pkg/logger"
)

// ErrInvalidConfig is returned for non-positive row or worker counts.
var ErrInvalidConfig = errors.New("invalid generator config")

// archetype is the kind of row generated at a given index.
type archetype int

const (
	currencyRow archetype = iota
	expeditionRow
	excludedRow
	blueprintRow
	unrelatedRow
	dogCoinRow
	archetypeCount
)

var (
	contexts         = []string{"Grass1", "Desert_Boss", "Forest_Treasure", "Volcano2"}
	expeditionNames  = []string{"Expedition_Desert", "Expedition_Snow", "Expedition_Sea"}
	excludedContexts = []string{"DevSpawnReward", "CharacterSpawn_Test"}
	blueprintNames   = []string{"Blueprint_Sword_5", "Blueprint_Bow_5", "Blueprint_Armor_5"}
	unrelatedItems   = []string{"Wood", "Stone", "Berries", "Blueprint_Sword_3"}
)

// randomInt returns a uniform integer in [0, n).
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// randomFloat returns a float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	return float64(randomInt(randomDivisor)) / float64(randomDivisor)
}

func pick(values []string) string {
	return values[randomInt(int64(len(values)))]
}

// Generate builds a document holding cfg.Rows rows. Rows cycle through the
// archetypes by index so every class the engine distinguishes is present.
func Generate(ctx context.Context, cfg Config) (*store.Document, Stats, error) {
	if cfg.Rows <= 0 || cfg.Workers <= 0 {
		return nil, Stats{}, fmt.Errorf("%w: rows=%d workers=%d", ErrInvalidConfig, cfg.Rows, cfg.Workers)
	}
	logger.Get().Info(ctx, "generating loot table", logger.Int("rows", cfg.Rows), logger.Int("workers", cfg.Workers))

	rows := make([]store.Row, cfg.Rows)
	names := make([]string, cfg.Rows)
	for i := range names {
		if cfg.UUIDNames {
			names[i] = uuid.NewString()
		} else {
			names[i] = strconv.Itoa(i + 1)
		}
	}

	type result struct {
		index int
		err   error
	}
	resultChan := make(chan result, cfg.Rows)

	workerCount := min(cfg.Workers, cfg.Rows)
	rowsPerWorker := cfg.Rows / workerCount
	for worker := 0; worker < workerCount; worker++ {
		start := worker * rowsPerWorker
		end := start + rowsPerWorker
		if worker == workerCount-1 {
			end = cfg.Rows // Last worker gets remaining rows
		}
		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- result{index: i, err: ctx.Err()}
					return
				default:
					rows[i] = generateRow(i, names[i])
					resultChan <- result{index: i}
				}
			}
		}(start, end)
	}

	for i := 0; i < cfg.Rows; i++ {
		select {
		case <-ctx.Done():
			return nil, Stats{}, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case r := <-resultChan:
			if r.err != nil {
				return nil, Stats{}, fmt.Errorf("generate row %d: %w", r.index, r.err)
			}
		}
	}

	stats := Stats{Rows: cfg.Rows}
	for i := range rows {
		switch archetype(i) % archetypeCount {
		case currencyRow, dogCoinRow:
			stats.Currency++
		case expeditionRow:
			stats.Expedition++
		case excludedRow:
			stats.Excluded++
		case blueprintRow:
			stats.Blueprint++
		default:
			stats.Unrelated++
		}
	}

	doc := &store.Document{
		EngineVersion: cfg.EngineVersion,
		Exports: []store.Export{
			{ObjectName: "Default__" + cfg.Table, Class: "NormalExport"},
			{ObjectName: cfg.Table, Class: store.DataTableClass, Rows: rows},
		},
	}
	logger.Get().Info(ctx, "generated loot table", logger.Int("rows", len(rows)))
	return doc, stats, nil
}

func generateRow(index int, name string) store.Row {
	var item, drop string
	switch archetype(index) % archetypeCount {
	case currencyRow:
		item, drop = "Money", pick(contexts)
	case dogCoinRow:
		item, drop = "DogCoin", pick(contexts)
	case expeditionRow:
		item, drop = pick(unrelatedItems), pick(expeditionNames)
	case excludedRow:
		item, drop = "Money", pick(excludedContexts)
	case blueprintRow:
		item, drop = pick(blueprintNames), pick(contexts)
	default:
		item, drop = pick(unrelatedItems), pick(contexts)
	}

	minNum := 1 + randomInt(minNumMax)
	maxNum := minNum + randomInt(maxNumSpread)
	unit := 1 + randomInt(unitMax)
	weight := float32(weightMin + randomFloat()*weightRange)

	return store.Row{
		Name: name,
		Fields: []store.RowField{
			rawField("StaticItemId", store.PropName, item),
			rawField("FieldName", store.PropName, drop),
			rawField("WeightInSlot", store.PropFloat, weight),
			rawField("MinNum", store.PropInt, minNum),
			rawField("MaxNum", store.PropInt, maxNum),
			rawField("NumUnit", store.PropInt, unit),
			rawField("Rarity", store.PropEnum, "EPalRarity::Common"),
		},
	}
}

func rawField(name, prop string, value any) store.RowField {
	raw, _ := json.Marshal(value)
	return store.RowField{Name: name, Type: prop, Value: raw}
}

// Write encodes doc as indented JSON at path.
func Write(path string, doc *store.Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), filePermission); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
