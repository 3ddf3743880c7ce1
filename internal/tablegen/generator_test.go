package tablegen_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/lootscale/internal/adapters/store"
	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/transform"
	"github.com/okian/lootscale/internal/domain/walker"
	"github.com/okian/lootscale/internal/tablegen"
	"github.com/okian/lootscale/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestGenerate(t *testing.T) {
	Convey("Given a generator config", t, func() {
		ctx := context.Background()
		cfg := tablegen.DefaultConfig()
		cfg.Rows = 60
		cfg.Workers = 4

		Convey("When generating", func() {
			doc, stats, err := tablegen.Generate(ctx, cfg)

			Convey("Then every archetype is present in equal share", func() {
				So(err, ShouldBeNil)
				So(stats, ShouldResemble, tablegen.Stats{
					Rows: 60, Currency: 20, Expedition: 10, Excluded: 10, Blueprint: 10, Unrelated: 10,
				})
				So(doc.EngineVersion, ShouldEqual, "VER_UE5_1")
				So(doc.Exports, ShouldHaveLength, 2)
				So(doc.Exports[1].Rows, ShouldHaveLength, 60)
				So(doc.Exports[1].Rows[0].Name, ShouldEqual, "1")
				So(doc.Exports[1].Rows[59].Name, ShouldEqual, "60")
			})
		})

		Convey("When rows are named with UUIDs", func() {
			cfg.UUIDNames = true
			doc, _, err := tablegen.Generate(ctx, cfg)

			Convey("Then names are unique", func() {
				So(err, ShouldBeNil)
				seen := map[string]bool{}
				for _, r := range doc.Exports[1].Rows {
					So(r.Name, ShouldHaveLength, 36)
					seen[r.Name] = true
				}
				So(seen, ShouldHaveLength, 60)
			})
		})

		Convey("When the row count is not positive", func() {
			cfg.Rows = 0
			_, _, err := tablegen.Generate(ctx, cfg)
			So(errors.Is(err, tablegen.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, _, err := tablegen.Generate(cctx, cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGeneratedTableRoundTrip(t *testing.T) {
	Convey("Given a generated table written to disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := tablegen.DefaultConfig()
		cfg.Rows = 120
		cfg.Output = filepath.Join(dir, "DT_ItemLotteryData.uasset.json")

		doc, stats, err := tablegen.Generate(ctx, cfg)
		So(err, ShouldBeNil)
		So(tablegen.Write(cfg.Output, doc), ShouldBeNil)

		Convey("When the engine walks it", func() {
			paths := store.Paths{ExportsDir: dir, AssetName: filepath.Base(cfg.Output), OutputDir: filepath.Join(dir, "out")}
			table, err := store.New(paths, cfg.Table, store.WithEngineVersion(cfg.EngineVersion)).Load(ctx)
			So(err, ShouldBeNil)

			c, err := classify.New(classify.DefaultRules())
			So(err, ShouldBeNil)
			tr, err := transform.New(transform.Settings{
				CurrencyMultiplier:   2,
				ExpeditionMultiplier: 3,
				WeightMultiplier:     0.5,
				SoftCap:              15000,
			}, c)
			So(err, ShouldBeNil)

			report, err := walker.New(tr, walker.WithWorkers(4)).Walk(ctx, table)

			Convey("Then the report matches the generated archetypes", func() {
				So(err, ShouldBeNil)
				So(report.Rows, ShouldEqual, stats.Rows)
				So(report.Weight, ShouldEqual, stats.Blueprint)
				So(report.Quantity, ShouldEqual, stats.Currency+stats.Expedition)
				So(report.Excluded, ShouldEqual, stats.Excluded)
				So(report.Skipped, ShouldEqual, stats.Excluded+stats.Unrelated)
			})
		})
	})
}
