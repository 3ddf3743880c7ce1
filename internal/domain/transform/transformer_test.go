package transform_test

import (
	"errors"
	"testing"

	"github.com/okian/lootscale/internal/domain/classify"
	"github.com/okian/lootscale/internal/domain/record"
	"github.com/okian/lootscale/internal/domain/transform"
	. "github.com/smartystreets/goconvey/convey"
)

func quantityRow(item, context string, minNum, maxNum, unit int64) *record.Record {
	return &record.Record{
		Name: "row",
		Fields: []record.Field{
			{Name: "StaticItemId", Value: record.Symbol(item), Property: "NameProperty"},
			{Name: "FieldName", Value: record.Symbol(context), Property: "NameProperty"},
			{Name: "MinNum", Value: record.Int(minNum), Property: "IntProperty"},
			{Name: "MaxNum", Value: record.Int(maxNum), Property: "IntProperty"},
			{Name: "NumUnit", Value: record.Int(unit), Property: "IntProperty"},
			{Name: "WeightInSlot", Value: record.Single(1), Property: "FloatProperty"},
		},
	}
}

func weightRow(item string, weight record.Value) *record.Record {
	return &record.Record{
		Name: "bp",
		Fields: []record.Field{
			{Name: "StaticItemId", Value: record.Symbol(item)},
			{Name: "FieldName", Value: record.Symbol("Treasure_Grade3")},
			{Name: "WeightInSlot", Value: weight},
		},
	}
}

func ints(r *record.Record, names ...string) []int64 {
	out := make([]int64, len(names))
	for i, n := range names {
		v, err := r.Get(n)
		So(err, ShouldBeNil)
		out[i], _ = v.Int()
	}
	return out
}

func newTransformer(s transform.Settings) *transform.Transformer {
	c, err := classify.New(classify.DefaultRules())
	So(err, ShouldBeNil)
	tr, err := transform.New(s, c)
	So(err, ShouldBeNil)
	return tr
}

func TestTransformer_Currency(t *testing.T) {
	Convey("Given a currency reward row", t, func() {
		row := quantityRow("Money", "Reward", 10, 20, 5)

		Convey("When applied with a chunk size under the cap", func() {
			tr := newTransformer(transform.Settings{CurrencyMultiplier: 2.0, ChunkSize: 50, SoftCap: 100})
			res, err := tr.Apply(3, row)

			Convey("Then quantities scale and the unit is quantized", func() {
				So(err, ShouldBeNil)
				So(ints(row, "MinNum", "MaxNum", "NumUnit"), ShouldResemble, []int64{20, 40, 50})
				So(res.Classification.Kind, ShouldEqual, classify.QuantityAdjustment)
				So(res.Entry, ShouldNotBeNil)
				So(res.Entry.Index, ShouldEqual, 3)
				So(res.Entry.ItemID, ShouldEqual, "Money")
				So(res.Entry.Changes, ShouldHaveLength, 3)
				So(res.Entry.Changes[2].Adjustment, ShouldEqual, transform.Quantized)
			})
		})

		Convey("When the soft cap is below the chunk", func() {
			tr := newTransformer(transform.Settings{CurrencyMultiplier: 2.0, ChunkSize: 50, SoftCap: 30})
			res, err := tr.Apply(0, row)

			Convey("Then every field is bounded by the cap", func() {
				So(err, ShouldBeNil)
				So(ints(row, "MinNum", "MaxNum", "NumUnit"), ShouldResemble, []int64{20, 30, 30})
				So(res.Entry.Changes[1].Adjustment.Has(transform.Capped), ShouldBeTrue)
				So(res.Entry.Changes[2].Adjustment.Has(transform.Quantized|transform.Capped), ShouldBeTrue)
			})
		})

		Convey("When no chunk size is configured", func() {
			tr := newTransformer(transform.Settings{CurrencyMultiplier: 3.0, SoftCap: 1000})
			res, err := tr.Apply(0, row)

			Convey("Then the unit field is left untouched", func() {
				So(err, ShouldBeNil)
				So(ints(row, "MinNum", "MaxNum", "NumUnit"), ShouldResemble, []int64{30, 60, 5})
				So(res.Entry.Changes, ShouldHaveLength, 2)
			})
		})

		Convey("When the context is excluded", func() {
			excluded := quantityRow("Money", "DevSpawnReward", 10, 20, 5)
			before := excluded.Clone()
			tr := newTransformer(transform.Settings{CurrencyMultiplier: 100, ExpeditionMultiplier: 100, WeightMultiplier: 100, ChunkSize: 50, SoftCap: 100000})
			res, err := tr.Apply(0, excluded)

			Convey("Then nothing changes regardless of multipliers", func() {
				So(err, ShouldBeNil)
				So(res.Entry, ShouldBeNil)
				So(res.Classification.Excluded, ShouldBeTrue)
				So(excluded.Equal(before), ShouldBeTrue)
			})
		})
	})
}

func TestTransformer_Expedition(t *testing.T) {
	Convey("Given an expedition row", t, func() {
		row := quantityRow("Wood", "Expedition_Forest", 4, 8, 3)
		tr := newTransformer(transform.Settings{CurrencyMultiplier: 100, ExpeditionMultiplier: 2.5, ChunkSize: 50, SoftCap: 15})

		Convey("When applied", func() {
			res, err := tr.Apply(0, row)

			Convey("Then all three fields use the expedition multiplier and cap", func() {
				So(err, ShouldBeNil)
				So(ints(row, "MinNum", "MaxNum", "NumUnit"), ShouldResemble, []int64{10, 15, 7})
				So(res.Classification.Expedition, ShouldBeTrue)
				So(res.Entry.Changes[2].Adjustment, ShouldEqual, transform.Scaled)
			})
		})
	})
}

func TestTransformer_Weight(t *testing.T) {
	Convey("Given a level-4 blueprint row", t, func() {
		Convey("When the scaled weight falls under the floor", func() {
			row := weightRow("Blueprint_Sword_5", record.Single(10))
			tr := newTransformer(transform.Settings{WeightMultiplier: 0.5, MinWeight: 8, SoftCap: 1})
			res, err := tr.Apply(0, row)

			Convey("Then it is floored and stays single precision", func() {
				So(err, ShouldBeNil)
				v, _ := row.Get("WeightInSlot")
				So(v.Equal(record.Single(8)), ShouldBeTrue)
				So(res.Entry.Changes[0].Adjustment, ShouldEqual, transform.Scaled|transform.Floored)
				So(res.Entry.String(), ShouldContainSubstring, "-20.00%")
			})
		})

		Convey("When the floor is disabled", func() {
			row := weightRow("Blueprint_Sword_5", record.Double(10))
			tr := newTransformer(transform.Settings{WeightMultiplier: 0.5, SoftCap: 1})
			_, err := tr.Apply(0, row)

			Convey("Then the weight is only scaled, as a double", func() {
				So(err, ShouldBeNil)
				v, _ := row.Get("WeightInSlot")
				So(v.Equal(record.Double(5)), ShouldBeTrue)
			})
		})

		Convey("When the weight is an integer", func() {
			row := weightRow("Blueprint_Sword_5", record.Int(10))
			tr := newTransformer(transform.Settings{WeightMultiplier: 2, SoftCap: 1})
			_, err := tr.Apply(7, row)

			Convey("Then it fails with the row identity", func() {
				So(errors.Is(err, transform.ErrUnexpectedFieldType), ShouldBeTrue)
				var rowErr *transform.RowError
				So(errors.As(err, &rowErr), ShouldBeTrue)
				So(rowErr.Index, ShouldEqual, 7)
				So(rowErr.ItemID, ShouldEqual, "Blueprint_Sword_5")
				So(rowErr.Field, ShouldEqual, "WeightInSlot")
			})
		})
	})
}

func TestTransformer_Failures(t *testing.T) {
	Convey("Given malformed quantity rows", t, func() {
		tr := newTransformer(transform.Settings{CurrencyMultiplier: 2, ChunkSize: 5, SoftCap: 100})

		Convey("When the unit field is a float", func() {
			row := quantityRow("Money", "Reward", 10, 20, 5)
			row.Fields[4].Value = record.Double(5)
			before := row.Clone()
			_, err := tr.Apply(0, row)

			Convey("Then it fails before writing anything", func() {
				So(errors.Is(err, transform.ErrUnexpectedFieldType), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "NumUnit")
				So(err.Error(), ShouldContainSubstring, "Money")
				So(row.Equal(before), ShouldBeTrue)
			})
		})

		Convey("When the max field is missing", func() {
			row := quantityRow("Money", "Reward", 10, 20, 5)
			row.Fields = append(row.Fields[:3], row.Fields[4:]...)
			_, err := tr.Apply(0, row)

			Convey("Then it fails with ErrFieldNotFound", func() {
				So(errors.Is(err, transform.ErrFieldNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given rows without a usable identity", t, func() {
		tr := newTransformer(transform.Settings{CurrencyMultiplier: 2, SoftCap: 100})

		Convey("When the identity field is missing or not a symbol", func() {
			missing := &record.Record{Fields: []record.Field{{Name: "MinNum", Value: record.Int(1)}}}
			numeric := &record.Record{Fields: []record.Field{{Name: "StaticItemId", Value: record.Int(1)}}}
			r1, err1 := tr.Apply(0, missing)
			r2, err2 := tr.Apply(1, numeric)

			Convey("Then they are skipped", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(r1.Classification.Kind, ShouldEqual, classify.Skip)
				So(r2.Entry, ShouldBeNil)
			})
		})

		Convey("When the context field is missing", func() {
			row := quantityRow("Money", "Reward", 1, 2, 3)
			row.Fields = append(row.Fields[:1], row.Fields[2:]...)
			res, err := tr.Apply(0, row)

			Convey("Then the currency rule still applies with a placeholder context", func() {
				So(err, ShouldBeNil)
				So(res.Entry.Context, ShouldEqual, "N/A")
			})
		})
	})
}

func TestTransformer_Identity(t *testing.T) {
	Convey("Given unit multipliers and no chunk or floor", t, func() {
		tr := newTransformer(transform.Settings{CurrencyMultiplier: 1, ExpeditionMultiplier: 1, WeightMultiplier: 1, SoftCap: 1_000_000})
		rows := []*record.Record{
			quantityRow("Money", "Reward", 10, 20, 5),
			quantityRow("Ore", "Expedition_Mine", 1, 3, 2),
			weightRow("Blueprint_Axe_5", record.Single(0.37)),
		}

		Convey("When applied twice", func() {
			for pass := 0; pass < 2; pass++ {
				for i, r := range rows {
					before := r.Clone()
					_, err := tr.Apply(i, r)
					So(err, ShouldBeNil)
					So(r.Equal(before), ShouldBeTrue)
				}
			}
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given transformer construction", t, func() {
		c, _ := classify.New(classify.DefaultRules())

		Convey("When a multiplier is negative", func() {
			_, err := transform.New(transform.Settings{WeightMultiplier: -1, SoftCap: 1}, c)
			So(errors.Is(err, transform.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When the soft cap is not positive", func() {
			_, err := transform.New(transform.Settings{}, c)
			So(errors.Is(err, transform.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When the classifier is missing", func() {
			_, err := transform.New(transform.Settings{SoftCap: 1}, nil)
			So(errors.Is(err, transform.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When the schema names a custom field set", func() {
			schema := transform.DefaultSchema()
			schema.Weight = "Weight"
			tr, err := transform.New(transform.Settings{WeightMultiplier: 2, SoftCap: 1}, c, transform.WithSchema(schema))
			So(err, ShouldBeNil)
			row := &record.Record{Fields: []record.Field{
				{Name: "StaticItemId", Value: record.Symbol("Blueprint_X_5")},
				{Name: "Weight", Value: record.Double(3)},
			}}
			_, err = tr.Apply(0, row)
			So(err, ShouldBeNil)
			v, _ := row.Get("Weight")
			So(v.Equal(record.Double(6)), ShouldBeTrue)
			So(tr.Schema().Weight, ShouldEqual, "Weight")
		})

		Convey("When the schema has an empty name", func() {
			schema := transform.DefaultSchema()
			schema.Unit = ""
			_, err := transform.New(transform.Settings{SoftCap: 1}, c, transform.WithSchema(schema))
			So(errors.Is(err, transform.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When two quantity roles share a field name", func() {
			schema := transform.DefaultSchema()
			schema.Unit = schema.Max
			_, err := transform.New(transform.Settings{SoftCap: 1}, c, transform.WithSchema(schema))
			So(errors.Is(err, transform.ErrInvalidSettings), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, `max and unit both use field "MaxNum"`)
		})
	})
}
