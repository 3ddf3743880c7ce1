package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/okian/lootscale/internal/domain/record"
)

// DataTableClass is the export class that carries table rows.
const DataTableClass = "DataTableExport"

// Property type labels understood by the store.
const (
	PropInt    = "IntProperty"
	PropInt64  = "Int64Property"
	PropFloat  = "FloatProperty"
	PropDouble = "DoubleProperty"
	PropName   = "NameProperty"
	PropStr    = "StrProperty"
	PropEnum   = "EnumProperty"
	PropText   = "TextProperty"
)

// Document is the JSON rendition of an asset's export list.
type Document struct {
	EngineVersion string   `json:"engine_version,omitempty"`
	Exports       []Export `json:"exports"`
}

// Export is one asset export. Only data table exports carry rows.
type Export struct {
	ObjectName string `json:"object_name"`
	Class      string `json:"class"`
	Rows       []Row  `json:"rows,omitempty"`
}

// Row is one serialized table row. Keys other than name and fields are kept
// in Extra and written back as they were read.
type Row struct {
	Name   string
	Fields []RowField
	Extra  map[string]json.RawMessage
}

// RowField is one serialized typed cell. Keys other than name, type and value
// are kept in Extra.
type RowField struct {
	Name  string
	Type  string
	Value json.RawMessage
	Extra map[string]json.RawMessage
}

func (r *Row) UnmarshalJSON(data []byte) error {
	m, err := splitKeys(data, map[string]any{"name": &r.Name, "fields": &r.Fields})
	if err != nil {
		return err
	}
	r.Extra = m
	return nil
}

func (r Row) MarshalJSON() ([]byte, error) {
	return joinKeys(r.Extra, map[string]any{"name": r.Name, "fields": r.Fields})
}

func (f *RowField) UnmarshalJSON(data []byte) error {
	m, err := splitKeys(data, map[string]any{"name": &f.Name, "type": &f.Type, "value": &f.Value})
	if err != nil {
		return err
	}
	f.Extra = m
	return nil
}

func (f RowField) MarshalJSON() ([]byte, error) {
	value := f.Value
	if value == nil {
		value = json.RawMessage("null")
	}
	return joinKeys(f.Extra, map[string]any{"name": f.Name, "type": f.Type, "value": value})
}

// splitKeys decodes the known keys of a JSON object into their targets and
// returns the remaining keys, or nil when there are none.
func splitKeys(data []byte, known map[string]any) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for key, target := range known {
		raw, ok := m[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		delete(m, key)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func joinKeys(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	m := make(map[string]json.RawMessage, len(extra)+len(known))
	maps.Copy(m, extra)
	for key, v := range known {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		m[key] = raw
	}
	return json.Marshal(m)
}

// rawDocument keeps every key it does not interpret so a save round-trips
// unrelated exports and metadata.
type rawDocument struct {
	top     map[string]json.RawMessage
	exports []map[string]json.RawMessage
}

func decodeRaw(data []byte) (*rawDocument, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var exports []map[string]json.RawMessage
	if raw, ok := top["exports"]; ok {
		if err := json.Unmarshal(raw, &exports); err != nil {
			return nil, fmt.Errorf("%w: exports: %w", ErrInvalidDocument, err)
		}
	}
	return &rawDocument{top: top, exports: exports}, nil
}

func (d *rawDocument) engineVersion() (string, error) {
	raw, ok := d.top["engine_version"]
	if !ok {
		return "", nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: engine_version: %w", ErrInvalidDocument, err)
	}
	return v, nil
}

// find returns the index of the export named table and its class.
func (d *rawDocument) find(table string) (int, string, error) {
	for i, exp := range d.exports {
		var name, class string
		if raw, ok := exp["object_name"]; ok {
			if err := json.Unmarshal(raw, &name); err != nil {
				return -1, "", fmt.Errorf("%w: export %d object_name: %w", ErrInvalidDocument, i, err)
			}
		}
		if name != table {
			continue
		}
		if raw, ok := exp["class"]; ok {
			if err := json.Unmarshal(raw, &class); err != nil {
				return -1, "", fmt.Errorf("%w: export %d class: %w", ErrInvalidDocument, i, err)
			}
		}
		return i, class, nil
	}
	return -1, "", fmt.Errorf("%w: %q", ErrTableNotFound, table)
}

func (d *rawDocument) rows(i int) ([]Row, error) {
	raw, ok := d.exports[i]["rows"]
	if !ok {
		return nil, nil
	}
	var rows []Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrInvalidDocument, err)
	}
	return rows, nil
}

func (d *rawDocument) setRows(i int, rows []Row) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	d.exports[i]["rows"] = raw
	return nil
}

func (d *rawDocument) encode() ([]byte, error) {
	exports, err := json.Marshal(d.exports)
	if err != nil {
		return nil, err
	}
	d.top["exports"] = exports
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.top); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeRow converts a serialized row into a record.
func decodeRow(row Row) (*record.Record, error) {
	r := &record.Record{Name: row.Name, Fields: make([]record.Field, 0, len(row.Fields))}
	for _, f := range row.Fields {
		v, err := decodeValue(f.Type, f.Value)
		if err != nil {
			return nil, fmt.Errorf("row %q field %q: %w", row.Name, f.Name, err)
		}
		r.Fields = append(r.Fields, record.Field{Name: f.Name, Value: v, Property: f.Type})
	}
	return r, nil
}

func decodeValue(prop string, raw json.RawMessage) (record.Value, error) {
	switch prop {
	case PropInt, PropInt64:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return record.Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		i, err := n.Int64()
		if err != nil {
			return record.Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return record.Int(i), nil
	case PropFloat:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return record.Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		f, err := strconv.ParseFloat(n.String(), 32)
		if err != nil {
			return record.Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return record.Single(float32(f)), nil
	case PropDouble:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return record.Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return record.Double(f), nil
	case PropName, PropStr, PropEnum, PropText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return record.Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return record.Symbol(s), nil
	default:
		return record.Value{}, fmt.Errorf("%w: %q", ErrUnsupportedProperty, prop)
	}
}

// encodeRow converts a record back into its serialized form. Fields without
// a property label get the default label for their kind. Unknown keys of orig
// and of its same-named fields are carried over.
func encodeRow(r *record.Record, orig *Row) (Row, error) {
	row := Row{Name: r.Name, Fields: make([]RowField, 0, len(r.Fields))}
	var fieldExtra map[string]map[string]json.RawMessage
	if orig != nil {
		row.Extra = orig.Extra
		for _, f := range orig.Fields {
			if f.Extra == nil {
				continue
			}
			if fieldExtra == nil {
				fieldExtra = make(map[string]map[string]json.RawMessage)
			}
			fieldExtra[f.Name] = f.Extra
		}
	}
	for _, f := range r.Fields {
		prop := f.Property
		if prop == "" {
			prop = defaultProperty(f.Value.Kind())
		}
		raw, err := encodeValue(f.Value)
		if err != nil {
			return Row{}, fmt.Errorf("row %q field %q: %w", r.Name, f.Name, err)
		}
		row.Fields = append(row.Fields, RowField{Name: f.Name, Type: prop, Value: raw, Extra: fieldExtra[f.Name]})
	}
	return row, nil
}

func encodeValue(v record.Value) (json.RawMessage, error) {
	switch v.Kind() {
	case record.KindInteger:
		i, _ := v.Int()
		return json.Marshal(i)
	case record.KindSingle:
		f, _ := v.Single()
		return json.Marshal(f)
	case record.KindDouble:
		f, _ := v.Double()
		return json.Marshal(f)
	case record.KindSymbol:
		s, _ := v.Symbol()
		return json.Marshal(s)
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedProperty, v.Kind())
	}
}

func defaultProperty(k record.Kind) string {
	switch k {
	case record.KindInteger:
		return PropInt
	case record.KindSingle:
		return PropFloat
	case record.KindDouble:
		return PropDouble
	default:
		return PropName
	}
}
