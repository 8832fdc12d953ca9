// Package schema is the registry of tick shapes coming off the wire.
// Ticks arrive as fixed-position arrays; the lists here are the only place
// that assigns a name and a storage width to each position. Nothing outside
// this package may index into a tick array with a literal position.
package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kind is the semantic storage width of one field.
type Kind int

const (
	Uint32 Kind = iota
	Uint16
	Uint8
	Float32
	String
)

// Field pairs a wire field name with its storage width.
type Field struct {
	Name string
	Kind Kind
}

// Shape selects which tick-field variant applies to a response.
type Shape string

const (
	ShapeQuote Shape = "quote"
	ShapeOHLC  Shape = "ohlc"
	ShapeEOD   Shape = "eod"
)

// quoteFields matches the ThetaData quote format list position for position.
var quoteFields = []Field{
	{"ms_of_day", Uint32},
	{"bid_size", Uint16},
	{"bid_exchange", Uint8},
	{"bid", Float32},
	{"bid_condition", Uint8},
	{"ask_size", Uint16},
	{"ask_exchange", Uint8},
	{"ask", Float32},
	{"ask_condition", Uint8},
	{"date", Uint32},
}

var ohlcFields = []Field{
	{"ms_of_day", Uint32},
	{"open", Float32},
	{"high", Float32},
	{"low", Float32},
	{"close", Float32},
	{"volume", Uint32},
	{"count", Uint32},
	{"date", Uint32},
}

// eodFields is the OHLC and quote union plus the secondary timestamp.
var eodFields = []Field{
	{"ms_of_day", Uint32},
	{"ms_of_day2", Uint32},
	{"open", Float32},
	{"high", Float32},
	{"low", Float32},
	{"close", Float32},
	{"volume", Uint32},
	{"count", Uint32},
	{"bid_size", Uint16},
	{"bid_exchange", Uint8},
	{"bid", Float32},
	{"bid_condition", Uint8},
	{"ask_size", Uint16},
	{"ask_exchange", Uint8},
	{"ask", Float32},
	{"ask_condition", Uint8},
	{"date", Uint32},
}

// contractFields is fixed across all shapes. Strike is in minor units
// (4 implied decimal places); right is "C"/"P", or "U" for the synthetic
// underlying contract.
var contractFields = []Field{
	{"root", String},
	{"expiration", Uint32},
	{"strike", Uint32},
	{"right", String},
}

var tickFields = map[Shape][]Field{
	ShapeQuote: quoteFields,
	ShapeOHLC:  ohlcFields,
	ShapeEOD:   eodFields,
}

// TickFields returns the ordered tick fields for a shape.
func TickFields(shape Shape) ([]Field, error) {
	fs, ok := tickFields[shape]
	if !ok {
		return nil, fmt.Errorf("schema: unknown shape %q", shape)
	}
	return fs, nil
}

// ContractFields returns the fixed contract field list.
func ContractFields() []Field {
	return contractFields
}

// AllFields returns the full output column order for a shape: tick fields
// followed by contract fields.
func AllFields(shape Shape) ([]Field, error) {
	ticks, err := TickFields(shape)
	if err != nil {
		return nil, err
	}
	out := make([]Field, 0, len(ticks)+len(contractFields))
	out = append(out, ticks...)
	out = append(out, contractFields...)
	return out, nil
}

// FieldNames returns the ordered tick field names for a shape, i.e. the
// expected header "format" list.
func FieldNames(shape Shape) ([]string, error) {
	fs, err := TickFields(shape)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names, nil
}

// FieldIndex returns the array position of a named tick field within a shape.
func FieldIndex(shape Shape, name string) (int, bool) {
	fs, ok := tickFields[shape]
	if !ok {
		return 0, false
	}
	for i, f := range fs {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ArrowType maps a Kind to its arrow data type.
func ArrowType(k Kind) arrow.DataType {
	switch k {
	case Uint32:
		return arrow.PrimitiveTypes.Uint32
	case Uint16:
		return arrow.PrimitiveTypes.Uint16
	case Uint8:
		return arrow.PrimitiveTypes.Uint8
	case Float32:
		return arrow.PrimitiveTypes.Float32
	case String:
		return arrow.BinaryTypes.String
	}
	return arrow.BinaryTypes.String
}

// ArrowSchema builds the arrow schema for a shape: tick fields then contract
// fields. Columns are nullable because assembly substitutes all-null columns
// for fields absent from a source shape.
func ArrowSchema(shape Shape) (*arrow.Schema, error) {
	fields, err := AllFields(shape)
	if err != nil {
		return nil, err
	}
	afs := make([]arrow.Field, len(fields))
	for i, f := range fields {
		afs[i] = arrow.Field{Name: f.Name, Type: ArrowType(f.Kind), Nullable: true}
	}
	return arrow.NewSchema(afs, nil), nil
}
