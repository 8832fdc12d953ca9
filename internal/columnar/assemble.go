// Package columnar turns filtered tick records into typed arrow columns and
// serializes them. The transposition is column-major and batched: each
// destination column is built by one pass over the source, with the
// coercion declared by the schema registry. Building a row object per tick
// and re-splitting it afterwards is the measured bottleneck this package
// exists to avoid.
package columnar

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"option-data/internal/filter"
	"option-data/internal/schema"
	"option-data/internal/slogx"
	"option-data/internal/theta"
)

// ErrNoData means the inputs resolve to no columns at all, as opposed to
// columns with zero rows (which assemble and encode cleanly).
var ErrNoData = errors.New("no data to convert")

// Right marker for synthetic underlying rows merged into the option table.
const underlyingRight = "U"

// Assemble transposes filtered option records plus raw underlying ticks into
// one arrow record whose columns follow the registry order for shape: tick
// fields first, then root/expiration/strike/right. Underlying rows carry the
// synthetic contract {expiration: 0, strike: 0, right: "U"} with the given
// root.
//
// A tick field position absent from every source row is substituted with an
// all-null column and a warning rather than a failure; the returned padded
// list names such fields so callers can detect the substitution. Zero total
// rows is a valid outcome and yields a zero-row record with the full schema.
//
// The caller owns the returned record and must Release it.
func Assemble(records []filter.Record, underlying []theta.Tick, root string, shape schema.Shape, log *slog.Logger) (arrow.Record, []string, error) {
	if log == nil {
		log = slogx.Default
	}
	tickFields, err := schema.TickFields(shape)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	arrowSchema, err := schema.ArrowSchema(shape)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	rows := len(records) + len(underlying)
	rb := array.NewRecordBuilder(memory.DefaultAllocator, arrowSchema)
	defer rb.Release()
	rb.Reserve(rows)

	var padded []string
	for pos, f := range tickFields {
		nulls := appendTickColumn(rb.Field(pos), f.Kind, pos, records, underlying)
		if rows > 0 && nulls == rows {
			log.Warn("field absent from source ticks, emitting all-null column", "field", f.Name, "shape", string(shape))
			padded = append(padded, f.Name)
		}
	}
	appendContractColumns(rb, len(tickFields), records, underlying, root)

	rec := rb.NewRecord()
	return rec, padded, nil
}

// appendTickColumn builds one destination column across both sources,
// coercing to the declared width. Source rows too short to carry the
// position get a null so every column keeps the same length.
func appendTickColumn(b array.Builder, kind schema.Kind, pos int, records []filter.Record, underlying []theta.Tick) int {
	nulls := 0
	appendOne := func(tick theta.Tick) {
		if len(tick) <= pos {
			b.AppendNull()
			nulls++
			return
		}
		v := tick[pos]
		switch kind {
		case schema.Uint32:
			b.(*array.Uint32Builder).Append(uint32(v))
		case schema.Uint16:
			b.(*array.Uint16Builder).Append(uint16(v))
		case schema.Uint8:
			b.(*array.Uint8Builder).Append(uint8(v))
		case schema.Float32:
			b.(*array.Float32Builder).Append(float32(v))
		default:
			b.(*array.StringBuilder).Append(fmt.Sprintf("%v", v))
		}
	}
	for _, r := range records {
		appendOne(r.Tick)
	}
	for _, tick := range underlying {
		appendOne(tick)
	}
	return nulls
}

// appendContractColumns fills root/expiration/strike/right: real contract
// values for option rows, the synthetic underlying contract for stock rows.
func appendContractColumns(rb *array.RecordBuilder, offset int, records []filter.Record, underlying []theta.Tick, root string) {
	rootB := rb.Field(offset).(*array.StringBuilder)
	expB := rb.Field(offset + 1).(*array.Uint32Builder)
	strikeB := rb.Field(offset + 2).(*array.Uint32Builder)
	rightB := rb.Field(offset + 3).(*array.StringBuilder)

	for _, r := range records {
		rootB.Append(r.Contract.Root)
		expB.Append(r.Contract.Expiration)
		strikeB.Append(r.Contract.Strike)
		rightB.Append(r.Contract.Right)
	}
	for range underlying {
		rootB.Append(root)
		expB.Append(0)
		strikeB.Append(0)
		rightB.Append(underlyingRight)
	}
}
