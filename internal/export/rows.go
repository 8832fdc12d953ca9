// Package export carries the pipeline's outward-facing surfaces: encoded
// artifacts addressed by object key, the uploader/publisher collaborator
// interfaces, and row-level snapshot savers for debugging filtered data.
package export

import (
	"fmt"

	"option-data/internal/filter"
	"option-data/internal/schema"
)

// QuoteRow is the flat on-disk form of one filtered quote tick. Snapshots
// are a debug aid for quote-shaped data; the columnar encoders are the real
// output path.
type QuoteRow struct {
	MsOfDay      uint32  `json:"ms_of_day" parquet:"ms_of_day"`
	BidSize      uint16  `json:"bid_size" parquet:"bid_size"`
	BidExchange  uint8   `json:"bid_exchange" parquet:"bid_exchange"`
	Bid          float32 `json:"bid" parquet:"bid"`
	BidCondition uint8   `json:"bid_condition" parquet:"bid_condition"`
	AskSize      uint16  `json:"ask_size" parquet:"ask_size"`
	AskExchange  uint8   `json:"ask_exchange" parquet:"ask_exchange"`
	Ask          float32 `json:"ask" parquet:"ask"`
	AskCondition uint8   `json:"ask_condition" parquet:"ask_condition"`
	Date         uint32  `json:"date" parquet:"date"`
	Root         string  `json:"root" parquet:"root"`
	Expiration   uint32  `json:"expiration" parquet:"expiration"`
	Strike       uint32  `json:"strike" parquet:"strike"`
	Right        string  `json:"right" parquet:"right"`
}

// RowsFromRecords flattens quote-shaped filtered records into snapshot rows.
func RowsFromRecords(records []filter.Record, shape schema.Shape) ([]QuoteRow, error) {
	if shape != schema.ShapeQuote {
		return nil, fmt.Errorf("snapshots support the quote shape only, got %q", shape)
	}
	idx := func(name string) int {
		i, _ := schema.FieldIndex(schema.ShapeQuote, name)
		return i
	}
	msI, bsI, bxI, bI, bcI := idx("ms_of_day"), idx("bid_size"), idx("bid_exchange"), idx("bid"), idx("bid_condition")
	asI, axI, aI, acI, dI := idx("ask_size"), idx("ask_exchange"), idx("ask"), idx("ask_condition"), idx("date")

	rows := make([]QuoteRow, 0, len(records))
	for _, r := range records {
		t := r.Tick
		if len(t) <= dI {
			return nil, fmt.Errorf("tick has %d fields, quote shape needs %d", len(t), dI+1)
		}
		rows = append(rows, QuoteRow{
			MsOfDay:      uint32(t[msI]),
			BidSize:      uint16(t[bsI]),
			BidExchange:  uint8(t[bxI]),
			Bid:          float32(t[bI]),
			BidCondition: uint8(t[bcI]),
			AskSize:      uint16(t[asI]),
			AskExchange:  uint8(t[axI]),
			Ask:          float32(t[aI]),
			AskCondition: uint8(t[acI]),
			Date:         uint32(t[dI]),
			Root:         r.Contract.Root,
			Expiration:   r.Contract.Expiration,
			Strike:       r.Contract.Strike,
			Right:        r.Contract.Right,
		})
	}
	return rows, nil
}
