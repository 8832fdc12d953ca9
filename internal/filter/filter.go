// Package filter joins option ticks against time-matched underlying prices
// and applies the dynamic moneyness/expiration gate. This is the pipeline's
// algorithmic core; everything in here is a pure function over immutable
// inputs.
package filter

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"option-data/internal/schema"
	"option-data/internal/slogx"
	"option-data/internal/theta"
)

// strikeScale converts minor-unit strikes to dollars (4 implied decimals).
const strikeScale = 10000

// Params bound one filter run.
type Params struct {
	AsOfDate uint32  // YYYYMMDD, the trade date DTE is measured from
	MaxDTE   int     // contracts expiring later than this are discarded whole
	BasePct  float64 // moneyness threshold at dte=1, scaled by sqrt(dte)
}

// Record is one surviving tick with its owning contract. Records are created
// here once and never mutated afterward.
type Record struct {
	Tick     theta.Tick
	Contract theta.Contract
}

// PriceIndex maps an exact ms-of-day timestamp to the underlying midpoint.
type PriceIndex map[uint32]float64

// BuildPriceIndex computes (bid+ask)/2 per underlying tick, keyed by exact
// timestamp. Later duplicates overwrite earlier ones.
func BuildPriceIndex(underlying []theta.Tick) PriceIndex {
	msIdx, _ := schema.FieldIndex(schema.ShapeQuote, "ms_of_day")
	bidIdx, _ := schema.FieldIndex(schema.ShapeQuote, "bid")
	askIdx, _ := schema.FieldIndex(schema.ShapeQuote, "ask")

	idx := make(PriceIndex, len(underlying))
	for _, tick := range underlying {
		if len(tick) <= askIdx || len(tick) <= bidIdx {
			continue
		}
		ts := uint32(tick[msIdx])
		idx[ts] = (tick[bidIdx] + tick[askIdx]) / 2
	}
	return idx
}

// Apply filters every contract's ticks against the underlying price index.
//
// Contracts outside 0 < dte <= MaxDTE are discarded whole, without
// inspecting ticks. A tick survives only when the underlying has a price at
// the tick's exact timestamp (no interpolation, no nearest match) and the
// strike sits within mid * BasePct * sqrt(dte) of that price. A contract
// with an unparsable expiration is skipped alone; the run continues.
//
// Empty inputs and empty outcomes are valid: Apply returns an empty slice,
// never an error.
func Apply(items []theta.OptionItem, underlying []theta.Tick, shape schema.Shape, p Params, log *slog.Logger) []Record {
	if log == nil {
		log = slogx.Default
	}
	msIdx, ok := schema.FieldIndex(shape, "ms_of_day")
	if !ok {
		log.Warn("shape has no ms_of_day field, nothing to filter", "shape", string(shape))
		return []Record{}
	}

	asOf, err := parseYYYYMMDD(p.AsOfDate)
	if err != nil {
		log.Warn("unparsable as-of date, nothing to filter", "date", p.AsOfDate, "error", err)
		return []Record{}
	}

	prices := BuildPriceIndex(underlying)
	out := []Record{}
	for _, item := range items {
		exp, err := parseYYYYMMDD(item.Contract.Expiration)
		if err != nil {
			// Local recovery: one bad contract never aborts the batch.
			log.Warn("skipping contract with unparsable expiration",
				"root", item.Contract.Root, "expiration", item.Contract.Expiration, "error", err)
			continue
		}
		dte := daysBetween(asOf, exp)
		if dte <= 0 || dte > p.MaxDTE {
			continue
		}

		strike := float64(item.Contract.Strike) / strikeScale
		threshold := p.BasePct * math.Sqrt(float64(dte))

		for _, tick := range item.Ticks {
			if len(tick) <= msIdx {
				continue
			}
			mid, ok := prices[uint32(tick[msIdx])]
			if !ok {
				// Exact-timestamp join only.
				continue
			}
			if math.Abs(strike-mid) <= mid*threshold {
				out = append(out, Record{Tick: tick, Contract: item.Contract})
			}
		}
	}
	return out
}

// parseYYYYMMDD converts a compact calendar int to a UTC date.
func parseYYYYMMDD(d uint32) (time.Time, error) {
	year := int(d / 10000)
	month := int(d % 10000 / 100)
	day := int(d % 100)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid calendar date %d", d)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30); reject anything that moved.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid calendar date %d", d)
	}
	return t, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
