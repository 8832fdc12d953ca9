package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option-data/internal/schema"
	"option-data/internal/theta"
)

// quoteTick builds a quote-shaped tick with the given timestamp, bid and ask;
// the remaining fields carry placeholder values.
func quoteTick(ms uint32, bid, ask float64) theta.Tick {
	return theta.Tick{float64(ms), 10, 1, bid, 0, 12, 1, ask, 0, 20231103}
}

func contract(exp, strike uint32, right string) theta.Contract {
	return theta.Contract{Root: "AAPL", Expiration: exp, Strike: strike, Right: right}
}

func params() Params {
	return Params{AsOfDate: 20231103, MaxDTE: 30, BasePct: 0.1}
}

func TestBuildPriceIndexMidpointLastWriteWins(t *testing.T) {
	idx := BuildPriceIndex([]theta.Tick{
		quoteTick(34200000, 149.90, 150.10),
		quoteTick(34201000, 150.00, 150.20),
		quoteTick(34200000, 151.00, 151.50), // duplicate timestamp, must win
	})
	require.Len(t, idx, 2)
	assert.InDelta(t, 151.25, idx[34200000], 1e-9)
	assert.InDelta(t, 150.10, idx[34201000], 1e-9)
}

func TestApplyKeepsNearTheMoneyTick(t *testing.T) {
	// dte=14, mid=150.00, strike=$150.00: well inside 0.1*sqrt(14)*mid.
	underlying := []theta.Tick{quoteTick(34200000, 149.95, 150.05)}
	items := []theta.OptionItem{{
		Contract: contract(20231117, 1500000, "C"),
		Ticks:    []theta.Tick{quoteTick(34200000, 4.90, 5.10)},
	}}

	out := Apply(items, underlying, schema.ShapeQuote, params(), nil)
	require.Len(t, out, 1)
	assert.Equal(t, uint32(1500000), out[0].Contract.Strike)
	assert.Equal(t, items[0].Ticks[0], out[0].Tick)
}

func TestApplyDropsFarFromTheMoneyTick(t *testing.T) {
	// Same window, strike $250 against a $150 underlying: far outside the band.
	underlying := []theta.Tick{quoteTick(34200000, 149.95, 150.05)}
	items := []theta.OptionItem{{
		Contract: contract(20231117, 2500000, "C"),
		Ticks:    []theta.Tick{quoteTick(34200000, 0.01, 0.03)},
	}}

	out := Apply(items, underlying, schema.ShapeQuote, params(), nil)
	assert.Empty(t, out)
}

func TestApplyThresholdWidensWithDTE(t *testing.T) {
	// Strike $168 on a $150 underlying is 12% away. At dte=1 the band is 10%,
	// at dte=14 it is 0.1*sqrt(14) ≈ 37%.
	underlying := []theta.Tick{quoteTick(34200000, 149.95, 150.05)}
	item := func(exp uint32) []theta.OptionItem {
		return []theta.OptionItem{{
			Contract: contract(exp, 1680000, "C"),
			Ticks:    []theta.Tick{quoteTick(34200000, 1.00, 1.10)},
		}}
	}

	assert.Empty(t, Apply(item(20231104), underlying, schema.ShapeQuote, params(), nil))
	assert.Len(t, Apply(item(20231117), underlying, schema.ShapeQuote, params(), nil), 1)
}

func TestApplyDiscardsContractsOutsideDTEWindow(t *testing.T) {
	underlying := []theta.Tick{quoteTick(34200000, 149.95, 150.05)}
	ticks := []theta.Tick{quoteTick(34200000, 4.90, 5.10)}
	items := []theta.OptionItem{
		{Contract: contract(20231103, 1500000, "C"), Ticks: ticks}, // dte=0, expires today
		{Contract: contract(20231204, 1500000, "C"), Ticks: ticks}, // dte=31 > MaxDTE=30
		{Contract: contract(20231201, 1500000, "P"), Ticks: ticks}, // dte=28, in window
	}

	out := Apply(items, underlying, schema.ShapeQuote, params(), nil)
	require.Len(t, out, 1)
	assert.Equal(t, uint32(20231201), out[0].Contract.Expiration)
}

func TestApplyRequiresExactTimestampMatch(t *testing.T) {
	// Underlying exists 1ms away; near matches never count.
	underlying := []theta.Tick{quoteTick(34200001, 149.95, 150.05)}
	items := []theta.OptionItem{{
		Contract: contract(20231117, 1500000, "C"),
		Ticks: []theta.Tick{
			quoteTick(34200000, 4.90, 5.10),
			quoteTick(34200001, 4.90, 5.10),
		},
	}}

	out := Apply(items, underlying, schema.ShapeQuote, params(), nil)
	require.Len(t, out, 1)
	assert.Equal(t, float64(34200001), out[0].Tick[0])
}

func TestApplySkipsContractWithBadExpiration(t *testing.T) {
	underlying := []theta.Tick{quoteTick(34200000, 149.95, 150.05)}
	ticks := []theta.Tick{quoteTick(34200000, 4.90, 5.10)}
	items := []theta.OptionItem{
		{Contract: contract(20231399, 1500000, "C"), Ticks: ticks}, // month 13
		{Contract: contract(20231117, 1500000, "C"), Ticks: ticks},
	}

	out := Apply(items, underlying, schema.ShapeQuote, params(), nil)
	require.Len(t, out, 1, "one bad contract must not abort the batch")
	assert.Equal(t, uint32(20231117), out[0].Contract.Expiration)
}

func TestApplyEmptyInputs(t *testing.T) {
	out := Apply(nil, nil, schema.ShapeQuote, params(), nil)
	require.NotNil(t, out)
	assert.Empty(t, out)

	// Ticks but no underlying: nothing can join.
	items := []theta.OptionItem{{
		Contract: contract(20231117, 1500000, "C"),
		Ticks:    []theta.Tick{quoteTick(34200000, 4.90, 5.10)},
	}}
	assert.Empty(t, Apply(items, nil, schema.ShapeQuote, params(), nil))
}

func TestParseYYYYMMDDRejectsOverflowDates(t *testing.T) {
	for _, d := range []uint32{20230230, 20231301, 20231100, 20230431} {
		_, err := parseYYYYMMDD(d)
		assert.Error(t, err, "date %d", d)
	}
	got, err := parseYYYYMMDD(20240229) // leap day
	require.NoError(t, err)
	assert.Equal(t, 29, got.Day())
}
