package export

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSVSaver writes snapshot rows with a fixed header matching the quote
// column order.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []QuoteRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"ms_of_day", "bid_size", "bid_exchange", "bid", "bid_condition",
		"ask_size", "ask_exchange", "ask", "ask_condition", "date",
		"root", "expiration", "strike", "right",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatUint(uint64(r.MsOfDay), 10),
			strconv.FormatUint(uint64(r.BidSize), 10),
			strconv.FormatUint(uint64(r.BidExchange), 10),
			floatStr(r.Bid),
			strconv.FormatUint(uint64(r.BidCondition), 10),
			strconv.FormatUint(uint64(r.AskSize), 10),
			strconv.FormatUint(uint64(r.AskExchange), 10),
			floatStr(r.Ask),
			strconv.FormatUint(uint64(r.AskCondition), 10),
			strconv.FormatUint(uint64(r.Date), 10),
			r.Root,
			strconv.FormatUint(uint64(r.Expiration), 10),
			strconv.FormatUint(uint64(r.Strike), 10),
			r.Right,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func floatStr(f float32) string { return strconv.FormatFloat(float64(f), 'f', -1, 32) }
