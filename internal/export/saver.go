package export

import (
	"strings"
)

// SnapshotSaver persists one batch of filtered rows to a local file.
// Implementations are injected; callers depend on the interface only.
type SnapshotSaver interface {
	Save(rows []QuoteRow, path string) error
	Extension() string
}

// NewSnapshotSaver creates the implementation for a format (parquet, json,
// csv). Returns nil for unsupported formats.
func NewSnapshotSaver(format string) SnapshotSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	case "csv":
		return CSVSaver{}
	default:
		return nil
	}
}
