package export

import (
	"github.com/parquet-go/parquet-go"
)

// ParquetSaver writes snapshot rows as a tagged-struct parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []QuoteRow, path string) error {
	return parquet.WriteFile(path, rows)
}
