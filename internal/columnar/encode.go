package columnar

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Format selects one of the two serializations. Both embed the schema and
// decode without out-of-band information; given the same record they are
// structurally identical (names, order, types, row count).
type Format string

const (
	// FormatParquet is the compressed table file.
	FormatParquet Format = "parquet"
	// FormatIPC is the streaming columnar wire format.
	FormatIPC Format = "ipc"
)

// DefaultCodec is the compression applied to parquet output unless
// configured otherwise.
var DefaultCodec = compress.Codecs.Snappy

// CodecFromString resolves a configured codec name.
func CodecFromString(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	}
	return compress.Codecs.Uncompressed, fmt.Errorf("unsupported codec %q (use: snappy, zstd, gzip, lz4, none)", name)
}

// Encode serializes a record into an in-memory buffer in the given format.
// Writing the buffer anywhere is the caller's business.
func Encode(rec arrow.Record, format Format, codec compress.Compression) ([]byte, error) {
	switch format {
	case FormatParquet:
		return EncodeParquet(rec, codec)
	case FormatIPC:
		return EncodeIPC(rec)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// EncodeParquet writes the record as one parquet table. The arrow schema is
// stored in the file metadata so decoding restores the exact column types;
// zero-row records produce a valid schema-only file.
func EncodeParquet(rec arrow.Record, codec compress.Compression) ([]byte, error) {
	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(codec))
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	w, err := pqarrow.NewFileWriter(rec.Schema(), &buf, props, arrProps)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeIPC writes the record as an arrow IPC stream: self-describing schema
// header followed by zero or more row batches.
func EncodeIPC(rec arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.DefaultAllocator))
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("write ipc stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish ipc stream: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeParquet reads back a parquet artifact's schema and row count.
func DecodeParquet(data []byte) (*arrow.Schema, int64, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("open parquet: %w", err)
	}
	defer pf.Close()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, 0, fmt.Errorf("read parquet arrow metadata: %w", err)
	}
	sch, err := fr.Schema()
	if err != nil {
		return nil, 0, fmt.Errorf("read parquet schema: %w", err)
	}
	return sch, pf.NumRows(), nil
}

// DecodeParquetTable materializes a parquet artifact as an arrow table.
func DecodeParquetTable(ctx context.Context, data []byte) (arrow.Table, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pf.Close()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("read parquet arrow metadata: %w", err)
	}
	return fr.ReadTable(ctx)
}

// DecodeIPC reads back an IPC artifact's schema and row count.
func DecodeIPC(data []byte) (*arrow.Schema, int64, error) {
	r, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("open ipc stream: %w", err)
	}
	defer r.Release()
	var rows int64
	for r.Next() {
		rows += r.Record().NumRows()
	}
	if err := r.Err(); err != nil {
		return nil, 0, fmt.Errorf("read ipc stream: %w", err)
	}
	return r.Schema(), rows, nil
}
