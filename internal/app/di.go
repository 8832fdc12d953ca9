package app

import (
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/parquet/compress"

	"option-data/internal/columnar"
	"option-data/internal/export"
	"option-data/internal/pipeline"
	"option-data/internal/slogx"
	"option-data/internal/theta"
)

// ProvideConfig loads config from environment (for Wire).
func ProvideConfig() *Config {
	return LoadConfig()
}

// ProvideLogger builds the application logger from config (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	return slogx.NewDefault(cfg.LogLevel)
}

// ProvideTransport builds the HTTP transport handle (for Wire). The handle
// is constructed once here and injected; nothing else creates clients.
func ProvideTransport(cfg *Config) *theta.RestyTransport {
	tc := theta.DefaultTransportConfig()
	tc.Timeout = cfg.Timeout()
	return theta.NewTransport(tc)
}

// ProvideClient builds the paginated fetch client (for Wire).
func ProvideClient(cfg *Config, transport *theta.RestyTransport, log *slog.Logger) *theta.Client {
	return theta.NewClient(transport, theta.ClientConfig{
		BaseURL:     cfg.BaseURL,
		MaxPages:    cfg.MaxPages,
		StreamPages: cfg.StreamPages,
	}, log)
}

// ProvideCodec resolves the configured parquet codec (for Wire).
func ProvideCodec(cfg *Config) (compress.Compression, error) {
	codec, err := columnar.CodecFromString(cfg.Codec)
	if err != nil {
		return codec, fmt.Errorf("CODEC: %w", err)
	}
	return codec, nil
}

// ProvidePipeline wires the full run pipeline (for Wire).
func ProvidePipeline(client *theta.Client, cfg *Config, codec compress.Compression, log *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(client, cfg.FetchWorkers, codec, log)
}

// ProvideUploader builds the local artifact destination (for Wire).
func ProvideUploader(cfg *Config) export.DirUploader {
	return export.DirUploader{Dir: cfg.OutputDir}
}

// ProvideSnapshotSaver creates the optional snapshot saver from config (for
// Wire). An empty SNAPSHOT_FORMAT disables snapshots; an unknown one is an
// error.
func ProvideSnapshotSaver(cfg *Config) (export.SnapshotSaver, error) {
	if cfg.SnapshotFormat == "" {
		return nil, nil
	}
	s := export.NewSnapshotSaver(cfg.SnapshotFormat)
	if s == nil {
		return nil, fmt.Errorf("unsupported SNAPSHOT_FORMAT %q (use: parquet, json, csv)", cfg.SnapshotFormat)
	}
	return s, nil
}
