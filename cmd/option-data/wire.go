//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/google/wire"

	"option-data/internal/app"
	"option-data/internal/export"
	"option-data/internal/pipeline"
)

// App holds application dependencies built by Wire.
type App struct {
	Config   *app.Config
	Log      *slog.Logger
	Pipeline *pipeline.Pipeline
	Uploader export.DirUploader
	Saver    export.SnapshotSaver
}

// InitializeApp builds App via Wire.
func InitializeApp() (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideTransport,
		app.ProvideClient,
		app.ProvideCodec,
		app.ProvidePipeline,
		app.ProvideUploader,
		app.ProvideSnapshotSaver,
		wire.Struct(new(App), "Config", "Log", "Pipeline", "Uploader", "Saver"),
	)
	return nil, nil
}
