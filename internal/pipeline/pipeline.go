// Package pipeline runs one logical request end to end: fork/join fetch of
// the option and underlying datasets, time-matched moneyness filtering,
// columnar assembly, and encoding into the two artifact formats.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"option-data/internal/columnar"
	"option-data/internal/export"
	"option-data/internal/filter"
	"option-data/internal/slogx"
	"option-data/internal/theta"
)

// Request is one logical pipeline run.
type Request struct {
	Option  theta.OptionRequest
	MaxDTE  int
	BasePct float64
}

// Output carries both encoded artifacts plus run bookkeeping.
type Output struct {
	RunID     string
	Parquet   export.Artifact
	IPC       export.Artifact
	Rows      int64
	Padded    []string // fields substituted with all-null columns during assembly
	Truncated bool     // either fetch hit the silent page cap
}

// Pipeline wires the fetch client to the pure transform stages. It holds no
// per-request state; Run may be called concurrently.
type Pipeline struct {
	client  *theta.Client
	workers int
	codec   compress.Compression
	log     *slog.Logger
}

// New builds a pipeline. workers bounds the fork/join fetch pair (values
// below 1 collapse to sequential fetching); codec applies to parquet output.
func New(client *theta.Client, workers int, codec compress.Compression, log *slog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slogx.Default
	}
	return &Pipeline{client: client, workers: workers, codec: codec, log: log}
}

// Run executes one request. A no-data response from either fetch surfaces as
// theta.ErrNoData so callers can skip instead of retry; any other fetch
// failure aborts the whole request with no partial merge.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Output, error) {
	runID := uuid.NewString()
	log := slogx.WithRun(p.log, runID, req.Option.Root)
	log.Info("pipeline run starting",
		"shape", string(req.Option.Shape),
		"start_date", req.Option.StartDate,
		"end_date", req.Option.EndDate,
		"max_dte", req.MaxDTE,
		"base_pct", req.BasePct)

	// Exactly two tasks scoped to this request; no pool survives the call.
	var (
		optRes *theta.OptionResponse
		stkRes *theta.StockResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	g.Go(func() error {
		var err error
		optRes, err = p.client.FetchOptionTicks(gctx, req.Option)
		if err != nil {
			return fmt.Errorf("option fetch: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stkRes, err = p.client.FetchStockTicks(gctx, theta.StockFromOption(req.Option))
		if err != nil {
			return fmt.Errorf("stock fetch: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if theta.IsNoData(err) {
			log.Info("no data for request window, skipping")
		}
		return nil, err
	}

	records := filter.Apply(optRes.Items, stkRes.Ticks, req.Option.Shape, filter.Params{
		AsOfDate: req.Option.StartDate,
		MaxDTE:   req.MaxDTE,
		BasePct:  req.BasePct,
	}, log)
	log.Info("filter complete",
		"contracts", len(optRes.Items),
		"underlying_ticks", len(stkRes.Ticks),
		"surviving_ticks", len(records))

	rec, padded, err := columnar.Assemble(records, stkRes.Ticks, req.Option.Root, req.Option.Shape, log)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	defer rec.Release()

	parquetBytes, err := columnar.EncodeParquet(rec, p.codec)
	if err != nil {
		return nil, fmt.Errorf("encode parquet: %w", err)
	}
	ipcBytes, err := columnar.EncodeIPC(rec)
	if err != nil {
		return nil, fmt.Errorf("encode ipc: %w", err)
	}

	out := &Output{
		RunID: runID,
		Parquet: export.Artifact{
			Key:  export.ObjectKey(req.Option.Root, req.Option.StartDate, req.Option.Shape, "parquet"),
			Data: parquetBytes,
		},
		IPC: export.Artifact{
			Key:  export.ObjectKey(req.Option.Root, req.Option.StartDate, req.Option.Shape, "ipc"),
			Data: ipcBytes,
		},
		Rows:      rec.NumRows(),
		Padded:    padded,
		Truncated: optRes.Pages.Truncated || stkRes.Pages.Truncated,
	}
	log.Info("pipeline run complete",
		"rows", out.Rows,
		"parquet_bytes", len(parquetBytes),
		"ipc_bytes", len(ipcBytes),
		"truncated", out.Truncated)
	return out, nil
}

// FilteredRecords exposes the filter stage alone, for snapshot tooling.
func (p *Pipeline) FilteredRecords(ctx context.Context, req Request) ([]filter.Record, error) {
	opt, err := p.client.FetchOptionTicks(ctx, req.Option)
	if err != nil {
		return nil, err
	}
	stk, err := p.client.FetchStockTicks(ctx, theta.StockFromOption(req.Option))
	if err != nil {
		return nil, err
	}
	return filter.Apply(opt.Items, stk.Ticks, req.Option.Shape, filter.Params{
		AsOfDate: req.Option.StartDate,
		MaxDTE:   req.MaxDTE,
		BasePct:  req.BasePct,
	}, p.log), nil
}
