package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"option-data/internal/export"
	"option-data/internal/pipeline"
	"option-data/internal/schema"
	"option-data/internal/slogx"
	"option-data/internal/theta"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	root := flag.String("root", "", "underlying symbol, e.g. AAPL")
	start := flag.String("start", "", "start date YYYYMMDD")
	end := flag.String("end", "", "end date YYYYMMDD (default: start)")
	exp := flag.String("exp", "0", "expiration YYYYMMDD, 0 for all in window")
	shape := flag.String("shape", "quote", "tick shape: quote, ohlc, eod")
	maxDTE := flag.Int("max-dte", 30, "maximum days to expiration")
	basePct := flag.Float64("base-pct", 0.1, "moneyness threshold at dte=1")
	interval := flag.Int("ivl", 0, "tick interval in ms (0: terminal default)")
	flag.Parse()

	a, err := InitializeApp()
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(a.Log)

	req, err := buildRequest(*root, *start, *end, *exp, *shape, *maxDTE, *basePct, *interval)
	if err != nil {
		slog.Error("invalid arguments", "error", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	out, err := a.Pipeline.Run(ctx, req)
	if err != nil {
		if theta.IsNoData(err) {
			slog.Info("no data for the requested window", "root", req.Option.Root)
			return
		}
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	for _, artifact := range []export.Artifact{out.Parquet, out.IPC} {
		if err := a.Uploader.Upload(ctx, artifact); err != nil {
			slog.Error("artifact upload failed", "key", artifact.Key, "error", err)
			os.Exit(1)
		}
		slog.Info("artifact written", "key", artifact.Key, "bytes", len(artifact.Data))
	}
	if len(out.Padded) > 0 {
		slog.Warn("columns padded during assembly", "fields", out.Padded)
	}
	if out.Truncated {
		slog.Warn("pagination safety cap hit; result may be incomplete")
	}
	slog.Info("done", "run", out.RunID, "rows", out.Rows)

	if a.Saver != nil {
		if err := writeSnapshot(ctx, a, req, out.RunID); err != nil {
			slog.Warn("snapshot failed", "error", err)
		}
	}
}

func buildRequest(root, start, end, exp, shape string, maxDTE int, basePct float64, interval int) (pipeline.Request, error) {
	var req pipeline.Request
	if root == "" || start == "" {
		return req, fmt.Errorf("-root and -start are required")
	}
	startDate, err := parseDateArg(start)
	if err != nil {
		return req, fmt.Errorf("-start: %w", err)
	}
	endDate := startDate
	if end != "" {
		if endDate, err = parseDateArg(end); err != nil {
			return req, fmt.Errorf("-end: %w", err)
		}
	}
	expDate := uint32(0)
	if exp != "" && exp != "0" {
		if expDate, err = parseDateArg(exp); err != nil {
			return req, fmt.Errorf("-exp: %w", err)
		}
	}
	req = pipeline.Request{
		Option: theta.OptionRequest{
			Root:      root,
			Exp:       expDate,
			StartDate: startDate,
			EndDate:   endDate,
			Shape:     schema.Shape(shape),
			Interval:  interval,
		},
		MaxDTE:  maxDTE,
		BasePct: basePct,
	}
	return req, req.Option.Validate()
}

func parseDateArg(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || len(s) != 8 {
		return 0, fmt.Errorf("want YYYYMMDD, got %q", s)
	}
	return uint32(n), nil
}

// writeSnapshot refetches and dumps the filtered rows in the configured
// debug format. Snapshots are a diagnostic aid; the extra fetch keeps the
// main artifact path untouched.
func writeSnapshot(ctx context.Context, a *App, req pipeline.Request, runID string) error {
	records, err := a.Pipeline.FilteredRecords(ctx, req)
	if err != nil {
		return err
	}
	rows, err := export.RowsFromRecords(records, req.Option.Shape)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.Config.SnapshotDir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%d_%s.%s", req.Option.Root, req.Option.StartDate, runID, a.Saver.Extension())
	path := filepath.Join(a.Config.SnapshotDir, name)
	if err := a.Saver.Save(rows, path); err != nil {
		return err
	}
	slog.Info("snapshot written", "path", path, "rows", len(rows))
	return nil
}
