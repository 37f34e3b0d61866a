// Command analyze runs one batch over the local COVID-19 feed exports:
// reconcile the canonical daily series, forecast the held-out window, and
// report residual diagnostics. The report is written as JSON to stdout or
// OUTPUT_PATH for the chart/map renderers to consume.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/adapter/csvfeed"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/config"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/forecast"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/observability"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	loader := csvfeed.NewLoader(cfg, logger)
	engine := forecast.NewEngine(forecast.SearchConfig{
		MaxP: cfg.MaxP,
		MaxD: cfg.MaxD,
		MaxQ: cfg.MaxQ,
	}, cfg.SeasonalPeriod, logger)
	p := pipeline.New(loader, engine, logger, metrics, cfg.ACFLags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx)
	if err != nil {
		if report == nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}
		// The reconciled series survived; only forecasting was lost.
		logger.Error("forecast unavailable, reporting reconciled series only", "error", err)
	}

	if err := writeReport(cfg.OutputPath, report); err != nil {
		logger.Error("failed to write report", "path", cfg.OutputPath, "error", err)
		os.Exit(1)
	}
	logger.Info("report written", "path", cfg.OutputPath)
}

func writeReport(path string, report *pipeline.Report) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
