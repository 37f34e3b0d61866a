// Package pipeline orchestrates one batch run: load the raw feeds,
// normalize and aggregate them, reconcile the canonical series, and hand it
// to the forecasting engine. Stages run strictly in order; each run owns its
// derived data exclusively and recomputes everything from the raw feeds.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/domain"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/forecast"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/observability"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/timeseries"
)

// FeedSource supplies the raw feeds for one run. The CSV adapter is the
// production implementation; tests inject in-memory feeds.
type FeedSource interface {
	Feeds(ctx context.Context) (domain.FeedSet, error)
}

// Pipeline wires the reconciliation stages to the forecasting engine with
// logging and metrics.
type Pipeline struct {
	source  FeedSource
	engine  *forecast.Engine
	logger  *slog.Logger
	metrics *observability.Metrics
	acfLags int
}

// New creates a Pipeline. acfLags bounds the residual autocorrelation
// analysis; 0 uses the forecast package default.
func New(source FeedSource, engine *forecast.Engine, logger *slog.Logger, metrics *observability.Metrics, acfLags int) *Pipeline {
	return &Pipeline{
		source:  source,
		engine:  engine,
		logger:  logger,
		metrics: metrics,
		acfLags: acfLags,
	}
}

// Report is everything one run yields for downstream consumers: the
// canonical series and per-country deaths for the chart/map renderers, the
// forecast against the held-out window, and the fixed-fit residual
// diagnostics.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	Canonical      domain.CanonicalSeries `json:"canonical_series"`
	DeathsByRegion []domain.RegionTotal   `json:"deaths_by_region"`

	SelectedOrder   forecast.Order   `json:"selected_order"`
	DiagnosticOrder forecast.Order   `json:"diagnostic_order"`
	Forecast        *forecast.Result `json:"forecast,omitempty"`

	Residuals   []forecast.ResidualPoint   `json:"residuals,omitempty"`
	ResidualACF *forecast.ACFResult        `json:"residual_acf,omitempty"`
	LjungBox    *timeseries.LjungBoxResult `json:"ljung_box,omitempty"`
}

// Run executes one batch over the source feeds.
//
// Schema and reconciliation failures abort with nothing to report. A series
// too short to forecast returns the partially-filled report together with
// the error: the aggregation output computed before framing stays valid.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	feeds, err := p.timedFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	normalized, err := p.normalizeAll(feeds)
	if err != nil {
		return nil, err
	}
	p.metrics.StageDuration.WithLabelValues("normalize").Observe(time.Since(start).Seconds())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	input := domain.ReconcileInput{
		PrimaryConfirmed:  domain.SumByDate(normalized.confirmedGlobal),
		FallbackConfirmed: domain.SumByDate(normalized.confirmed),
		PivotConfirmed:    domain.SumByDate(normalized.confirmedPivot),
		PrimaryDeaths:     domain.SumByDate(normalized.deathsGlobal),
		FallbackDeaths:    domain.SumByDate(normalized.deathsPivot),
		Recovered:         domain.SumByDate(normalized.recovered),
	}
	deathsByRegion := domain.TotalsByRegion(normalized.deathsGlobal)
	p.metrics.StageDuration.WithLabelValues("aggregate").Observe(time.Since(start).Seconds())

	start = time.Now()
	canonical, err := domain.Reconcile(input)
	if err != nil {
		return nil, fmt.Errorf("reconcile series: %w", err)
	}
	p.metrics.StageDuration.WithLabelValues("reconcile").Observe(time.Since(start).Seconds())
	p.logger.Info("series reconciled",
		"days", len(canonical),
		"from", canonical[0].Date.Format("2006-01-02"),
		"to", canonical[len(canonical)-1].Date.Format("2006-01-02"),
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:     clock.Now(),
		Canonical:       canonical,
		DeathsByRegion:  deathsByRegion,
		DiagnosticOrder: forecast.DiagnosticOrder,
	}

	start = time.Now()
	out, err := p.engine.Run(canonical)
	p.metrics.StageDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			// The reconciled series and per-country aggregate stand on
			// their own; only the forecasting half is lost.
			return report, fmt.Errorf("forecast: %w", err)
		}
		return nil, fmt.Errorf("forecast: %w", err)
	}
	p.metrics.ModelsEvaluated.Add(float64(out.Search.Evaluated))
	p.metrics.ModelsRejected.Add(float64(out.Search.Rejected))

	report.SelectedOrder = out.Search.Order
	report.Forecast = out.Forecast

	if diag := forecast.Diagnose(out.Diagnostic, out.Train, p.acfLags); diag != nil {
		report.Residuals = diag.Residuals
		report.ResidualACF = diag.ACF
		report.LjungBox = diag.LjungBox
	} else {
		p.logger.Warn("residual diagnostics skipped", "reason", out.DiagnosticErr)
	}

	p.logger.Info("pipeline finished",
		"selected_order", report.SelectedOrder.String(),
		"horizon", out.Forecast.Horizon,
		"residuals", len(report.Residuals),
	)
	return report, nil
}

func (p *Pipeline) timedFeeds(ctx context.Context) (domain.FeedSet, error) {
	start := time.Now()
	feeds, err := p.source.Feeds(ctx)
	p.metrics.StageDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	return feeds, err
}

// normalizedFeeds groups the long-format points per source feed.
type normalizedFeeds struct {
	confirmedGlobal []domain.RegionMetricPoint
	deathsGlobal    []domain.RegionMetricPoint
	recovered       []domain.RegionMetricPoint
	confirmed       []domain.RegionMetricPoint
	confirmedPivot  []domain.RegionMetricPoint
	deathsPivot     []domain.RegionMetricPoint
}

func (p *Pipeline) normalizeAll(feeds domain.FeedSet) (*normalizedFeeds, error) {
	var out normalizedFeeds
	var err error

	if out.confirmedGlobal, err = p.normalizeOne(feeds.ConfirmedGlobal, domain.MetricConfirmed); err != nil {
		return nil, err
	}
	if out.deathsGlobal, err = p.normalizeOne(feeds.DeathsGlobal, domain.MetricDeaths); err != nil {
		return nil, err
	}
	if out.recovered, err = p.normalizeOne(feeds.Recovered, domain.MetricRecovered); err != nil {
		return nil, err
	}
	if out.confirmed, err = p.normalizeOne(feeds.Confirmed, domain.MetricConfirmed); err != nil {
		return nil, err
	}
	if out.confirmedPivot, err = p.normalizeOne(feeds.ConfirmedPivot, domain.MetricConfirmed); err != nil {
		return nil, err
	}
	if out.deathsPivot, err = p.normalizeOne(feeds.DeathsPivot, domain.MetricDeaths); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Pipeline) normalizeOne(feed domain.RawFeed, metric domain.Metric) ([]domain.RegionMetricPoint, error) {
	points, stats, err := domain.NormalizeFeed(feed, metric)
	if err != nil {
		return nil, fmt.Errorf("normalize feed %q: %w", feed.Name, err)
	}

	p.metrics.FeedRowsParsed.WithLabelValues(feed.Name).Add(float64(stats.Rows))
	p.metrics.PointsNormalized.WithLabelValues(feed.Name).Add(float64(stats.Points))
	p.metrics.ParseErrors.WithLabelValues(feed.Name, "dropped_column").Add(float64(len(stats.DroppedColumns)))
	p.metrics.ParseErrors.WithLabelValues(feed.Name, "bad_cell").Add(float64(stats.BadCells))

	if len(stats.DroppedColumns) > 0 || stats.BadCells > 0 {
		p.logger.Warn("feed normalized with recovered parse errors",
			"feed", feed.Name,
			"dropped_columns", stats.DroppedColumns,
			"bad_cells", stats.BadCells,
		)
	}
	p.logger.Debug("feed normalized",
		"feed", feed.Name,
		"rows", stats.Rows,
		"points", stats.Points,
		"identifier_columns", stats.IdentifierColumns,
		"empty_cells", stats.EmptyCells,
	)
	return points, nil
}
