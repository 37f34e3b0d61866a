package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/domain"
	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/timeseries"
)

// SeasonalPeriod is the weekly reporting cycle the daily series is framed
// with.
const SeasonalPeriod = 7

// DiagnosticOrder is the fixed specification fitted alongside the searched
// model. Its residuals, not the forecasting model's, feed the
// autocorrelation diagnostics; the two fits are deliberately independent.
var DiagnosticOrder = Order{P: 3, D: 1, Q: 4}

// Engine frames the canonical series, splits it, selects a model by
// automatic order search, forecasts the test window, and produces the fixed
// diagnostic fit.
type Engine struct {
	search SearchConfig
	period int
	logger *slog.Logger
}

// NewEngine creates an Engine. A period of 0 defaults to SeasonalPeriod.
func NewEngine(search SearchConfig, period int, logger *slog.Logger) *Engine {
	if period <= 0 {
		period = SeasonalPeriod
	}
	return &Engine{search: search, period: period, logger: logger}
}

// Result pairs the held-out test values with the point forecasts covering
// the same horizon.
type Result struct {
	Horizon  int       `json:"horizon"`
	Actual   []float64 `json:"actual"`
	Forecast []float64 `json:"forecasted"`
}

// Output carries everything one engine run produces.
type Output struct {
	Train *timeseries.Series
	Test  *timeseries.Series

	Search   *SearchResult
	Forecast *Result

	// Diagnostic is the fixed-order fit. It may be present even when
	// DiagnosticErr is set, if the diverged fit still produced residuals.
	Diagnostic    *Model
	DiagnosticErr error
}

// Frame extracts the daily-cases column of the canonical series as a
// periodic frame, dropping rows where the column is undefined.
func Frame(series domain.CanonicalSeries, period int) *timeseries.Series {
	dates := make([]time.Time, 0, len(series))
	values := make([]float64, 0, len(series))
	for _, rec := range series {
		if rec.DailyCases == nil {
			continue
		}
		dates = append(dates, rec.Date)
		values = append(values, *rec.DailyCases)
	}
	return &timeseries.Series{Dates: dates, Values: values, Period: period}
}

// Run executes framing, splitting, order search, forecasting, and the fixed
// diagnostic fit over the canonical series.
//
// A series too short to split or to fit any admissible model returns
// ErrInsufficientData. A diagnostic fit that fails to converge is recorded
// in Output.DiagnosticErr, not returned: the forecast stands, and residual
// diagnostics run on whatever the fixed fit produced.
func (e *Engine) Run(series domain.CanonicalSeries) (*Output, error) {
	frame := Frame(series, e.period)

	train, test, err := frame.Split()
	if err != nil {
		if errors.Is(err, timeseries.ErrTooShort) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
		}
		return nil, err
	}
	e.logger.Info("series framed",
		"observations", frame.Len(),
		"period", e.period,
		"train", train.Len(),
		"test", test.Len(),
	)

	search, err := Search(train, e.search)
	if err != nil {
		return nil, fmt.Errorf("order search failed: %w", err)
	}
	e.logger.Info("model selected",
		"order", search.Order.String(),
		"aicc", search.AICc,
		"evaluated", search.Evaluated,
		"rejected", search.Rejected,
	)

	forecasts, err := search.Model.Forecast(test.Len())
	if err != nil {
		return nil, fmt.Errorf("forecast with %s failed: %w", search.Order, err)
	}

	actual := make([]float64, test.Len())
	copy(actual, test.Values)

	out := &Output{
		Train:  train,
		Test:   test,
		Search: search,
		Forecast: &Result{
			Horizon:  test.Len(),
			Actual:   actual,
			Forecast: forecasts,
		},
	}

	diag, diagErr := Fit(train, DiagnosticOrder)
	out.Diagnostic = diag
	out.DiagnosticErr = diagErr
	if diagErr != nil {
		e.logger.Warn("diagnostic fit incomplete",
			"order", DiagnosticOrder.String(),
			"error", diagErr,
		)
	}

	return out, nil
}
