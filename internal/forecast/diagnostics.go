package forecast

import (
	"time"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/timeseries"
)

// DefaultACFLags bounds the residual autocorrelation analysis.
const DefaultACFLags = 25

// ResidualPoint is one training residual paired with the date of the
// observation it belongs to.
type ResidualPoint struct {
	Date     time.Time `json:"date"`
	Residual float64   `json:"residual"`
}

// ACFResult holds autocorrelation values per lag with the descriptive 95%
// confidence bound. The bound characterizes the values; nothing gates on it.
type ACFResult struct {
	Lags      []int     `json:"lags"`
	Values    []float64 `json:"values"`
	ConfBound float64   `json:"conf_bound"`
}

// Diagnostics characterizes the residual quality of the fixed-order fit.
type Diagnostics struct {
	Residuals []ResidualPoint
	ACF       *ACFResult
	LjungBox  *timeseries.LjungBoxResult
}

// Diagnose pairs the model's residuals with the earliest training dates and
// computes their autocorrelation structure. The residual series is shorter
// than the training series by the differencing order, so it aligns to the
// front of the training window.
//
// Returns nil when there is no model or it produced no residuals, in which
// case diagnostics are skipped for the run.
func Diagnose(model *Model, train *timeseries.Series, maxLag int) *Diagnostics {
	if model == nil {
		return nil
	}
	residuals := model.Residuals()
	if len(residuals) == 0 {
		return nil
	}
	if maxLag <= 0 {
		maxLag = DefaultACFLags
	}

	points := make([]ResidualPoint, len(residuals))
	for i, r := range residuals {
		points[i] = ResidualPoint{Date: train.Dates[i], Residual: r}
	}

	residualSeries := &timeseries.Series{Values: residuals, Period: train.Period}

	d := &Diagnostics{
		Residuals: points,
		LjungBox:  residualSeries.LjungBox(min(10, len(residuals)-1), model.Order.Params()),
	}

	if acf := residualSeries.ACF(maxLag); acf != nil {
		lags := make([]int, len(acf))
		for i := range lags {
			lags[i] = i
		}
		d.ACF = &ACFResult{
			Lags:      lags,
			Values:    acf,
			ConfBound: residualSeries.ConfBound(),
		}
	}

	return d
}
