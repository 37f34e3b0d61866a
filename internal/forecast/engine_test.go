package forecast

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonicalFromValues(values []*float64) domain.CanonicalSeries {
	base := time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)
	series := make(domain.CanonicalSeries, len(values))
	for i, v := range values {
		series[i] = domain.DailyRecord{Date: base.AddDate(0, 0, i), DailyCases: v}
	}
	return series
}

func ptr(v float64) *float64 { return &v }

func TestFrame(t *testing.T) {
	series := canonicalFromValues([]*float64{ptr(1), nil, ptr(3), ptr(4), nil})

	frame := Frame(series, 7)
	require.Equal(t, 3, frame.Len())
	assert.Equal(t, []float64{1, 3, 4}, frame.Values)
	assert.Equal(t, series[0].Date, frame.Dates[0])
	assert.Equal(t, series[3].Date, frame.Dates[2])
	assert.Equal(t, 7, frame.Period)
}

func TestNewEngine_DefaultPeriod(t *testing.T) {
	e := NewEngine(DefaultSearchConfig(), 0, slog.Default())
	assert.Equal(t, SeasonalPeriod, e.period)
}

func TestEngineRun_SevenObservations(t *testing.T) {
	values := []*float64{ptr(10), ptr(12), ptr(9), ptr(14), ptr(11), ptr(13), ptr(10)}
	e := NewEngine(SearchConfig{MaxP: 2, MaxD: 1, MaxQ: 2}, 7, slog.Default())

	out, err := e.Run(canonicalFromValues(values))
	require.NoError(t, err)

	assert.Equal(t, 5, out.Train.Len())
	assert.Equal(t, 2, out.Test.Len())
	require.NotNil(t, out.Forecast)
	assert.Equal(t, 2, out.Forecast.Horizon)
	assert.Equal(t, []float64{13, 10}, out.Forecast.Actual)
	assert.Len(t, out.Forecast.Forecast, 2)

	// Five training observations cannot support the fixed (3,1,4) fit.
	require.Error(t, out.DiagnosticErr)
	assert.ErrorIs(t, out.DiagnosticErr, ErrInsufficientData)
	assert.Nil(t, out.Diagnostic)
}

func TestEngineRun_LongSeries(t *testing.T) {
	values := make([]*float64, 40)
	for i := range values {
		values[i] = ptr(100 + 4*float64(i) + 10*math.Sin(float64(i)*0.9))
	}
	e := NewEngine(SearchConfig{MaxP: 2, MaxD: 2, MaxQ: 2}, 7, slog.Default())

	out, err := e.Run(canonicalFromValues(values))
	require.NoError(t, err)

	assert.Equal(t, 32, out.Train.Len())
	assert.Equal(t, 8, out.Test.Len())
	assert.Equal(t, 8, out.Forecast.Horizon)
	assert.Len(t, out.Forecast.Forecast, 8)
	require.NotNil(t, out.Search)
	assert.True(t, out.Search.Model.Converged())

	// The fixed fit differences once, so its residuals run one short of
	// the training window, whether or not the fit converged.
	require.NotNil(t, out.Diagnostic)
	assert.Equal(t, DiagnosticOrder, out.Diagnostic.Order)
	assert.Len(t, out.Diagnostic.Residuals(), out.Train.Len()-1)
}

func TestEngineRun_TooShort(t *testing.T) {
	e := NewEngine(DefaultSearchConfig(), 7, slog.Default())

	_, err := e.Run(canonicalFromValues([]*float64{ptr(5)}))
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = e.Run(nil)
	require.ErrorIs(t, err, ErrInsufficientData)
}
