// Package timeseries provides the dated series type and operations the
// forecasting engine builds on: differencing, splitting, and autocorrelation.
package timeseries

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrTooShort marks a series with too few observations for the requested
// operation.
var ErrTooShort = errors.New("series too short")

// Series is an ordered sequence of dated observations with a fixed seasonal
// period (7 for the weekly reporting cycle). Dates and Values are always the
// same length.
type Series struct {
	Dates  []time.Time
	Values []float64
	Period int
}

// New builds a series from parallel date and value slices.
func New(dates []time.Time, values []float64, period int) (*Series, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("dates and values length mismatch: %d vs %d", len(dates), len(values))
	}
	return &Series{Dates: dates, Values: values, Period: period}, nil
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean returns the arithmetic mean of the values.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance returns the sample variance of the values.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Diff returns the first difference of the series. The result is one
// observation shorter and keeps the later dates.
func (s *Series) Diff() *Series {
	if len(s.Values) < 2 {
		return &Series{Period: s.Period}
	}
	values := make([]float64, len(s.Values)-1)
	for i := 1; i < len(s.Values); i++ {
		values[i-1] = s.Values[i] - s.Values[i-1]
	}
	dates := make([]time.Time, len(values))
	copy(dates, s.Dates[1:])
	return &Series{Dates: dates, Values: values, Period: s.Period}
}

// DiffN applies Diff n times.
func (s *Series) DiffN(n int) *Series {
	out := s
	for i := 0; i < n; i++ {
		out = out.Diff()
	}
	return out
}

// Slice returns a copy of the observations in [start, end).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Period: s.Period}
	}
	values := make([]float64, end-start)
	copy(values, s.Values[start:end])
	dates := make([]time.Time, end-start)
	copy(dates, s.Dates[start:end])
	return &Series{Dates: dates, Values: values, Period: s.Period}
}

// Split divides the series into a training prefix holding the first 80% of
// observations (rounded down) and a test suffix with the remainder,
// preserving order. A series shorter than two observations cannot be split.
func (s *Series) Split() (train, test *Series, err error) {
	n := s.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 observations to split, have %d", ErrTooShort, n)
	}
	trainSize := int(0.8 * float64(n))
	return s.Slice(0, trainSize), s.Slice(trainSize, n), nil
}
