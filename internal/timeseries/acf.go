package timeseries

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ACF returns the autocorrelation function of the series for lags 0..maxLag.
// Lag 0 is always 1. Returns nil for an empty or constant series, where the
// function is undefined.
func (s *Series) ACF(maxLag int) []float64 {
	n := s.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(s.Values, nil)
	variance := 0.0
	for _, v := range s.Values {
		d := v - mean
		variance += d * d
	}
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (s.Values[i] - mean) * (s.Values[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf
}

// ConfBound returns the descriptive 95% confidence bound for the series'
// autocorrelations, ±1.96/√n.
func (s *Series) ConfBound() float64 {
	if s.Len() == 0 {
		return math.Inf(1)
	}
	return 1.96 / math.Sqrt(float64(s.Len()))
}

// LjungBoxResult holds the Ljung-Box portmanteau statistic for leftover
// autocorrelation. Descriptive output only; nothing gates on it.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"`
}

// LjungBox computes the Ljung-Box test over the first lags autocorrelations.
// fitdf is the number of model parameters (p+q for an ARMA fit) subtracted
// from the degrees of freedom. Returns nil when the series is too short or
// constant.
func (s *Series) LjungBox(lags, fitdf int) *LjungBoxResult {
	n := s.Len()
	if n < 3 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	acf := s.ACF(lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi2 := distuv.ChiSquared{K: float64(dof)}
	return &LjungBoxResult{
		Statistic: q,
		PValue:    1 - chi2.CDF(q),
		Lags:      lags,
		DOF:       dof,
	}
}
