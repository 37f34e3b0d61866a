// Package forecast fits ARIMA models to the reconciled daily-cases series
// and characterizes residual quality. Two fits exist per run: an
// auto-searched order used for forecasting, and a fixed diagnostic order
// whose residuals feed the autocorrelation analysis.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/timeseries"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInsufficientData marks a training window too short for the
	// requested order. Fatal for forecasting, but never invalidates the
	// aggregation output computed before framing.
	ErrInsufficientData = errors.New("insufficient data for model fit")

	// ErrFitDiverged marks a fit whose parameter estimates did not converge
	// within the iteration budget. The partially-fitted model is still
	// returned; diagnostics may run on whatever residuals it produced.
	ErrFitDiverged = errors.New("model fit did not converge")
)

// Order is an ARIMA (p,d,q) specification.
type Order struct {
	P int `json:"p"` // autoregressive terms
	D int `json:"d"` // differencing passes
	Q int `json:"q"` // moving-average terms
}

// Params returns the number of estimated ARMA coefficients, the tie-breaking
// key of the order search.
func (o Order) Params() int { return o.P + o.Q }

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model is a fitted ARIMA model bound to exactly one training series.
type Model struct {
	Order     Order
	AR        []float64 // phi coefficients
	MA        []float64 // theta coefficients
	Intercept float64
	Variance  float64
	LogLik    float64
	AIC       float64
	AICc      float64
	BIC       float64

	train     *timeseries.Series
	diffed    *timeseries.Series
	residuals []float64
	fitted    []float64
	converged bool
}

const (
	cssMaxIter      = 200
	cssTolerance    = 1e-6
	cssLearningRate = 0.01
)

// Fit estimates an ARIMA model of the given order on the training series
// using conditional-sum-of-squares maximization. AR coefficients start from
// Yule-Walker estimates and are refined jointly with the MA coefficients by
// gradient steps, clamped to keep each coefficient inside the unit interval.
//
// When the refinement exhausts its iteration budget without the sum of
// squares settling, the partially-fitted model is returned together with
// ErrFitDiverged.
func Fit(train *timeseries.Series, order Order) (*Model, error) {
	minObs := order.D + max(order.P, order.Q) + 1
	if train.Len() < minObs {
		return nil, fmt.Errorf("%w: %s needs at least %d training observations, have %d",
			ErrInsufficientData, order, minObs, train.Len())
	}

	diffed := train.DiffN(order.D)
	if diffed.Len() < 2 {
		return nil, fmt.Errorf("%w: differencing %d times leaves %d observations",
			ErrInsufficientData, order.D, diffed.Len())
	}

	m := &Model{
		Order:  order,
		AR:     make([]float64, order.P),
		MA:     make([]float64, order.Q),
		train:  train,
		diffed: diffed,
	}

	if order.P == 0 && order.Q == 0 {
		m.fitWhiteNoise()
	} else {
		m.fitCSS()
	}
	m.scoreFit()

	if !m.converged {
		return m, fmt.Errorf("%w: %s after %d iterations", ErrFitDiverged, order, cssMaxIter)
	}
	return m, nil
}

// fitWhiteNoise handles the (p=0, q=0) case: the differenced series modeled
// as noise around its mean.
func (m *Model) fitWhiteNoise() {
	y := m.diffed.Values
	m.Intercept = floats.Sum(y) / float64(len(y))

	m.residuals = make([]float64, len(y))
	m.fitted = make([]float64, len(y))
	sse := 0.0
	for i, v := range y {
		m.fitted[i] = m.Intercept
		m.residuals[i] = v - m.Intercept
		sse += m.residuals[i] * m.residuals[i]
	}
	if len(y) > 1 {
		m.Variance = sse / float64(len(y)-1)
	}
	m.converged = true
}

// fitCSS runs the conditional-sum-of-squares refinement.
func (m *Model) fitCSS() {
	y := m.diffed.Values
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	m.Intercept = floats.Sum(y) / float64(n)

	if p > 0 {
		if acf := m.diffed.ACF(p); acf != nil {
			if phi := yuleWalker(acf, p); phi != nil {
				copy(m.AR, phi)
			}
		}
	}
	for i := range m.MA {
		m.MA[i] = 0.1
	}

	start := max(p, q)
	residuals := make([]float64, n)
	arGrad := make([]float64, p)
	maGrad := make([]float64, q)

	prevSSE := math.Inf(1)
	for iter := 0; iter < cssMaxIter; iter++ {
		sse := m.conditionalResiduals(y, residuals, start)

		if math.Abs(prevSSE-sse) < cssTolerance {
			m.converged = true
			break
		}
		prevSSE = sse

		for i := range arGrad {
			arGrad[i] = 0
		}
		for i := range maGrad {
			maGrad[i] = 0
		}
		for t := start; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.AR[i] = clamp(m.AR[i]-cssLearningRate*arGrad[i]/float64(n), -0.99, 0.99)
		}
		for i := 0; i < q; i++ {
			m.MA[i] = clamp(m.MA[i]-cssLearningRate*maGrad[i]/float64(n), -0.99, 0.99)
		}
	}

	// Final in-sample pass over every observation, including the warmup
	// window, so the residual series matches the differenced series length.
	m.residuals = make([]float64, n)
	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < start {
			m.fitted[t] = m.Intercept
			m.residuals[t] = y[t] - m.Intercept
			continue
		}
		pred := m.predictOne(y, m.residuals, t)
		m.fitted[t] = pred
		m.residuals[t] = y[t] - pred
	}

	sse := 0.0
	count := 0
	for t := start; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	dof := count - p - q - 1
	if dof > 0 {
		m.Variance = sse / float64(dof)
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}
}

// conditionalResiduals fills res with one-step prediction errors from start
// onward and returns their sum of squares.
func (m *Model) conditionalResiduals(y, res []float64, start int) float64 {
	for i := range res {
		res[i] = 0
	}
	sse := 0.0
	for t := start; t < len(y); t++ {
		res[t] = y[t] - m.predictOne(y, res, t)
		sse += res[t] * res[t]
	}
	return sse
}

// predictOne evaluates the ARMA recursion for observation t of the
// differenced series.
func (m *Model) predictOne(y, res []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.AR[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MA[i] * res[t-i-1]
	}
	return pred
}

// scoreFit computes the Gaussian log-likelihood and the information criteria.
func (m *Model) scoreFit() {
	n := float64(len(m.residuals))
	k := float64(m.Order.Params() + 1) // ARMA coefficients plus intercept

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -n/2*math.Log(2*math.Pi) - n/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
}

// Forecast generates steps point forecasts by running the fitted recursion
// forward from the end of the training data, with future shocks at their
// zero expectation, then re-integrating onto the original scale. It never
// consumes observations beyond the training window.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("forecast steps must be positive, got %d", steps)
	}

	y := m.diffed.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extRes := make([]float64, n+steps)
	copy(extRes, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
			pred += m.AR[i] * (extY[t-i-1] - m.Intercept)
		}
		for i := 0; i < m.Order.Q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MA[i] * extRes[t-i-1]
		}
		extY[t] = pred
		extRes[t] = 0
	}

	forecasts := make([]float64, steps)
	copy(forecasts, extY[n:])
	if m.Order.D > 0 {
		forecasts = m.integrate(forecasts)
	}
	return forecasts, nil
}

// integrate undoes the differencing one pass at a time, innermost first.
// The pass lifting the forecasts from the i+1-times to the i-times
// differenced scale must cumulate from the last value of the training series
// differenced i times; seeding from raw levels would corrupt every pass but
// the final one.
func (m *Model) integrate(forecasts []float64) []float64 {
	result := forecasts
	for i := m.Order.D - 1; i >= 0; i-- {
		diffed := m.train.DiffN(i)
		last := diffed.Values[diffed.Len()-1]
		for j := range result {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}
	return result
}

// Residuals returns a copy of the in-sample residuals. Their length equals
// the differenced series, i.e. the training length minus the differencing
// order.
func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// FittedValues returns a copy of the in-sample one-step predictions on the
// differenced scale.
func (m *Model) FittedValues() []float64 {
	out := make([]float64, len(m.fitted))
	copy(out, m.fitted)
	return out
}

// Converged reports whether the CSS refinement settled within tolerance.
func (m *Model) Converged() bool { return m.converged }

// yuleWalker solves the Yule-Walker equations for initial AR estimates via
// Levinson-Durbin recursion on the autocorrelations.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		if v == 0 {
			break
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}
	return phi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
