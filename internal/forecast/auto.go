package forecast

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/edbertocampo/COVID-19-Data-Analysis/internal/timeseries"
	"gonum.org/v1/gonum/mat"
)

// SearchConfig bounds the automatic order search.
type SearchConfig struct {
	MaxP int
	MaxD int
	MaxQ int
}

// DefaultSearchConfig returns the standard search bounds.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{MaxP: 5, MaxD: 2, MaxQ: 5}
}

// SearchResult is the outcome of an automatic order search.
type SearchResult struct {
	Model     *Model
	Order     Order
	AICc      float64
	Evaluated int // candidates fitted, admissible or not
	Rejected  int // candidates discarded for divergence or inadmissible roots
}

// Search fits every (p,d,q) candidate inside the configured bounds on the
// training series and returns the admissible fit with the lowest AICc. A
// candidate is admissible when its fit converged and the roots of both the
// AR and MA polynomials make the model stationary and invertible.
// Candidates are visited in ascending parameter-count order, so equal
// criteria resolve to the simplest model.
//
// Search is a pure function of its inputs: every candidate fit is
// independent, and the result is the criterion minimum regardless of
// evaluation order.
func Search(train *timeseries.Series, cfg SearchConfig) (*SearchResult, error) {
	candidates := enumerateOrders(cfg)

	best := &SearchResult{AICc: math.Inf(1)}
	for _, order := range candidates {
		model, err := Fit(train, order)
		if model != nil {
			best.Evaluated++
		}
		if err != nil {
			best.Rejected++
			continue
		}
		if !admissible(model) {
			best.Rejected++
			continue
		}
		// The nil check keeps a degenerate (zero-variance) series from
		// rejecting every candidate on an infinite criterion.
		if best.Model == nil || model.AICc < best.AICc {
			best.Model = model
			best.Order = order
			best.AICc = model.AICc
		}
	}

	if best.Model == nil {
		return nil, fmt.Errorf("%w: no admissible model in p<=%d, d<=%d, q<=%d over %d training observations",
			ErrInsufficientData, cfg.MaxP, cfg.MaxD, cfg.MaxQ, train.Len())
	}
	return best, nil
}

// enumerateOrders lists every candidate order, sorted so that simpler models
// (fewer ARMA parameters, then less differencing) come first.
func enumerateOrders(cfg SearchConfig) []Order {
	var orders []Order
	for d := 0; d <= cfg.MaxD; d++ {
		for p := 0; p <= cfg.MaxP; p++ {
			for q := 0; q <= cfg.MaxQ; q++ {
				orders = append(orders, Order{P: p, D: d, Q: q})
			}
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Params() != orders[j].Params() {
			return orders[i].Params() < orders[j].Params()
		}
		if orders[i].D != orders[j].D {
			return orders[i].D < orders[j].D
		}
		return orders[i].P < orders[j].P
	})
	return orders
}

// admissible reports whether the fitted polynomial roots keep the model
// stationary (AR side) and invertible (MA side).
func admissible(m *Model) bool {
	if !m.Converged() {
		return false
	}
	if !recursionStable(m.AR) {
		return false
	}
	negated := make([]float64, len(m.MA))
	for i, theta := range m.MA {
		negated[i] = -theta
	}
	return recursionStable(negated)
}

// recursionStable checks that the linear recurrence with the given
// coefficients is stable: all eigenvalues of its companion matrix lie
// strictly inside the unit circle. Equivalently, the roots of the
// characteristic polynomial lie outside it.
func recursionStable(coeffs []float64) bool {
	k := len(coeffs)
	if k == 0 {
		return true
	}
	if k == 1 {
		return math.Abs(coeffs[0]) < 1
	}

	companion := mat.NewDense(k, k, nil)
	for j, c := range coeffs {
		companion.Set(0, j, c)
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return false
		}
	}
	return true
}
