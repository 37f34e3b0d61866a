package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	train := trainSeries(10, 12, 9, 14, 11, 13, 10, 15, 12, 16)

	model, err := Fit(train, Order{D: 1})
	require.NoError(t, err)

	d := Diagnose(model, train, 5)
	require.NotNil(t, d)

	// Residuals align to the earliest training dates and run one short of
	// the training window because of the differencing pass.
	require.Len(t, d.Residuals, train.Len()-1)
	for i, p := range d.Residuals {
		assert.Equal(t, train.Dates[i], p.Date, "residual %d", i)
	}

	require.NotNil(t, d.ACF)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, d.ACF.Lags)
	assert.Len(t, d.ACF.Values, 6)
	assert.InDelta(t, 1.0, d.ACF.Values[0], 1e-12)
	assert.Greater(t, d.ACF.ConfBound, 0.0)

	require.NotNil(t, d.LjungBox)
	assert.GreaterOrEqual(t, d.LjungBox.PValue, 0.0)
	assert.LessOrEqual(t, d.LjungBox.PValue, 1.0)
}

func TestDiagnose_NoModel(t *testing.T) {
	train := trainSeries(1, 2, 3)
	assert.Nil(t, Diagnose(nil, train, 10))
	assert.Nil(t, Diagnose(&Model{}, train, 10))
}

func TestDiagnose_DefaultLag(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i % 5)
	}
	train := trainSeries(values...)

	model, err := Fit(train, Order{})
	require.NoError(t, err)

	d := Diagnose(model, train, 0)
	require.NotNil(t, d)
	require.NotNil(t, d.ACF)
	assert.Len(t, d.ACF.Values, DefaultACFLags+1)
}
