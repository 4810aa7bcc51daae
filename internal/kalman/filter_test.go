package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func scalar(v float64) *mat.Dense { return mat.NewDense(1, 1, []float64{v}) }

func scalarFilter(t *testing.T, q, r float64) *Filter {
	t.Helper()
	f, err := New(1, 1)
	require.NoError(t, err)
	require.NoError(t, f.SetProcessNoise(scalar(q)))
	require.NoError(t, f.SetObservation(scalar(1)))
	require.NoError(t, f.SetMeasurementNoise(scalar(r)))
	return f
}

func TestFilterScalarSteps(t *testing.T) {
	f := scalarFilter(t, 1, 1)

	require.NoError(t, f.Step(scalar(2)))
	assert.InDelta(t, 1.0, f.State().At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, f.Covariance().At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, f.Innovation().At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, f.InnovationCovariance().At(0, 0), 1e-12)

	require.NoError(t, f.Step(scalar(2)))
	assert.InDelta(t, 1.6, f.State().At(0, 0), 1e-12)
	assert.InDelta(t, 0.6, f.Covariance().At(0, 0), 1e-12)
}

func TestFilterControl(t *testing.T) {
	f := scalarFilter(t, 0, 1)

	require.NoError(t, f.StepWithControl(scalar(0), scalar(3)))
	// prediction 3 with zero covariance is kept as is
	assert.InDelta(t, 3.0, f.State().At(0, 0), 1e-12)

	require.NoError(t, f.Step(scalar(0)))
	assert.InDelta(t, 6.0, f.State().At(0, 0), 1e-12, "control vector should persist")
}

func TestFilterSingularLeavesStateUnchanged(t *testing.T) {
	f := scalarFilter(t, 0, 0)
	require.NoError(t, f.SetState(scalar(5)))

	err := f.Step(scalar(1))
	require.ErrorIs(t, err, ErrSingular)
	assert.Equal(t, 5.0, f.State().At(0, 0))
	assert.Nil(t, f.Innovation())
}

func TestFilterDimensions(t *testing.T) {
	_, err := New(0, 1)
	require.ErrorIs(t, err, ErrDimension)

	f, err := New(2, 1)
	require.NoError(t, err)

	require.ErrorIs(t, f.SetObservation(mat.NewDense(2, 2, nil)), ErrDimension)
	require.ErrorIs(t, f.SetState(mat.NewDense(1, 1, nil)), ErrDimension)
	require.ErrorIs(t, f.Step(mat.NewDense(2, 1, nil)), ErrDimension)
	require.ErrorIs(t, f.StepWithControl(scalar(1), scalar(1)), ErrDimension)
}

func TestCointegrationFirstStep(t *testing.T) {
	// delta 0.5 gives Q = I
	c, err := NewCointegration(0.5, 1)
	require.NoError(t, err)
	assert.Zero(t, c.Error())
	assert.Zero(t, c.Variance())

	require.NoError(t, c.Step(2, 3))
	assert.InDelta(t, 3.0, c.Error(), 1e-12)
	assert.InDelta(t, 6.0, c.Variance(), 1e-12)
	assert.InDelta(t, 0.5, c.Alpha(), 1e-12)
	assert.InDelta(t, 1.0, c.Beta(), 1e-12)
}

func TestCointegrationConvergesOnLinearRelation(t *testing.T) {
	c, err := NewCointegration(1e-4, 1e-3)
	require.NoError(t, err)

	for i := 0; i < 3000; i++ {
		x := float64(i%20) + 1
		require.NoError(t, c.Step(x, 2*x+1))
	}
	assert.InDelta(t, 2.0, c.Beta(), 1e-2)
	assert.InDelta(t, 1.0, c.Alpha(), 1e-1)
	assert.Less(t, math.Abs(c.Error()), 1e-2)
}

func TestCointegrationValidation(t *testing.T) {
	for _, delta := range []float64{0, 1, -0.1} {
		_, err := NewCointegration(delta, 1e-7)
		assert.ErrorIs(t, err, ErrParameter, "delta %v", delta)
	}
	_, err := NewCointegration(1e-10, 0)
	assert.ErrorIs(t, err, ErrParameter)
}
