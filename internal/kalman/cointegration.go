package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Cointegration tracks y = alpha + beta*x with a two-state Kalman filter whose
// coefficients follow a random walk.
type Cointegration struct {
	delta  float64
	r      float64
	filter *Filter
}

// NewCointegration builds the regression filter. delta controls how fast the
// coefficients may drift and must lie in (0, 1); r is the measurement variance.
func NewCointegration(delta, r float64) (*Cointegration, error) {
	if delta <= 0 || delta >= 1 {
		return nil, fmt.Errorf("cointegration: delta %v outside (0, 1): %w", delta, ErrParameter)
	}
	if r <= 0 {
		return nil, fmt.Errorf("cointegration: measurement variance %v must be positive: %w", r, ErrParameter)
	}

	f, err := New(2, 1)
	if err != nil {
		return nil, err
	}
	q := identity(2)
	q.Scale(delta/(1-delta), q)
	if err := f.SetProcessNoise(q); err != nil {
		return nil, err
	}
	if err := f.SetMeasurementNoise(mat.NewDense(1, 1, []float64{r})); err != nil {
		return nil, err
	}
	return &Cointegration{delta: delta, r: r, filter: f}, nil
}

// Step observes y at regressor x.
func (c *Cointegration) Step(x, y float64) error {
	if err := c.filter.SetObservation(mat.NewDense(1, 2, []float64{1, x})); err != nil {
		return err
	}
	return c.filter.Step(mat.NewDense(1, 1, []float64{y}))
}

func (c *Cointegration) Alpha() float64 { return c.filter.x.At(0, 0) }
func (c *Cointegration) Beta() float64  { return c.filter.x.At(1, 0) }

// Error is the innovation of the last step (0 before the first step).
func (c *Cointegration) Error() float64 {
	if c.filter.y == nil {
		return 0
	}
	return c.filter.y.At(0, 0)
}

// Variance is the innovation variance of the last step (0 before the first step).
func (c *Cointegration) Variance() float64 {
	if c.filter.s == nil {
		return 0
	}
	return c.filter.s.At(0, 0)
}
