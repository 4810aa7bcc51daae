// Package kalman implements a linear Kalman filter and the dynamic linear
// regression used to track a cointegrating relationship between two prices.
package kalman

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimension = errors.New("kalman: dimension mismatch")
	ErrSingular  = errors.New("kalman: innovation covariance is singular")
	ErrParameter = errors.New("kalman: invalid parameter")
)

// Filter is a linear Kalman filter over n states and m sensors.
//
// Defaults: zero state and covariance, identity transition, zero process noise,
// zero control, zero observation matrix and identity measurement noise.
type Filter struct {
	n, m int

	x *mat.Dense // state estimate, n×1
	p *mat.Dense // state covariance, n×n
	f *mat.Dense // transition, n×n
	q *mat.Dense // process noise, n×n
	u *mat.Dense // control, n×1
	h *mat.Dense // observation, m×n
	r *mat.Dense // measurement noise, m×m

	y *mat.Dense // last innovation, m×1
	s *mat.Dense // last innovation covariance, m×m
}

// New returns a filter with the given number of states and sensors.
func New(states, sensors int) (*Filter, error) {
	if states <= 0 || sensors <= 0 {
		return nil, fmt.Errorf("new filter %dx%d: %w", states, sensors, ErrDimension)
	}
	return &Filter{
		n: states,
		m: sensors,
		x: mat.NewDense(states, 1, nil),
		p: mat.NewDense(states, states, nil),
		f: identity(states),
		q: mat.NewDense(states, states, nil),
		u: mat.NewDense(states, 1, nil),
		h: mat.NewDense(sensors, states, nil),
		r: identity(sensors),
	}, nil
}

func (k *Filter) SetState(x mat.Matrix) error      { return k.set("state", &k.x, x, k.n, 1) }
func (k *Filter) SetCovariance(p mat.Matrix) error { return k.set("covariance", &k.p, p, k.n, k.n) }
func (k *Filter) SetTransition(f mat.Matrix) error { return k.set("transition", &k.f, f, k.n, k.n) }
func (k *Filter) SetProcessNoise(q mat.Matrix) error {
	return k.set("process noise", &k.q, q, k.n, k.n)
}
func (k *Filter) SetObservation(h mat.Matrix) error { return k.set("observation", &k.h, h, k.m, k.n) }
func (k *Filter) SetMeasurementNoise(r mat.Matrix) error {
	return k.set("measurement noise", &k.r, r, k.m, k.m)
}

// State returns a copy of the current state estimate.
func (k *Filter) State() *mat.Dense { return mat.DenseCopyOf(k.x) }

func (k *Filter) Covariance() *mat.Dense { return mat.DenseCopyOf(k.p) }

// Innovation returns the residual of the last step, or nil before the first step.
func (k *Filter) Innovation() *mat.Dense {
	if k.y == nil {
		return nil
	}
	return mat.DenseCopyOf(k.y)
}

// InnovationCovariance returns S of the last step, or nil before the first step.
func (k *Filter) InnovationCovariance() *mat.Dense {
	if k.s == nil {
		return nil
	}
	return mat.DenseCopyOf(k.s)
}

// Step runs one predict/update cycle for measurement z using the current control vector.
func (k *Filter) Step(z mat.Matrix) error {
	return k.step(z, k.u)
}

// StepWithControl replaces the control vector with u and runs one cycle.
func (k *Filter) StepWithControl(z, u mat.Matrix) error {
	if err := checkDims("control", u, k.n, 1); err != nil {
		return err
	}
	if err := k.step(z, u); err != nil {
		return err
	}
	k.u = mat.DenseCopyOf(u)
	return nil
}

// step computes the new estimate and only commits it when every stage succeeds.
func (k *Filter) step(z, u mat.Matrix) error {
	if err := checkDims("measurement", z, k.m, 1); err != nil {
		return err
	}

	// predict
	var xp, pp mat.Dense
	xp.Mul(k.f, k.x)
	xp.Add(&xp, u)
	pp.Product(k.f, k.p, k.f.T())
	pp.Add(&pp, k.q)

	// innovation
	var hx, y, s mat.Dense
	hx.Mul(k.h, &xp)
	y.Sub(z, &hx)
	s.Product(k.h, &pp, k.h.T())
	s.Add(&s, k.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}

	// gain and update
	var gain, ky, x, kh, ikh, p mat.Dense
	gain.Product(&pp, k.h.T(), &sInv)
	ky.Mul(&gain, &y)
	x.Add(&xp, &ky)
	kh.Mul(&gain, k.h)
	ikh.Sub(identity(k.n), &kh)
	p.Mul(&ikh, &pp)

	k.x, k.p, k.y, k.s = &x, &p, &y, &s
	return nil
}

func (k *Filter) set(name string, dst **mat.Dense, src mat.Matrix, rows, cols int) error {
	if err := checkDims(name, src, rows, cols); err != nil {
		return err
	}
	*dst = mat.DenseCopyOf(src)
	return nil
}

func checkDims(name string, a mat.Matrix, rows, cols int) error {
	if a == nil {
		return fmt.Errorf("%s: nil matrix: %w", name, ErrDimension)
	}
	r, c := a.Dims()
	if r != rows || c != cols {
		return fmt.Errorf("%s: got %dx%d, want %dx%d: %w", name, r, c, rows, cols, ErrDimension)
	}
	return nil
}

func identity(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}
