package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdDev(t *testing.T) {
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{3}))
	// sample variance of 1..5 is 2.5
	assert.InDelta(t, math.Sqrt(2.5), StdDev([]float64{1, 2, 3, 4, 5}), 1e-12)
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	assert.Len(t, got, 2)
	assert.InDelta(t, 0.1, got[0], 1e-12)
	assert.InDelta(t, -0.1, got[1], 1e-12)

	assert.Nil(t, Returns([]float64{1}))
	assert.Len(t, Returns([]float64{0, 1, 2}), 1)
}

func TestSharpe(t *testing.T) {
	assert.Zero(t, Sharpe([]float64{0.01}, TradingDaysPerYear))
	assert.Zero(t, Sharpe([]float64{0.01, 0.01, 0.01}, TradingDaysPerYear))

	r := []float64{0.01, 0.02, 0.03}
	// mean 0.02, sample sd 0.01
	assert.InDelta(t, 2*math.Sqrt(TradingDaysPerYear), Sharpe(r, TradingDaysPerYear), 1e-9)
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 0.1, Annualize(0.1, TradingDaysPerYear), 1e-12)
	assert.InDelta(t, 0.2, Annualize(0.1, 125), 0.01)
	assert.Zero(t, Annualize(0.1, 0))
}

func TestDrawdown(t *testing.T) {
	abs, pct := Drawdown([]float64{100, 120, 90, 130, 110})
	assert.InDelta(t, 30, abs, 1e-12)
	assert.InDelta(t, 0.25, pct, 1e-12)

	abs, pct = Drawdown(nil)
	assert.Zero(t, abs)
	assert.Zero(t, pct)
}

func TestWinRate(t *testing.T) {
	assert.InDelta(t, 0.5, WinRate([]float64{1, -1, 0, 2}), 1e-12)
	assert.Zero(t, WinRate(nil))
}
