// Package stats holds the performance statistics reported for a backtest.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is used to annualise daily figures.
const TradingDaysPerYear = 251

// StdDev is the sample standard deviation of values, 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Returns computes simple period returns of a value curve: v[i]/v[i-1] - 1.
// Periods starting from a zero value are skipped.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// Sharpe is the annualised ratio of mean to standard deviation of period returns,
// assuming a zero risk-free rate. It is 0 when undefined.
func Sharpe(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, sd := stat.MeanStdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) || math.IsNaN(mean) {
		return 0
	}
	return mean / sd * math.Sqrt(float64(periodsPerYear))
}

// Annualize scales a total return earned over ticks trading days to a yearly figure.
func Annualize(totalReturn float64, ticks int) float64 {
	if ticks <= 0 {
		return 0
	}
	return totalReturn / (float64(ticks) / TradingDaysPerYear)
}

// Drawdown returns the largest peak-to-trough decline of a value curve,
// both absolute and as a fraction of the peak.
func Drawdown(values []float64) (abs, pct float64) {
	if len(values) == 0 {
		return 0, 0
	}
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		dd := peak - v
		if dd > abs {
			abs = dd
		}
		if peak > 0 && dd/peak > pct {
			pct = dd / peak
		}
	}
	return abs, pct
}

// WinRate is the share of values strictly greater than zero.
func WinRate(pls []float64) float64 {
	if len(pls) == 0 {
		return 0
	}
	wins := 0
	for _, pl := range pls {
		if pl > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pls))
}
