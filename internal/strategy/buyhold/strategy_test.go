package buyhold

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/backtest"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

func TestBuyHoldSplitsBudget(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC) }
	a := domain.NewDoubleSeries("A",
		domain.Entry[float64]{Time: day(1), Item: 10},
		domain.Entry[float64]{Time: day(2), Item: 11},
	)
	b := domain.NewDoubleSeries("B",
		domain.Entry[float64]{Time: day(1), Item: 50},
		domain.Entry[float64]{Time: day(2), Item: 50},
	)
	prices, err := domain.MultiSeriesOf(a, b)
	require.NoError(t, err)

	s, err := New([]string{"A", "B"}, 0.5)
	require.NoError(t, err)
	e, err := backtest.New(1000, prices)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)

	amounts := map[string]int{}
	for _, o := range res.Orders {
		amounts[o.Instrument] = o.Amount
		assert.Equal(t, day(1), o.OpenedAt)
		assert.Equal(t, day(2), o.ClosedAt)
	}
	assert.Equal(t, map[string]int{"A": 25, "B": 5}, amounts)
	assert.Equal(t, "0.5", res.Params["fraction"])
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, 0.5)
	assert.Error(t, err)
	_, err = New([]string{"A"}, 0)
	assert.Error(t, err)
}
