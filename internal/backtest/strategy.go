// Package backtest replays aligned price series through a trading strategy
// inside a simulated margin account.
package backtest

import (
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// Strategy reacts to ticks and places orders through its TradingContext.
type Strategy interface {
	Name() string
	OnStart(ctx TradingContext) error
	OnTick() error
	OnEnd() error
}

// DiagnosticsProvider is implemented by strategies that record model series.
type DiagnosticsProvider interface {
	Diagnostics() *domain.MultiSeries
}

// ParamsProvider is implemented by strategies that expose their effective parameters.
type ParamsProvider interface {
	Params() map[string]string
}

// TradingContext is the account view a strategy trades against.
type TradingContext interface {
	Time() time.Time
	Instruments() []string
	LastPrice(instrument string) (float64, error)
	// History returns the prices of the ticks before the current one, ascending.
	History(instrument string) (*domain.DoubleSeries, error)

	InitialFunds() float64
	NetValue() float64
	PL() float64
	AvailableFunds() float64
	Leverage() float64

	// Order opens a position; buy selects the side and amount must be positive.
	Order(instrument string, buy bool, amount int) (domain.Order, error)
	Close(order domain.Order) (domain.ClosedOrder, error)
	OpenOrders() []domain.Order
}
