// Package buyhold buys every instrument in equal parts on the first tick and holds.
package buyhold

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/backtest"
)

const Name = "buyhold"

type Strategy struct {
	symbols  []string
	fraction float64

	tc     backtest.TradingContext
	bought bool
}

// New invests fraction of the initial funds, split equally over symbols.
func New(symbols []string, fraction float64) (*Strategy, error) {
	if len(symbols) == 0 {
		return nil, errors.New("buyhold needs at least one instrument")
	}
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("fraction must lie in (0, 1], got %v", fraction)
	}
	return &Strategy{symbols: symbols, fraction: fraction}, nil
}

func (s *Strategy) Name() string { return Name }

func (s *Strategy) Params() map[string]string {
	return map[string]string{"fraction": strconv.FormatFloat(s.fraction, 'g', -1, 64)}
}

func (s *Strategy) OnStart(tc backtest.TradingContext) error {
	s.tc = tc
	s.bought = false
	return nil
}

func (s *Strategy) OnTick() error {
	if s.bought {
		return nil
	}
	s.bought = true

	budget := s.tc.InitialFunds() * s.fraction / float64(len(s.symbols))
	for _, sym := range s.symbols {
		price, err := s.tc.LastPrice(sym)
		if err != nil {
			return err
		}
		if price <= 0 {
			continue
		}
		amount := int(budget / price)
		if amount < 1 {
			continue
		}
		if _, err := s.tc.Order(sym, true, amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *Strategy) OnEnd() error { return nil }
