// Package strategy builds trading strategies by name.
package strategy

import (
	"fmt"
	"log/slog"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/backtest"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/strategy/buyhold"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/strategy/cointegration"
)

// Names lists the registered strategies.
func Names() []string {
	return []string{cointegration.Name, buyhold.Name}
}

// New builds the named strategy for symbols. Unknown names and bad parameters
// are reported as KindInvalidConfig.
func New(name string, symbols []string, params map[string]string, log *slog.Logger) (backtest.Strategy, error) {
	s, err := build(name, symbols, params, log)
	if err != nil {
		return nil, &domain.OpError{Op: "strategy.new", Kind: domain.KindInvalidConfig, Err: err}
	}
	return s, nil
}

func build(name string, symbols []string, params map[string]string, log *slog.Logger) (backtest.Strategy, error) {
	p := NewParams(params)

	switch name {
	case cointegration.Name:
		if len(symbols) != 2 {
			return nil, fmt.Errorf("%s needs exactly 2 symbols (x, y), got %d", name, len(symbols))
		}
		def := cointegration.DefaultConfig()
		cfg := cointegration.Config{
			Weight:      p.Float("weight", def.Weight),
			Delta:       p.Float("delta", def.Delta),
			R:           p.Float("r", def.R),
			Warmup:      p.Int("warmup", def.Warmup),
			Window:      p.Int("window", def.Window),
			MaxLeverage: p.Float("max_leverage", def.MaxLeverage),
			Reinvest:    p.Bool("reinvest", def.Reinvest),
		}
		if err := p.Err(); err != nil {
			return nil, err
		}
		return cointegration.New(symbols[0], symbols[1], cfg, cointegration.WithLogger(log))

	case buyhold.Name:
		fraction := p.Float("fraction", 0.5)
		if err := p.Err(); err != nil {
			return nil, err
		}
		return buyhold.New(symbols, fraction)

	default:
		return nil, fmt.Errorf("unknown strategy %q (known: %v): %w", name, Names(), domain.ErrInvalidConfig)
	}
}
