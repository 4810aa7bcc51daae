// Package cointegration trades the spread of two instruments whose linear
// relation is tracked by a Kalman filter.
package cointegration

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/backtest"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/kalman"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/stats"
)

const Name = "cointegration"

// Columns of the diagnostics series, in order.
var Columns = []string{"x", "y", "alpha", "beta", "error", "variance", "model"}

type Config struct {
	Weight      float64
	Delta       float64
	R           float64
	Warmup      int
	Window      int
	MaxLeverage float64
	Reinvest    bool
}

func DefaultConfig() Config {
	return Config{
		Weight:      1,
		Delta:       1e-10,
		R:           1e-7,
		Warmup:      30,
		Window:      15,
		MaxLeverage: 4,
	}
}

func (c Config) validate() error {
	switch {
	case c.Weight <= 0:
		return fmt.Errorf("weight must be positive, got %v", c.Weight)
	case c.Warmup < 0:
		return fmt.Errorf("warmup must not be negative, got %d", c.Warmup)
	case c.Window < 2:
		return fmt.Errorf("window must be at least 2, got %d", c.Window)
	case c.MaxLeverage <= 0:
		return fmt.Errorf("max_leverage must be positive, got %v", c.MaxLeverage)
	}
	return nil
}

type Option func(*Strategy)

func WithLogger(l *slog.Logger) Option {
	return func(s *Strategy) {
		if l != nil {
			s.log = l
		}
	}
}

// Strategy goes long the cheap leg and short the rich leg when the filter
// error leaves its recent standard deviation band, and exits when it changes sign.
type Strategy struct {
	x, y string
	cfg  Config
	log  *slog.Logger

	tc     backtest.TradingContext
	model  *kalman.Cointegration
	errs   []float64
	diag   *domain.MultiSeries
	xOrder *domain.Order
	yOrder *domain.Order
}

func New(x, y string, cfg Config, opts ...Option) (*Strategy, error) {
	if x == "" || y == "" || x == y {
		return nil, fmt.Errorf("cointegration needs two distinct instruments, got %q and %q", x, y)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// fail early on bad filter parameters
	if _, err := kalman.NewCointegration(cfg.Delta, cfg.R); err != nil {
		return nil, err
	}
	s := &Strategy{x: x, y: y, cfg: cfg, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Strategy) Name() string { return Name }

func (s *Strategy) Params() map[string]string {
	return map[string]string{
		"x":            s.x,
		"y":            s.y,
		"weight":       strconv.FormatFloat(s.cfg.Weight, 'g', -1, 64),
		"delta":        strconv.FormatFloat(s.cfg.Delta, 'g', -1, 64),
		"r":            strconv.FormatFloat(s.cfg.R, 'g', -1, 64),
		"warmup":       strconv.Itoa(s.cfg.Warmup),
		"window":       strconv.Itoa(s.cfg.Window),
		"max_leverage": strconv.FormatFloat(s.cfg.MaxLeverage, 'g', -1, 64),
		"reinvest":     strconv.FormatBool(s.cfg.Reinvest),
	}
}

func (s *Strategy) OnStart(tc backtest.TradingContext) error {
	model, err := kalman.NewCointegration(s.cfg.Delta, s.cfg.R)
	if err != nil {
		return err
	}
	s.tc = tc
	s.model = model
	s.errs = s.errs[:0]
	s.diag = domain.NewMultiSeries(Columns...)
	s.xOrder, s.yOrder = nil, nil
	return nil
}

func (s *Strategy) OnTick() error {
	px, err := s.tc.LastPrice(s.x)
	if err != nil {
		return err
	}
	py, err := s.tc.LastPrice(s.y)
	if err != nil {
		return err
	}

	alpha, beta := s.model.Alpha(), s.model.Beta()
	if err := s.model.Step(px, py); err != nil {
		return fmt.Errorf("filter step at %s: %w", s.tc.Time().Format("2006-01-02"), err)
	}
	e := s.model.Error()
	s.errs = append(s.errs, e)

	row := []float64{px, py, alpha, beta, e, s.model.Variance(), beta*px + alpha}
	if err := s.diag.AppendRow(s.tc.Time(), row); err != nil {
		return err
	}

	if len(s.errs) <= s.cfg.Warmup {
		return nil
	}
	recent := s.errs[max(0, len(s.errs)-s.cfg.Window):]
	sd := stats.StdDev(recent)

	if s.yOrder == nil {
		if math.Abs(e) > sd {
			return s.enter(px, py, beta, e)
		}
		return nil
	}
	if s.yOrder.IsLong() && e > 0 || !s.yOrder.IsLong() && e < 0 {
		return s.exit()
	}
	return nil
}

func (s *Strategy) enter(px, py, beta, e float64) error {
	value := s.tc.InitialFunds()
	if s.cfg.Reinvest {
		value = s.tc.NetValue()
	}
	base := value * s.cfg.Weight * 0.5 * math.Min(s.cfg.MaxLeverage, s.tc.Leverage()) / (py + beta*px)

	if beta <= 0 || int(base) < 1 || base*beta < 1 {
		return nil
	}

	yo, err := s.tc.Order(s.y, e < 0, int(base))
	if err != nil {
		return err
	}
	xo, err := s.tc.Order(s.x, e > 0, int(base*beta))
	if err != nil {
		return err
	}
	s.yOrder, s.xOrder = &yo, &xo
	s.log.Debug("cointegration.enter",
		"time", s.tc.Time(),
		"error", e,
		"beta", beta,
		"y_amount", yo.Amount,
		"x_amount", xo.Amount,
	)
	return nil
}

func (s *Strategy) exit() error {
	if _, err := s.tc.Close(*s.yOrder); err != nil {
		return err
	}
	if _, err := s.tc.Close(*s.xOrder); err != nil {
		return err
	}
	s.yOrder, s.xOrder = nil, nil
	s.log.Debug("cointegration.exit", "time", s.tc.Time())
	return nil
}

func (s *Strategy) OnEnd() error {
	s.log.Debug("cointegration.diagnostics", "series", s.diag.String(), "rows", s.diag.Len())
	return nil
}

// Diagnostics returns the filter series recorded during the run.
func (s *Strategy) Diagnostics() *domain.MultiSeries { return s.diag }
