package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/stats"
)

// Result is the outcome of a single run.
type Result struct {
	Strategy    string
	Params      map[string]string
	Instruments []string
	From        time.Time
	To          time.Time
	Metrics     domain.Metrics
	Orders      []domain.ClosedOrder
	History     []domain.HistoryPoint
	Diagnostics *domain.MultiSeries
}

type Engine struct {
	deposit    float64
	leverage   float64
	commission CommissionFunc
	prices     *domain.MultiSeries
	log        *slog.Logger
}

type Option func(*Engine)

// WithLeverage sets the account leverage (default 1).
func WithLeverage(l float64) Option {
	return func(e *Engine) { e.leverage = l }
}

// WithCommission replaces the default 1 + 0.005/share commission model.
func WithCommission(f CommissionFunc) Option {
	return func(e *Engine) {
		if f != nil {
			e.commission = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New builds an engine over prices, one column per instrument.
func New(deposit float64, prices *domain.MultiSeries, opts ...Option) (*Engine, error) {
	e := &Engine{
		deposit:    deposit,
		leverage:   1,
		commission: PerShare(domain.DefaultConfig().Backtest.Commission),
		prices:     prices,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if deposit <= 0 {
		return nil, &domain.OpError{Op: "backtest.new", Kind: domain.KindInvalidConfig,
			Err: fmt.Errorf("deposit must be positive, got %v", deposit)}
	}
	if e.leverage < 1 {
		return nil, &domain.OpError{Op: "backtest.new", Kind: domain.KindInvalidConfig,
			Err: fmt.Errorf("leverage must be at least 1, got %v", e.leverage)}
	}
	if prices.Len() == 0 {
		return nil, &domain.OpError{Op: "backtest.new", Kind: domain.KindInsufficientData,
			Err: domain.ErrInsufficientData}
	}
	return e, nil
}

// Run replays every tick through s. Open orders are closed at the last seen prices.
// The run stops early, without error, when available funds drop below zero.
func (e *Engine) Run(ctx context.Context, s Strategy) (Result, error) {
	acc := newAccount(e.deposit, e.leverage, e.commission, e.prices.Names())
	log := e.log.With("strategy", s.Name())

	if err := s.OnStart(acc); err != nil {
		return Result{}, strategyError("backtest.start", err)
	}

	first, _ := e.prices.First()
	log.Info("backtest.start", "deposit", e.deposit, "leverage", e.leverage, "ticks", e.prices.Len())

	var (
		history    = make([]domain.HistoryPoint, 0, e.prices.Len())
		marginCall bool
	)
	for _, row := range e.prices.All() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		acc.tick(row.Time, row.Item)
		available := acc.AvailableFunds()
		history = append(history, domain.HistoryPoint{Time: row.Time, PL: acc.PL(), AvailableFunds: available})

		if available < 0 {
			marginCall = true
			log.Warn("backtest.margin_call", "time", row.Time, "available_funds", available)
			break
		}

		if err := s.OnTick(); err != nil {
			return Result{}, strategyError("backtest.tick", err)
		}
		acc.record()
	}

	if err := acc.closeAll(); err != nil {
		return Result{}, &domain.OpError{Op: "backtest.close_all", Kind: domain.KindExecution, Err: err}
	}
	if err := s.OnEnd(); err != nil {
		return Result{}, strategyError("backtest.end", err)
	}

	res := Result{
		Strategy:    s.Name(),
		Instruments: e.prices.Names(),
		From:        first.Time,
		To:          acc.now,
		Orders:      acc.closed,
		History:     history,
		Metrics:     e.metrics(acc, history, marginCall),
	}
	if p, ok := s.(ParamsProvider); ok {
		res.Params = p.Params()
	}
	if d, ok := s.(DiagnosticsProvider); ok {
		res.Diagnostics = d.Diagnostics()
	}

	log.Info("backtest.finish",
		"pl", res.Metrics.PL,
		"orders", res.Metrics.Orders,
		"margin_call", marginCall,
	)
	return res, nil
}

func (e *Engine) metrics(acc *account, history []domain.HistoryPoint, marginCall bool) domain.Metrics {
	pl := acc.PL()
	final := e.deposit + pl

	curve := netValueCurve(e.deposit, history)

	pls := make([]float64, 0, len(acc.closed))
	for _, c := range acc.closed {
		pls = append(pls, c.PL)
	}

	ret := final/e.deposit - 1
	dd, ddPct := stats.Drawdown(curve)
	return domain.Metrics{
		InitialFunds:     e.deposit,
		FinalValue:       final,
		PL:               pl,
		Commissions:      acc.commissions,
		Return:           ret,
		AnnualizedReturn: stats.Annualize(ret, len(history)),
		Sharpe:           stats.Sharpe(stats.Returns(curve), stats.TradingDaysPerYear),
		MaxDrawdown:      dd,
		MaxDrawdownPct:   ddPct,
		Ticks:            len(history),
		Orders:           len(acc.closed),
		WinRate:          stats.WinRate(pls),
		MarginCall:       marginCall,
	}
}

// netValueCurve is the account net value recorded at each tick. Sharpe and
// drawdown are measured on it alone; the closing fills after the last tick
// only show up in PL and FinalValue.
func netValueCurve(deposit float64, history []domain.HistoryPoint) []float64 {
	curve := make([]float64, len(history))
	for i, h := range history {
		curve[i] = deposit + h.PL
	}
	return curve
}

func strategyError(op string, err error) error {
	var oe *domain.OpError
	if errors.As(err, &oe) {
		return err
	}
	return &domain.OpError{Op: op, Kind: domain.KindExecution, Err: err}
}
