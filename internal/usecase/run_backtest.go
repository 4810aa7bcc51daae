package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/backtest"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/strategy"
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^]*$`)

// RunBacktest loads prices, replays them through a strategy and records the result.
type RunBacktest struct {
	prices    *LoadPrices
	store     ports.ArtifactStore
	publisher ports.OrderPublisher
	log       *slog.Logger
	now       func() time.Time
}

type RunOption func(*RunBacktest)

// WithStore saves finished runs. Without it nothing is persisted.
func WithStore(s ports.ArtifactStore) RunOption {
	return func(uc *RunBacktest) { uc.store = s }
}

// WithPublisher announces closed orders after a run.
func WithPublisher(p ports.OrderPublisher) RunOption {
	return func(uc *RunBacktest) { uc.publisher = p }
}

func WithRunLogger(l *slog.Logger) RunOption {
	return func(uc *RunBacktest) {
		if l != nil {
			uc.log = l
		}
	}
}

func WithClock(now func() time.Time) RunOption {
	return func(uc *RunBacktest) {
		if now != nil {
			uc.now = now
		}
	}
}

func NewRunBacktest(prices *LoadPrices, opts ...RunOption) *RunBacktest {
	uc := &RunBacktest{
		prices: prices,
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute returns the artifact and the id it was saved under ("" when not saved).
// When saving fails the artifact is still returned with the error.
func (uc *RunBacktest) Execute(ctx context.Context, req domain.BacktestRequest) (domain.RunArtifact, string, error) {
	req = normalize(req)
	strat, err := prepare(req, uc.log)
	if err != nil {
		return domain.RunArtifact{}, "", err
	}

	started := uc.now().UTC()
	log := uc.log.With("strategy", req.Strategy, "symbols", req.Symbols)
	log.Info("run.start", "from", req.From, "to", req.To, "refresh", req.Refresh)

	series, err := uc.prices.Execute(ctx, req.Symbols, req.Refresh)
	if err != nil {
		return domain.RunArtifact{}, "", err
	}

	aligned, err := domain.MultiSeriesOf(series...)
	if err != nil {
		return domain.RunArtifact{}, "", &domain.OpError{Op: "run.align", Kind: domain.KindInsufficientData, Err: err}
	}
	aligned = aligned.Between(req.From, req.To)
	if aligned.Len() == 0 {
		return domain.RunArtifact{}, "", &domain.OpError{Op: "run.align", Kind: domain.KindInsufficientData,
			Err: fmt.Errorf("no common dates for %v in range: %w", req.Symbols, domain.ErrInsufficientData)}
	}
	log.Debug("run.aligned", "ticks", aligned.Len())

	engine, err := backtest.New(req.Deposit, aligned,
		backtest.WithLeverage(req.Leverage),
		backtest.WithCommission(backtest.PerShare(req.Commission)),
		backtest.WithLogger(uc.log),
	)
	if err != nil {
		return domain.RunArtifact{}, "", err
	}

	res, err := engine.Run(ctx, strat)
	if err != nil {
		return domain.RunArtifact{}, "", err
	}

	art := domain.RunArtifact{
		ID:          uuid.NewString(),
		Strategy:    res.Strategy,
		Params:      res.Params,
		Instruments: res.Instruments,
		From:        res.From,
		To:          res.To,
		Deposit:     req.Deposit,
		Leverage:    req.Leverage,
		StartedAt:   started,
		FinishedAt:  uc.now().UTC(),
		Metrics:     res.Metrics,
		Orders:      res.Orders,
		History:     res.History,
		Diagnostics: res.Diagnostics,
	}
	log.Info("run.finish", "run_id", art.ID, "pl", art.Metrics.PL, "orders", art.Metrics.Orders)

	var savedID string
	if uc.store != nil {
		savedID, err = uc.store.SaveRun(art)
		if err != nil {
			return art, "", err
		}
		log.Info("run.saved", "id", savedID)
	}

	if uc.publisher != nil && len(art.Orders) > 0 {
		if err := uc.publisher.Publish(ctx, art.ID, art.Orders); err != nil {
			log.Warn("run.publish_failed", "run_id", art.ID, "err", err)
		}
	}

	return art, savedID, nil
}

// ValidateRun checks a request without touching the network or running the engine.
type ValidateRun struct {
	log *slog.Logger
}

func NewValidateRun() *ValidateRun {
	return &ValidateRun{log: slog.New(slog.DiscardHandler)}
}

// Execute reports the first problem found, as KindInvalidConfig.
func (uc *ValidateRun) Execute(ctx context.Context, req domain.BacktestRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := prepare(normalize(req), uc.log)
	return err
}

// ApplyDefaults fills the zero fields of req from the workspace defaults.
func ApplyDefaults(req domain.BacktestRequest, def domain.BacktestDefaults) domain.BacktestRequest {
	if strings.TrimSpace(req.Strategy) == "" {
		req.Strategy = def.Strategy
	}
	if req.Deposit == 0 {
		req.Deposit = def.Deposit
	}
	if req.Leverage == 0 {
		req.Leverage = def.Leverage
	}
	if req.Commission == (domain.CommissionConfig{}) {
		req.Commission = def.Commission
	}
	return req
}

func normalize(req domain.BacktestRequest) domain.BacktestRequest {
	req.Strategy = strings.ToLower(strings.TrimSpace(req.Strategy))
	syms := make([]string, 0, len(req.Symbols))
	for _, s := range req.Symbols {
		syms = append(syms, strings.ToUpper(strings.TrimSpace(s)))
	}
	req.Symbols = syms
	if req.Leverage == 0 {
		req.Leverage = 1
	}
	return req
}

func prepare(req domain.BacktestRequest, log *slog.Logger) (backtest.Strategy, error) {
	if err := checkRequest(req); err != nil {
		return nil, &domain.OpError{Op: "run.validate", Kind: domain.KindInvalidConfig, Err: err}
	}
	return strategy.New(req.Strategy, req.Symbols, req.Params, log)
}

func checkRequest(req domain.BacktestRequest) error {
	var errs []error
	if req.Strategy == "" {
		errs = append(errs, errors.New("strategy is required"))
	}
	if len(req.Symbols) == 0 {
		errs = append(errs, errors.New("at least one symbol is required"))
	}
	seen := map[string]bool{}
	for _, s := range req.Symbols {
		if !symbolRe.MatchString(s) {
			errs = append(errs, fmt.Errorf("invalid symbol %q", s))
			continue
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("duplicate symbol %q", s))
		}
		seen[s] = true
	}
	if req.Deposit <= 0 {
		errs = append(errs, fmt.Errorf("deposit must be positive, got %v", req.Deposit))
	}
	if req.Leverage < 1 {
		errs = append(errs, fmt.Errorf("leverage must be at least 1, got %v", req.Leverage))
	}
	if req.Commission.Fixed < 0 || req.Commission.PerShare < 0 {
		errs = append(errs, errors.New("commission must not be negative"))
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		errs = append(errs, fmt.Errorf("range end %s is before start %s",
			req.To.Format(time.DateOnly), req.From.Format(time.DateOnly)))
	}
	if len(errs) > 0 {
		errs = append(errs, domain.ErrInvalidConfig)
	}
	return errors.Join(errs...)
}
