package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

// LoadPrices resolves price series through the local cache, falling back to the provider.
type LoadPrices struct {
	source ports.PriceSource
	cache  ports.PriceCache
	log    *slog.Logger
}

type LoadPricesOption func(*LoadPrices)

func WithPricesLogger(l *slog.Logger) LoadPricesOption {
	return func(uc *LoadPrices) {
		if l != nil {
			uc.log = l
		}
	}
}

// NewLoadPrices accepts a nil source (offline) or a nil cache (always download).
func NewLoadPrices(source ports.PriceSource, cache ports.PriceCache, opts ...LoadPricesOption) *LoadPrices {
	uc := &LoadPrices{
		source: source,
		cache:  cache,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute returns one ascending series per symbol, in the order given.
// With refresh the cache is bypassed for reads but still updated.
func (uc *LoadPrices) Execute(ctx context.Context, symbols []string, refresh bool) ([]*domain.DoubleSeries, error) {
	if len(symbols) == 0 {
		return nil, &domain.OpError{Op: "prices.load", Kind: domain.KindInvalidConfig,
			Err: errors.New("no symbols given")}
	}

	out := make([]*domain.DoubleSeries, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			s, err := uc.one(gctx, sym, refresh)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *LoadPrices) one(ctx context.Context, symbol string, refresh bool) (*domain.DoubleSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log := uc.log.With("symbol", symbol)

	if uc.cache != nil && !refresh {
		s, err := uc.cache.Load(ctx, symbol)
		switch {
		case err == nil && s.Len() > 0:
			log.Debug("prices.cache.hit", "points", s.Len())
			return s, nil
		case err == nil, domain.IsKind(err, domain.KindNotFound):
			log.Debug("prices.cache.miss")
		default:
			log.Warn("prices.cache.read_failed", "err", err)
		}
	}

	if uc.source == nil {
		return nil, &domain.OpError{Op: "prices.load", Kind: domain.KindNotFound,
			Err: fmt.Errorf("%s is not cached and no provider is configured: %w", symbol, domain.ErrNotFound)}
	}

	s, err := uc.source.HistoricalPrices(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, &domain.OpError{Op: "prices.load", Kind: domain.KindInsufficientData,
			Err: fmt.Errorf("provider returned no prices for %s: %w", symbol, domain.ErrInsufficientData)}
	}
	log.Info("prices.fetched", "points", s.Len())

	if uc.cache != nil {
		if err := uc.cache.Save(ctx, s); err != nil {
			log.Warn("prices.cache.write_failed", "err", err)
		}
	}
	return s, nil
}
