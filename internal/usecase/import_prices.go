package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

// ImportPrices loads an offline price file into the cache.
type ImportPrices struct {
	files ports.PriceFile
	cache ports.PriceCache
}

func NewImportPrices(files ports.PriceFile, cache ports.PriceCache) *ImportPrices {
	return &ImportPrices{files: files, cache: cache}
}

// Execute replaces the cached series of symbol with the content of path.
func (uc *ImportPrices) Execute(ctx context.Context, symbol, path string) (domain.CachedSymbol, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.CachedSymbol{}, &domain.OpError{Op: "prices.import", Kind: domain.KindInvalidConfig,
			Err: errors.New("symbol is required")}
	}
	if err := ctx.Err(); err != nil {
		return domain.CachedSymbol{}, err
	}

	s, err := uc.files.ReadPrices(path, symbol)
	if err != nil {
		return domain.CachedSymbol{}, err
	}
	first, ok := s.First()
	if !ok {
		return domain.CachedSymbol{}, &domain.OpError{Op: "prices.import", Kind: domain.KindInsufficientData,
			Path: path, Err: fmt.Errorf("no rows: %w", domain.ErrInsufficientData)}
	}
	last, _ := s.LastEntry()

	if err := uc.cache.Save(ctx, s); err != nil {
		return domain.CachedSymbol{}, err
	}
	return domain.CachedSymbol{
		Symbol: symbol,
		Points: s.Len(),
		First:  first.Time,
		Last:   last.Time,
	}, nil
}
