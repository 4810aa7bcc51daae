package ports

import (
	"context"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// PriceSource downloads historical prices, ascending, named after the symbol.
type PriceSource interface {
	HistoricalPrices(ctx context.Context, symbol string) (*domain.DoubleSeries, error)
}

// PriceCache stores price series locally.
type PriceCache interface {
	Load(ctx context.Context, symbol string) (*domain.DoubleSeries, error)
	Save(ctx context.Context, series *domain.DoubleSeries) error
	List(ctx context.Context) ([]domain.CachedSymbol, error)
}

// PriceFile reads an offline price file into a series named symbol.
type PriceFile interface {
	ReadPrices(path, symbol string) (*domain.DoubleSeries, error)
}
