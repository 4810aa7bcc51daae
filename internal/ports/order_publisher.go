package ports

import (
	"context"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// OrderPublisher announces the closed orders of a finished run.
type OrderPublisher interface {
	Publish(ctx context.Context, runID string, orders []domain.ClosedOrder) error
}
