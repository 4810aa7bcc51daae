package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

func TestImportPrices_SavesIntoCache(t *testing.T) {
	file := &fakeFile{series: flat("ignored", day0, 10, 42)}
	cache := newFakeCache()

	got, err := NewImportPrices(file, cache).Execute(context.Background(), " spy ", "data/spy.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "SPY" || got.Points != 10 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if !got.First.Equal(day0) || !got.Last.Equal(day0.AddDate(0, 0, 9)) {
		t.Fatalf("unexpected range: %s..%s", got.First, got.Last)
	}
	if file.path != "data/spy.csv" {
		t.Fatalf("expected path passed through, got %q", file.path)
	}
	if s, ok := cache.series["SPY"]; !ok || s.Len() != 10 {
		t.Fatalf("expected SPY cached")
	}
}

func TestImportPrices_EmptyFile(t *testing.T) {
	file := &fakeFile{series: domain.NewDoubleSeries("x")}

	_, err := NewImportPrices(file, newFakeCache()).Execute(context.Background(), "SPY", "empty.csv")
	if !domain.IsKind(err, domain.KindInsufficientData) {
		t.Fatalf("expected insufficient_data, got %v", err)
	}
}

func TestImportPrices_RequiresSymbol(t *testing.T) {
	file := &fakeFile{series: flat("x", day0, 1, 1)}

	_, err := NewImportPrices(file, newFakeCache()).Execute(context.Background(), "  ", "a.csv")
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
}

func TestImportPrices_ReaderError(t *testing.T) {
	boom := &domain.OpError{Op: "csvprices.open", Kind: domain.KindNotFound, Err: domain.ErrNotFound}
	cache := newFakeCache()

	_, err := NewImportPrices(&fakeFile{err: boom}, cache).Execute(context.Background(), "SPY", "missing.csv")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if cache.saves != 0 {
		t.Fatalf("expected no cache writes")
	}
}
