package tui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"run not found", &domain.OpError{Op: "runstore.load", Kind: domain.KindNotFound, Err: domain.ErrNotFound}, "Run not found"},
		{"prices not cached", &domain.OpError{Op: "prices.load", Kind: domain.KindNotFound, Err: domain.ErrNotFound}, "Prices not cached"},
		{"workspace", &domain.OpError{Op: "workspacefinder.findroot", Kind: domain.KindNotFound, Err: domain.ErrNotFound}, "Workspace not found"},
		{"api key", &domain.OpError{Op: "alphavantage.fetch", Kind: domain.KindMissingVar, Err: domain.ErrMissingVar}, "Missing API key (set ALPHAVANTAGE_API_KEY)"},
		{"insufficient", &domain.OpError{Op: "run.align", Kind: domain.KindInsufficientData, Err: domain.ErrInsufficientData}, "Not enough price data"},
		{"yaml line", &domain.OpError{Op: "workspacefinder.loadconfig", Kind: domain.KindInvalidConfig, Path: "/ws/backtest.yaml",
			Err: errors.New("yaml: line 7: did not find expected key")}, "Invalid YAML at backtest.yaml line 7"},
		{"invalid config", &domain.OpError{Op: "run.validate", Kind: domain.KindInvalidConfig, Err: domain.ErrInvalidConfig}, "Invalid config"},
		{"execution", &domain.OpError{Op: "backtest.tick", Kind: domain.KindExecution, Err: errors.New("x")}, "Unexpected error (see logs)"},
		{"wrapped", fmt.Errorf("outer: %w", &domain.OpError{Op: "runstore.load", Kind: domain.KindNotFound, Err: domain.ErrNotFound}), "Run not found"},
		{"bare yaml", errors.New("yaml: line 3: mapping values are not allowed"), "Invalid YAML line 3"},
		{"plain", errors.New("boom"), "Unexpected error (see logs)"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := userMessage(c.err); got != c.want {
				t.Fatalf("userMessage() = %q, want %q", got, c.want)
			}
		})
	}
}
