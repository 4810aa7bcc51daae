package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/logger"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/strategy"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/usecase"
)

// runFlags are shared by run and validate.
type runFlags struct {
	strategy string
	x        string
	y        string
	symbols  []string
	deposit  float64
	leverage float64
	params   []string
	from     string
	to       string
	refresh  bool
}

func (f *runFlags) bind(c *cobra.Command) {
	c.Flags().StringVarP(&f.strategy, "strategy", "s", "",
		fmt.Sprintf("Strategy name (%s; defaults to backtest.strategy)", strings.Join(strategy.Names(), "|")))
	c.Flags().StringVarP(&f.x, "x", "x", "", "First leg of a pair")
	c.Flags().StringVarP(&f.y, "y", "y", "", "Second leg of a pair")
	c.Flags().StringSliceVar(&f.symbols, "symbols", nil, "Comma-separated symbols (instead of -x/-y)")
	c.Flags().Float64Var(&f.deposit, "deposit", 0, "Initial deposit (defaults to backtest.deposit)")
	c.Flags().Float64Var(&f.leverage, "leverage", 0, "Account leverage (defaults to backtest.leverage)")
	c.Flags().StringArrayVarP(&f.params, "param", "p", nil, "Strategy parameter key=value (repeatable)")
	c.Flags().StringVar(&f.from, "from", "", "First day to include (YYYY-MM-DD)")
	c.Flags().StringVar(&f.to, "to", "", "Last day to include (YYYY-MM-DD)")
	c.Flags().BoolVar(&f.refresh, "refresh", false, "Download prices even when cached")
}

// request builds a backtest request, falling back to the workspace defaults.
func (f *runFlags) request(def domain.BacktestDefaults) (domain.BacktestRequest, error) {
	syms, err := f.resolveSymbols()
	if err != nil {
		return domain.BacktestRequest{}, err
	}
	params, err := strategy.ParseKV(f.params)
	if err != nil {
		return domain.BacktestRequest{}, &domain.OpError{Op: "cli.params", Kind: domain.KindInvalidConfig, Err: err}
	}
	from, err := parseDay("from", f.from)
	if err != nil {
		return domain.BacktestRequest{}, err
	}
	to, err := parseDay("to", f.to)
	if err != nil {
		return domain.BacktestRequest{}, err
	}

	req := domain.BacktestRequest{
		Strategy: f.strategy,
		Symbols:  syms,
		Params:   params,
		Deposit:  f.deposit,
		Leverage: f.leverage,
		From:     from,
		To:       to,
		Refresh:  f.refresh,
	}
	return usecase.ApplyDefaults(req, def), nil
}

func (f *runFlags) resolveSymbols() ([]string, error) {
	pair := f.x != "" || f.y != ""
	if pair && len(f.symbols) > 0 {
		return nil, &domain.OpError{Op: "cli.symbols", Kind: domain.KindInvalidConfig,
			Err: errors.New("use either -x/-y or --symbols, not both")}
	}
	if pair {
		if f.x == "" || f.y == "" {
			return nil, &domain.OpError{Op: "cli.symbols", Kind: domain.KindInvalidConfig,
				Err: errors.New("both -x and -y are required for a pair")}
		}
		return []string{f.x, f.y}, nil
	}
	out := make([]string, 0, len(f.symbols))
	for _, s := range f.symbols {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, &domain.OpError{Op: "cli.symbols", Kind: domain.KindInvalidConfig,
			Err: errors.New("symbols are required (use -x/-y or --symbols)")}
	}
	return out, nil
}

func parseDay(name, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return time.Time{}, &domain.OpError{Op: "cli." + name, Kind: domain.KindInvalidConfig,
			Err: fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)}
	}
	return t, nil
}

func runCmd() *cobra.Command {
	var flags runFlags
	var noSave bool
	var format string

	c := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over historical daily prices",
		Example: "  backtest run -s cointegration -x GLD -y GDX\n" +
			"  backtest run -s buyhold --symbols SPY,QQQ --from 2015-01-01 --format json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			req, err := flags.request(ws.cfg.Backtest)
			if err != nil {
				return err
			}

			cache, err := ws.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()

			opts := []usecase.RunOption{usecase.WithRunLogger(logger.Component("run"))}
			if !noSave {
				opts = append(opts, usecase.WithStore(ws.store))
			}
			if p := ws.publisher(); p != nil {
				defer func() { _ = p.Close() }()
				opts = append(opts, usecase.WithPublisher(p))
			}

			uc := usecase.NewRunBacktest(ws.loadPrices(cache), opts...)
			run, savedAs, err := uc.Execute(cmd.Context(), req)
			if err != nil {
				if run.ID != "" {
					_ = printRun(cmd.OutOrStdout(), run, savedAs, format)
				}
				return err
			}
			return printRun(cmd.OutOrStdout(), run, savedAs, format)
		},
	}

	flags.bind(c)
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save the run under runs/")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json|csv")
	return c
}
