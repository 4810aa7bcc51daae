package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/alphavantage"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/httpclient"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/kafkaevents"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/logger"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/pricecache"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/runstore"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/workspacefinder"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/usecase"
)

type workspaceCtx struct {
	root string
	cfg  domain.Config

	store *runstore.JSONStore
}

func loadWorkspace(workspaceFlag string) (*workspaceCtx, error) {
	root, err := resolveWorkspaceRoot(workspaceFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := workspacefinder.LoadConfig(root)
	if err != nil {
		return nil, err
	}

	return &workspaceCtx{
		root:  root,
		cfg:   cfg,
		store: runstore.NewJSONStore(root, cfg, runstore.WithIndex(true)),
	}, nil
}

// openCache opens the SQLite price cache; the caller closes it.
func (ws *workspaceCtx) openCache() (*pricecache.Store, error) {
	p := ws.cfg.Paths.CachePath
	if !filepath.IsAbs(p) {
		p = filepath.Join(ws.root, p)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, &domain.OpError{Op: "cli.cache", Kind: domain.KindExecution, Path: p, Err: err}
	}
	return pricecache.Open(p)
}

func (ws *workspaceCtx) priceSource() *alphavantage.Client {
	exec := httpclient.NewExecutor(
		httpclient.WithClient(httpclient.New(httpclient.ForProvider(ws.cfg.Provider))),
		httpclient.WithTimeout(ws.cfg.Provider.Timeout),
		httpclient.WithRetry(2, time.Second),
	)
	return alphavantage.New(ws.cfg.Provider,
		alphavantage.WithExecutor(exec),
		alphavantage.WithLogger(logger.Component("alphavantage")),
	)
}

// publisher returns nil when Kafka is not configured.
func (ws *workspaceCtx) publisher() *kafkaevents.Publisher {
	return kafkaevents.New(ws.cfg.Events.Kafka)
}

func (ws *workspaceCtx) loadPrices(cache ports.PriceCache) *usecase.LoadPrices {
	return usecase.NewLoadPrices(ws.priceSource(), cache, usecase.WithPricesLogger(logger.Component("prices")))
}

func workspaceFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("workspace")
	return v
}

func resolveWorkspaceRoot(workspaceFlag string) (string, error) {
	w := strings.TrimSpace(workspaceFlag)
	if w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path: %w", err)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	locator := workspacefinder.NewFinder()
	root, err := locator.FindRoot(wd)
	if err != nil {
		return "", fmt.Errorf("workspace not found from %q (tip: run `backtest init`): %w", wd, err)
	}
	return root, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
