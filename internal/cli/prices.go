package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/csvprices"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/usecase"
)

func pricesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "prices",
		Short: "Manage the local price cache",
	}

	c.AddCommand(pricesFetchCmd())
	c.AddCommand(pricesListCmd())
	c.AddCommand(pricesImportCmd())
	return c
}

func pricesFetchCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch SYMBOL...",
		Short: "Download daily prices into the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			cache, err := ws.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()

			series, err := ws.loadPrices(cache).Execute(cmd.Context(), args, refresh)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range series {
				first, _ := s.First()
				last, _ := s.LastEntry()
				fmt.Fprintf(out, "%-8s %6d points  %s .. %s\n", s.Name, s.Len(), day(first.Time), day(last.Time))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", true, "Download even when cached")
	return cmd
}

func pricesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached symbols",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			cache, err := ws.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()

			syms, err := cache.List(cmd.Context())
			if err != nil {
				return err
			}
			printCachedSymbols(cmd.OutOrStdout(), syms)
			return nil
		},
	}
}

func pricesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import SYMBOL FILE",
		Short: "Import a date,price CSV file into the cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			cache, err := ws.openCache()
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()

			path := args[1]
			if !fileExists(path) {
				return &domain.OpError{Op: "cli.import", Kind: domain.KindNotFound, Path: path, Err: os.ErrNotExist}
			}

			got, err := usecase.NewImportPrices(csvprices.FileReader{}, cache).Execute(cmd.Context(), args[0], path)
			if err != nil {
				return err
			}
			got.FetchedAt = time.Now()
			printCachedSymbols(cmd.OutOrStdout(), []domain.CachedSymbol{got})
			return nil
		},
	}
}
