package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/usecase"
)

func validateCmd() *cobra.Command {
	var flags runFlags

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate backtest parameters (no network, no run)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			req, err := flags.request(ws.cfg.Backtest)
			if err != nil {
				return err
			}

			if err := usecase.NewValidateRun().Execute(cmd.Context(), req); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	flags.bind(c)
	return c
}
