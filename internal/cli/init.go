package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/buildinfo"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/fsworkspace"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/usecase"
)

func initCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a backtest workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := usecase.NewInitWorkspace(fsworkspace.NewInitializer()).Execute(path, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace ready at %s\n", root)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Directory to initialise (defaults to the current directory)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing workspace files")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
