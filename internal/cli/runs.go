package cli

import "github.com/spf13/cobra"

func runsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "runs",
		Short: "Browse saved runs",
	}

	c.AddCommand(runsListCmd())
	c.AddCommand(runsShowCmd())
	return c
}

func runsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			refs, err := ws.store.ListRuns()
			if err != nil {
				return err
			}
			printRunRefs(cmd.OutOrStdout(), refs)
			return nil
		},
	}
}

func runsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ws, err := loadWorkspace(workspaceFlag(cmd))
			if err != nil {
				return err
			}

			run, err := ws.store.LoadRun(args[0])
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), run, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json|csv")
	return cmd
}
