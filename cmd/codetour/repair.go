package main

import (
	"github.com/spf13/cobra"
)

func newRepairCmd(g *globalOptions) *cobra.Command {
	var (
		format string
		write  bool
	)

	cmd := &cobra.Command{
		Use:   "repair <tour>",
		Short: "Re-anchor tour steps to the current revision",
		Long: `Follow each step through renames and line shifts since the tour's baseline
revision and rewrite it against the current revision. Without --write the
repaired tour is only reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			report, err := s.Repair(commandContext(cmd), args[0], write)
			if err != nil {
				return err
			}
			return writeResponse(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "Output format (json, human)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Save the repaired tour in place")
	return cmd
}
