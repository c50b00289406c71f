package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codetour/internal/session"
	"codetour/internal/tour"
)

// CheckResponseCLI is the output of the check command
type CheckResponseCLI struct {
	Tours          []*session.CheckReport `json:"tours"`
	NeedsAttention bool                   `json:"needsAttention"`
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	var (
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "check [tour...]",
		Short: "Report whether tour steps still point at their content",
		Long: `Resolve every step of the given tours (default: all tours in the tours directory)
and report each as fresh, revision-resolved, drifted or missing.

With --strict the command exits with status 2 when any step is drifted or missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			tourPaths := args
			if len(tourPaths) == 0 {
				tourPaths, err = tour.Discover(s.ToursDir())
				if err != nil {
					return err
				}
				if len(tourPaths) == 0 {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "No tours found in %s\n", s.ToursDir())
					return err
				}
			}

			resp := &CheckResponseCLI{}
			for _, p := range tourPaths {
				report, err := s.Check(commandContext(cmd), p)
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				resp.Tours = append(resp.Tours, report)
				if report.Summary.NeedsAttention() {
					resp.NeedsAttention = true
				}
			}

			if err := writeResponse(cmd.OutOrStdout(), resp, format); err != nil {
				return err
			}
			if strict && resp.NeedsAttention {
				return &exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "Output format (json, human)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 2 when any step needs attention")
	return cmd
}
