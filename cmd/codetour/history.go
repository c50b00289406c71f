package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"codetour/internal/errors"
	"codetour/internal/runs"
	"codetour/internal/session"
)

// HistoryResponseCLI is the output of the history command
type HistoryResponseCLI struct {
	Runs       []*runs.Run `json:"runs"`
	TotalCount int         `json:"totalCount"`
}

// RunDetailCLI is one run with its report decoded for display
type RunDetailCLI struct {
	*runs.Run
	Report json.RawMessage `json:"report,omitempty"`
}

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var (
		format   string
		tourPath string
		kind     string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check and repair runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := requireHistory(s); err != nil {
				return err
			}

			opts := runs.ListOptions{Kind: runs.Kind(kind), Limit: limit}
			if tourPath != "" {
				opts.TourPath = s.TourKey(tourPath)
			}
			list, err := s.History.List(opts)
			if err != nil {
				return err
			}

			resp := &HistoryResponseCLI{Runs: list.Runs, TotalCount: list.TotalCount}
			return writeResponse(cmd.OutOrStdout(), resp, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "Output format (json, human)")
	cmd.Flags().StringVar(&tourPath, "tour", "", "Only runs of this tour file")
	cmd.Flags().StringVar(&kind, "kind", "", "Only runs of this kind (check, repair)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs (max 100)")

	cmd.AddCommand(newHistoryShowCmd(g))
	return cmd
}

func newHistoryShowCmd(g *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its full report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := requireHistory(s); err != nil {
				return err
			}

			run, err := s.History.Get(args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run with id %s", args[0])
			}

			resp := &RunDetailCLI{Run: run, Report: json.RawMessage(run.Report)}
			return writeResponse(cmd.OutOrStdout(), resp, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "Output format (json, human)")
	return cmd
}

func requireHistory(s *session.Session) error {
	if s.History != nil {
		return nil
	}
	return errors.NewTourError(
		errors.BackendUnavailable,
		"Run history is disabled or could not be opened",
		nil,
		[]errors.FixAction{
			{
				Type:        errors.RunCommand,
				Command:     "codetour init",
				Safe:        true,
				Description: "Write a config with history.enabled set to true",
			},
		},
	)
}
