package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"codetour/internal/tour"
)

func newCaptureCmd(g *globalOptions) *cobra.Command {
	var annotation string

	cmd := &cobra.Command{
		Use:   "capture <path> <start> <end>",
		Short: "Print a tour step for a line range",
		Long: `Fingerprint lines start..end of a file and look up the enclosing declaration,
printing a step ready to paste into a tour. The path is relative to the current
directory.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseLine("start", args[1])
			if err != nil {
				return err
			}
			end, err := parseLine("end", args[2])
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			s, err := g.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			step, err := s.Capture(commandContext(cmd), path, tour.Lines(start, end))
			if err != nil {
				return err
			}
			step.Annotation = annotation

			return writeResponse(cmd.OutOrStdout(), step, string(FormatJSON))
		},
	}

	cmd.Flags().StringVarP(&annotation, "annotation", "a", "", "Annotation text for the step")
	return cmd
}

// parseLine parses a 1-indexed line number argument.
func parseLine(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive line number, got %q", name, s)
	}
	return n, nil
}
