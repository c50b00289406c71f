package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"codetour/internal/paths"
	"codetour/internal/symbols"
)

// SymbolsResponseCLI is the output of the symbols command
type SymbolsResponseCLI struct {
	Path         string                `json:"path"`
	Backends     []string              `json:"backends"`
	Declarations []symbols.Declaration `json:"declarations"`
}

func newSymbolsCmd(g *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "symbols <path>",
		Short: "Show the declaration tree the symbol fallback sees for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			rel, err := paths.StepPath(abs, s.RepoRoot)
			if err != nil {
				return err
			}

			decls, err := s.Symbols.Declarations(commandContext(cmd), rel)
			if err != nil {
				return err
			}

			resp := &SymbolsResponseCLI{Path: rel, Declarations: decls}
			if ladder, ok := s.Symbols.(*symbols.Ladder); ok {
				resp.Backends = ladder.Backends()
			}
			return writeResponse(cmd.OutOrStdout(), resp, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "Output format (json, human)")
	return cmd
}
