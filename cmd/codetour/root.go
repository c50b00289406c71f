package main

import (
	"context"

	"github.com/spf13/cobra"

	"codetour/internal/session"
	"codetour/internal/slogutil"
	"codetour/internal/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	repo      string
	verbosity int
	quiet     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "codetour",
		Short: "Guided code tours that survive code changes",
		Long: `codetour checks and repairs guided code tours: ordered steps that anchor
explanations to line ranges of a repository. Steps are re-located after edits using
content fingerprints, git history and symbol lookup.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("codetour version {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.repo, "repo", "", "Repository root (default: current directory)")
	root.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all log output")

	root.AddCommand(
		newCheckCmd(opts),
		newRepairCmd(opts),
		newValidateCmd(),
		newCaptureCmd(opts),
		newSymbolsCmd(opts),
		newHistoryCmd(opts),
		newInitCmd(opts),
	)
	return root
}

// openSession opens a session for cmd. Logging goes to the command's stderr; -v and
// --quiet override the configured level.
func (o *globalOptions) openSession(cmd *cobra.Command) (*session.Session, error) {
	sopts := session.Options{
		RepoRoot: o.repo,
		Stderr:   cmd.ErrOrStderr(),
	}
	if o.verbosity > 0 || o.quiet {
		level := slogutil.LevelFromVerbosity(o.verbosity, o.quiet)
		sopts.LogLevel = &level
	}
	return session.Open(commandContext(cmd), sopts)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
