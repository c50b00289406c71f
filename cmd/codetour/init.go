package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codetour/internal/config"
	"codetour/internal/errors"
	"codetour/internal/paths"
	"codetour/internal/repostate"
)

func newInitCmd(g *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long:  "Creates .codetour/config.json and the tours directory in the repository root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			root := g.repo
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return errors.NewTourError(errors.InternalError, "Failed to get current directory", err, nil)
				}
				root = cwd
			}
			if top, err := repostate.GetRepoRoot(root); err == nil {
				root = top
			}

			configPath := filepath.Join(paths.ConfigDir(root), "config.json")
			if _, err := os.Stat(configPath); err == nil && !force {
				// Already initialized counts as success.
				_, err := fmt.Fprintf(out, "codetour already initialized.\nConfiguration at: %s\n\nRun 'codetour init --force' to overwrite it.\n", configPath)
				return err
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(root); err != nil {
				return errors.NewTourError(errors.InternalError, "Failed to write config file", err, nil)
			}

			toursDir := paths.ResolveRepoPath(root, cfg.Tours.Dir)
			if err := os.MkdirAll(toursDir, 0755); err != nil {
				return errors.NewTourError(errors.InternalError, "Failed to create tours directory", err, nil)
			}

			_, err := fmt.Fprintf(out, "Initialized codetour in %s\nConfiguration: %s\nTours: %s\n", root, configPath, toursDir)
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	return cmd
}
