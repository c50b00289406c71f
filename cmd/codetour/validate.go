package main

import (
	"github.com/spf13/cobra"

	"codetour/internal/tour"
)

// ValidateResponseCLI is the output of the validate command
type ValidateResponseCLI struct {
	Tours []ValidateResultCLI `json:"tours"`
	Valid bool                `json:"valid"`
}

// ValidateResultCLI describes one validated tour file
type ValidateResultCLI struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Title string `json:"title,omitempty"`
	Steps int    `json:"steps,omitempty"`
	Error string `json:"error,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <tour...>",
		Short: "Check tour files for structural errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := validateTours(args)
			if err := writeResponse(cmd.OutOrStdout(), resp, format); err != nil {
				return err
			}
			if !resp.Valid {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "human", "Output format (json, human)")
	return cmd
}

func validateTours(tourPaths []string) *ValidateResponseCLI {
	resp := &ValidateResponseCLI{Valid: true}
	for _, p := range tourPaths {
		result := ValidateResultCLI{Path: p}
		t, err := tour.Load(p)
		if err != nil {
			result.Error = err.Error()
			resp.Valid = false
		} else {
			result.Valid = true
			result.Title = t.Title
			result.Steps = len(t.Steps)
		}
		resp.Tours = append(resp.Tours, result)
	}
	return resp
}
