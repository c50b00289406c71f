package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"codetour/internal/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err with any suggested fixes and returns the exit status.
func reportError(err error) int {
	var exit *exitError
	if stderrors.As(err, &exit) {
		if exit.msg != "" {
			fmt.Fprintln(os.Stderr, exit.msg)
		}
		return exit.code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var te *errors.TourError
	if stderrors.As(err, &te) && len(te.SuggestedFixes) > 0 {
		fmt.Fprintln(os.Stderr, "Suggested fixes:")
		for _, fix := range te.SuggestedFixes {
			fmt.Fprintf(os.Stderr, "  - %s\n", fix.Description)
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "    $ %s\n", fix.Command)
			}
		}
	}
	return 1
}

// exitError ends the process with a specific status without printing a usage error.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return fmt.Sprintf("exit status %d", e.code)
}
