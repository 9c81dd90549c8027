package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func errInvalidFlag(flag, value, expected string) error {
	return fmt.Errorf("invalid %s value %q (expected %s)", flag, value, expected)
}

// globalFlags are the persistent flags every command reads.
type globalFlags struct {
	quiet          bool
	timings        bool
	maxDiagnostics int
	config         string
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	var (
		g   globalFlags
		err error
	)
	flags := cmd.Root().PersistentFlags()
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return g, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if g.config, err = flags.GetString("config"); err != nil {
		return g, fmt.Errorf("failed to get config flag: %w", err)
	}
	return g, nil
}
