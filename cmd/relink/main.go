package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"relink/internal/version"
)

// newRootCmd builds the command tree with its persistent flags.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relink",
		Short: "Retarget XNA games and libraries to FNA",
		Long: `relink rewrites compiled modules built against Microsoft.Xna.Framework
so that they run on FNA. Modules are patched in place.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyColorFlag(cmd)
		},
	}

	root.AddCommand(newPatchCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	root.PersistentFlags().String("config", "", "config file (default: relink.toml or relink.yaml found upwards)")
	root.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	root.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	root.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	root.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	root.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the trace ring")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
	return root
}

// main executes the root command and exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the output terminal.
func useColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout), nil
	default:
		return false, errInvalidFlag("--color", mode, "auto|on|off")
	}
}

func applyColorFlag(cmd *cobra.Command) error {
	on, err := useColor(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !on
	return nil
}
