package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"relink/internal/config"
	"relink/internal/diag"
	"relink/internal/diagfmt"
	"relink/internal/driver"
)

type patchOptions struct {
	library   string
	secondary string
	paths     string
	ui        string
	format    string
	severity  string
}

func newPatchCmd() *cobra.Command {
	var opts patchOptions
	cmd := &cobra.Command{
		Use:   "patch [flags] <module>...",
		Short: "Retarget modules to the replacement library in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.library, "library", "", "replacement library (overrides target.library)")
	cmd.Flags().StringVar(&opts.secondary, "secondary", "", "secondary replacement library (overrides secondary.library)")
	cmd.Flags().StringVar(&opts.paths, "paths", "", "resource path repair (off|report|fix)")
	cmd.Flags().Lookup("paths").NoOptDefVal = "fix"
	cmd.Flags().StringVar(&opts.ui, "ui", "auto", "progress display (auto|on|off)")
	cmd.Flags().StringVar(&opts.format, "format", "pretty", "diagnostics format (pretty|json)")
	cmd.Flags().StringVar(&opts.severity, "min-severity", "info", "lowest diagnostic severity to print (info|warning|error); --quiet implies error")
	return cmd
}

func runPatch(cmd *cobra.Command, args []string, opts patchOptions) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	if opts.format != "pretty" && opts.format != "json" {
		return errInvalidFlag("--format", opts.format, "pretty|json")
	}
	minSev, err := diag.ParseSeverity(opts.severity)
	if err != nil {
		return errInvalidFlag("--min-severity", opts.severity, "info|warning|error")
	}
	if g.quiet {
		minSev = diag.SevError
	}
	showUI, err := progressUI(opts.ui, g.quiet, opts.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	cfg, err := config.Discover(g.config, ".")
	if err != nil {
		return err
	}
	if err := applyPatchOverrides(&cfg, opts); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	stopProfiling, err := setupProfiling(cmd, stderr)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanup, err := setupTracing(cmd, stderr)
	if err != nil {
		return err
	}

	req := driver.Request{
		Config:         cfg,
		Modules:        args,
		MaxDiagnostics: g.maxDiagnostics,
		Timings:        g.timings,
	}
	var res *driver.Result
	if showUI {
		res, err = runWithUI(cmd.Context(), cmd.OutOrStdout(), "relink", req)
	} else {
		res, err = driver.Run(cmd.Context(), req)
	}
	cleanup(err != nil, failedModule(res))

	out := cmd.OutOrStdout()
	if res != nil {
		if printErr := printPatchResult(cmd, out, res, g, opts.format, minSev); printErr != nil && err == nil {
			err = printErr
		}
		if g.timings && opts.format == "pretty" {
			printStageTimings(stderr, res)
			fmt.Fprint(stderr, res.Timer.Summary())
		}
	}
	return err
}

// applyPatchOverrides folds command-line flags into cfg. Paths given on the
// command line are relative to the working directory.
func applyPatchOverrides(cfg *config.Config, opts patchOptions) error {
	abs := func(p string) (string, error) {
		if p == "" {
			return "", nil
		}
		return filepath.Abs(p)
	}
	if opts.library != "" {
		p, err := abs(opts.library)
		if err != nil {
			return err
		}
		cfg.Target.Library = p
	}
	if opts.secondary != "" {
		p, err := abs(opts.secondary)
		if err != nil {
			return err
		}
		cfg.Secondary.Library = p
	}
	switch opts.paths {
	case "":
	case "off":
		cfg.Paths.Fix, cfg.Paths.Report = false, false
	case "report":
		cfg.Paths.Fix, cfg.Paths.Report = false, true
	case "fix":
		cfg.Paths.Fix, cfg.Paths.Report = true, false
	default:
		return errInvalidFlag("--paths", opts.paths, "off|report|fix")
	}
	return cfg.Validate()
}

func printPatchResult(cmd *cobra.Command, out io.Writer, res *driver.Result, g globalFlags, format string, minSev diag.Severity) error {
	bag := res.Bag
	if minSev > diag.SevInfo {
		bag = bag.AtLeast(minSev)
	}
	if format == "json" {
		return diagfmt.JSON(out, bag, diagfmt.JSONOpts{Max: g.maxDiagnostics, IncludeNotes: true})
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	if err := diagfmt.Pretty(out, bag, diagfmt.PrettyOpts{
		Color:     colored,
		ShowNotes: !g.quiet,
		Max:       g.maxDiagnostics,
		Summary:   !g.quiet && bag.Len() > 0,
	}); err != nil {
		return err
	}
	if g.quiet {
		return nil
	}
	for _, mr := range res.Modules {
		if mr.Err != nil {
			continue
		}
		if _, err := fmt.Fprintf(out, "patched %s: %s, assembly refs %d replaced, %d removed\n",
			mr.Path, mr.Patch, mr.References.Replaced, mr.References.Removed); err != nil {
			return err
		}
	}
	return nil
}

// failedModule returns the base name of the module that stopped the run.
func failedModule(res *driver.Result) string {
	if res == nil {
		return ""
	}
	for i := len(res.Modules) - 1; i >= 0; i-- {
		if res.Modules[i].Err != nil {
			return filepath.Base(res.Modules[i].Path)
		}
	}
	return ""
}
