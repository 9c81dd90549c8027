package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"relink/internal/config"
	"relink/internal/driver"
)

func newInspectCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect [flags] <module>...",
		Short: "Show assembly references and remaining legacy references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "pretty" && format != "json" {
				return errInvalidFlag("--format", format, "pretty|json")
			}
			g, err := readGlobalFlags(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Discover(g.config, ".")
			if err != nil {
				return err
			}
			reports := make([]*driver.Inspection, 0, len(args))
			for _, path := range args {
				r, err := driver.Inspect(path, cfg)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			for _, r := range reports {
				renderInspection(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func renderInspection(out io.Writer, r *driver.Inspection) {
	bold := color.New(color.Bold)
	legacy := color.New(color.FgYellow)
	fmt.Fprintf(out, "%s (assembly %s, %d types)\n", bold.Sprint(r.Path), r.Assembly, r.Types)
	fmt.Fprintln(out, "  assembly references:")
	for _, ref := range r.AssemblyRefs {
		fmt.Fprintf(out, "    %s %s\n", ref.Name, ref.Version)
	}
	counts := func(label string, c driver.LegacyCounts) {
		line := fmt.Sprintf("  %-10s %d types, %d methods, %d fields", label, c.Types, c.Methods, c.Fields)
		if c.Total() > 0 {
			line = legacy.Sprint(line)
		}
		fmt.Fprintln(out, line)
	}
	counts("primary", r.Primary)
	counts("secondary", r.Secondary)
	if r.Backslashes > 0 {
		fmt.Fprintf(out, "  %d string literals contain a backslash\n", r.Backslashes)
	}
}
