package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/catalog"
	"optdbg/internal/diag"
)

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns [flags] [id]",
		Short: "List the pattern catalog, including extension files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPatterns,
	}
	cmd.Flags().StringSlice("patterns", nil, "extra pattern files (doublestar globs)")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

type patternJSON struct {
	ID                  string     `json:"id"`
	Pass                string     `json:"pass,omitempty"`
	Remark              string     `json:"remark,omitempty"`
	Message             string     `json:"message,omitempty"`
	Severity            string     `json:"severity"`
	Speedup             float64    `json:"speedup"`
	ShortReason         string     `json:"short_reason"`
	RootCause           string     `json:"root_cause"`
	WhatOptimizerWanted string     `json:"what_optimizer_wanted"`
	DetailedExplanation string     `json:"detailed_explanation"`
	Fixes               []diag.Fix `json:"fixes,omitempty"`
}

func runPatterns(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (must be pretty or json)", format)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cmd, &cfg)
	if err != nil {
		return err
	}

	var shown []catalog.Pattern
	if len(args) == 1 {
		p, ok := cat.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown pattern %q", args[0])
		}
		shown = append(shown, p)
	} else {
		for _, p := range cat.All() {
			shown = append(shown, p)
		}
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		list := make([]patternJSON, len(shown))
		for i, p := range shown {
			list[i] = patternJSON{
				ID:                  p.ID,
				Pass:                p.Pass,
				Remark:              p.Remark,
				Message:             p.Message,
				Severity:            p.Severity.String(),
				Speedup:             p.Speedup,
				ShortReason:         p.ShortReason,
				RootCause:           p.RootCause,
				WhatOptimizerWanted: p.WhatOptimizerWanted,
				DetailedExplanation: p.DetailedExplanation,
				Fixes:               p.Fixes,
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(args) == 1 {
		printPatternDetail(out, &shown[0])
		return nil
	}
	for i := range shown {
		p := &shown[i]
		fmt.Fprintf(out, "%-38s %s %s\n", p.ID, p.Severity.Tag(), p.ShortReason)
	}
	fmt.Fprintf(out, "%d patterns\n", len(shown))
	return nil
}

func printPatternDetail(w io.Writer, p *catalog.Pattern) {
	fmt.Fprintf(w, "%s %s\n", p.Severity.Tag(), p.ID)
	fmt.Fprintf(w, "  match: pass=%q remark=%q message=%q\n", p.Pass, p.Remark, p.Message)
	fmt.Fprintf(w, "  reason: %s\n", p.ShortReason)
	fmt.Fprintf(w, "  root cause: %s\n", p.RootCause)
	fmt.Fprintf(w, "  optimizer wanted: %s\n", p.WhatOptimizerWanted)
	if p.Speedup > 0 {
		fmt.Fprintf(w, "  estimated speedup: %.1fx\n", p.Speedup)
	}
	for i, fix := range p.Fixes {
		fmt.Fprintf(w, "  fix %d: %s\n", i+1, fix.Description)
	}
}
