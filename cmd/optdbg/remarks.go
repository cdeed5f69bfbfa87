package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/remarks"
)

func newRemarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remarks [flags] <remarks.yaml|remarks.txt>",
		Short: "Parse a remarks file and list the remarks",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemarks,
	}
	f := cmd.Flags()
	f.Bool("missed", false, "list missed remarks")
	f.Bool("applied", false, "list applied remarks")
	f.Bool("analysis", false, "list analysis remarks")
	f.String("function", "", "only remarks in this function")
	f.String("pass", "", "only remarks from this pass")
	f.String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runRemarks(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var kinds [3]bool
	for i, name := range []string{"missed", "applied", "analysis"} {
		v, err := f.GetBool(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		kinds[i] = v
	}
	function, err := f.GetString("function")
	if err != nil {
		return fmt.Errorf("failed to get function flag: %w", err)
	}
	pass, err := f.GetString("pass")
	if err != nil {
		return fmt.Errorf("failed to get pass flag: %w", err)
	}
	format, err := f.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (must be pretty or json)", format)
	}

	rs, err := remarks.ReadFile(args[0])
	if err != nil {
		return err
	}
	c := remarks.NewCollector()
	c.Add(rs...)
	shown := filterRemarks(c, kinds, function, pass)

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	}
	printRemarks(cmd.OutOrStdout(), shown, c.Len())
	return nil
}

// filterRemarks applies the kind flags (a union; none set means all) and
// the exact function and pass filters.
func filterRemarks(c *remarks.Collector, kinds [3]bool, function, pass string) []remarks.Remark {
	var base []remarks.Remark
	switch {
	case function != "":
		base = c.ForFunction(function)
	case pass != "":
		base = c.ForPass(pass)
	default:
		base = c.All()
	}
	anyKind := kinds[0] || kinds[1] || kinds[2]
	out := base[:0]
	for _, r := range base {
		if function != "" && pass != "" && r.Pass != pass {
			continue
		}
		if anyKind && !(kinds[0] && r.IsMissed() || kinds[1] && r.IsApplied() || kinds[2] && r.IsAnalysis()) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func printRemarks(w io.Writer, rs []remarks.Remark, total int) {
	for i := range rs {
		r := &rs[i]
		fmt.Fprintf(w, "[%s] %s/%s", r.Kind, r.Pass, r.Name)
		if r.Function != "" {
			fmt.Fprintf(w, " in %s", r.Function)
		}
		if r.Loc.IsValid() {
			fmt.Fprintf(w, " at %s", r.Loc)
		}
		fmt.Fprintln(w)
		if r.Message != "" {
			fmt.Fprintf(w, "    %s\n", r.Message)
		}
	}
	missed, applied, analysis := remarks.Counts(rs)
	fmt.Fprintf(w, "%d of %d remarks shown (%d missed, %d applied, %d analysis)\n", len(rs), total, missed, applied, analysis)
}
