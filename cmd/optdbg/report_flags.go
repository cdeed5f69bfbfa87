package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/catalog"
	"optdbg/internal/config"
	"optdbg/internal/diag"
	"optdbg/internal/diagfmt"
	"optdbg/internal/session"
	"optdbg/internal/version"
)

// loadConfig reads --config, or discovers optdbg.toml from the working
// directory. Environment overrides apply either way.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		return config.Load(".")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// addReportFlags registers the flags shared by analyze and report.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", "pretty", "output format (pretty|json|sarif)")
	f.String("html", "", "also write an HTML report to file")
	f.BoolP("verbose", "v", false, "show detailed explanations and unchanged IR lines")
	f.Bool("diff", true, "show the IR diff of each diagnosed function")
	f.Bool("missed-only", false, "hide analysis remarks")
	f.Int("max-suggestions", 3, "fix suggestions per diagnostic (0 = all)")
	f.String("min-severity", "low", "lowest severity to report (info|low|medium|high|critical)")
	f.Bool("summary-only", false, "print only the summary")
	f.Bool("dedup", false, "merge repeated diagnostics for the same remark and location")
	f.Bool("group-by-function", false, "group diagnostics by function")
	f.Bool("group-by-pass", false, "group diagnostics by pass")
	f.StringSlice("filter-function", nil, "only report functions matching these globs")
	f.StringSlice("filter-pass", nil, "only report passes matching these globs")
}

// reportOpts layers changed flags over the [report] and [filter] sections.
func reportOpts(cmd *cobra.Command, cfg *config.Config) (diagfmt.ReportOpts, error) {
	opts := diagfmt.DefaultReportOpts()
	f := cmd.Flags()

	minSev := cfg.Report.MinSeverity
	if f.Changed("min-severity") {
		v, err := f.GetString("min-severity")
		if err != nil {
			return opts, fmt.Errorf("failed to get min-severity flag: %w", err)
		}
		minSev = v
	}
	sev, err := diag.ParseSeverity(minSev)
	if err != nil {
		return opts, err
	}
	opts.MinSeverity = sev

	opts.MaxSuggestions = cfg.Report.MaxSuggestions
	opts.Verbose = cfg.Report.Verbose
	opts.ShowDiff = cfg.Report.ShowDiff
	opts.MissedOnly = cfg.Report.MissedOnly
	opts.Dedup = cfg.Report.Dedup
	opts.FunctionGlobs = cfg.Filter.Functions
	opts.PassGlobs = cfg.Filter.Passes
	if opts.GroupBy, err = diagfmt.ParseGroupBy(cfg.Report.GroupBy); err != nil {
		return opts, err
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"verbose", &opts.Verbose},
		{"diff", &opts.ShowDiff},
		{"missed-only", &opts.MissedOnly},
		{"summary-only", &opts.SummaryOnly},
		{"dedup", &opts.Dedup},
	}
	for _, bf := range boolFlags {
		if !f.Changed(bf.name) {
			continue
		}
		v, err := f.GetBool(bf.name)
		if err != nil {
			return opts, fmt.Errorf("failed to get %s flag: %w", bf.name, err)
		}
		*bf.dst = v
	}
	if f.Changed("max-suggestions") {
		v, err := f.GetInt("max-suggestions")
		if err != nil {
			return opts, fmt.Errorf("failed to get max-suggestions flag: %w", err)
		}
		if v < 0 {
			return opts, errors.New("--max-suggestions must not be negative")
		}
		opts.MaxSuggestions = v
	}

	byFunction, err := f.GetBool("group-by-function")
	if err != nil {
		return opts, fmt.Errorf("failed to get group-by-function flag: %w", err)
	}
	byPass, err := f.GetBool("group-by-pass")
	if err != nil {
		return opts, fmt.Errorf("failed to get group-by-pass flag: %w", err)
	}
	switch {
	case byFunction && byPass:
		return opts, errors.New("cannot use --group-by-function and --group-by-pass together")
	case byFunction:
		opts.GroupBy = diagfmt.GroupByFunction
	case byPass:
		opts.GroupBy = diagfmt.GroupByPass
	}

	if f.Changed("filter-function") {
		if opts.FunctionGlobs, err = f.GetStringSlice("filter-function"); err != nil {
			return opts, fmt.Errorf("failed to get filter-function flag: %w", err)
		}
	}
	if f.Changed("filter-pass") {
		if opts.PassGlobs, err = f.GetStringSlice("filter-pass"); err != nil {
			return opts, fmt.Errorf("failed to get filter-pass flag: %w", err)
		}
	}

	opts.Color, err = useColor(cmd, cfg)
	return opts, err
}

// useColor resolves --no-color, report.color and the terminal check.
func useColor(cmd *cobra.Command, cfg *config.Config) (bool, error) {
	noColor, err := cmd.Root().PersistentFlags().GetBool("no-color")
	if err != nil {
		return false, fmt.Errorf("failed to get no-color flag: %w", err)
	}
	if noColor {
		return false, nil
	}
	switch cfg.Report.Color {
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	if os.Getenv("NO_COLOR") != "" {
		return false, nil
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isTerminal(f), nil
}

// renderSession writes s in the --format chosen and the optional HTML
// file. It returns exitCritical when a shown diagnostic is critical.
func renderSession(cmd *cobra.Command, s *session.Session, opts diagfmt.ReportOpts) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	htmlPath, err := cmd.Flags().GetString("html")
	if err != nil {
		return fmt.Errorf("failed to get html flag: %w", err)
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "pretty":
		err = diagfmt.Terminal(out, s, opts)
	case "json":
		err = diagfmt.JSON(out, s, opts)
	case "sarif":
		err = diagfmt.Sarif(out, s, opts, diagfmt.SarifRunMeta{
			ToolName:       "optdbg",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	default:
		return fmt.Errorf("unknown format %q (must be pretty, json or sarif)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if htmlPath != "" {
		if err := writeFileWith(htmlPath, func(w io.Writer) error { return diagfmt.HTML(w, s, opts) }); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "HTML report written to %s\n", htmlPath)
	}

	if diag.BagOf(diagfmt.Select(s.Diagnostics, opts)).HasCritical() {
		return exitCritical
	}
	return nil
}

func writeFileWith(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// loadCatalog extends the builtin table with [catalog].extra (relative to
// the config file) and --patterns globs (relative to the working
// directory).
func loadCatalog(cmd *cobra.Command, cfg *config.Config) (*catalog.Catalog, error) {
	extra, err := catalog.LoadGlobs(cfg.Root(), cfg.Catalog.Extra)
	if err != nil {
		return nil, err
	}
	globs, err := cmd.Flags().GetStringSlice("patterns")
	if err != nil {
		return nil, fmt.Errorf("failed to get patterns flag: %w", err)
	}
	more, err := catalog.LoadGlobs(".", globs)
	if err != nil {
		return nil, err
	}
	extra = append(extra, more...)
	if len(extra) == 0 {
		return catalog.Builtin(), nil
	}
	return catalog.Builtin().Extend(extra...)
}
