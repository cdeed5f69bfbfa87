package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/config"
	"optdbg/internal/pipeline"
	"optdbg/internal/session"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [flags] [input.ll|input.bc]",
		Short: "Run a pass pipeline and explain every missed optimization",
		Long: `Run opt on a single IR module, or compare two existing snapshots given
with --before/--after, then classify the optimization remarks.

Exit status is 1 on error and 2 when a reported diagnostic is critical.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
	f := cmd.Flags()
	f.String("before", "", "IR snapshot before optimization")
	f.String("after", "", "IR snapshot after optimization")
	f.String("remarks", "", "remarks file for --before/--after (YAML or clang text)")
	f.String("passes", "", "explicit opt pass pipeline (overrides -O)")
	f.StringP("opt-level", "O", "", "optimization level (0|1|2|3|s|z)")
	f.Bool("vectorize", true, "allow loop and SLP vectorization")
	f.Bool("unroll", true, "allow loop unrolling")
	f.Bool("verify-each", false, "run the IR verifier after every pass")
	f.Int("inline-threshold", 0, "inliner threshold (0 keeps opt's default)")
	f.Int("jobs", 0, "diff workers (0=auto)")
	f.StringSlice("patterns", nil, "extra pattern files (doublestar globs)")
	f.String("save", "", "save the analysis session (msgpack) for `optdbg report`")
	f.Bool("cache", false, "reuse cached sessions for identical inputs")
	f.String("ui", "auto", "progress UI (auto|on|off)")
	f.Bool("print-commands", false, "echo opt and llvm-dis command lines to stderr")
	f.Bool("timings", false, "print per-stage timings to stderr")
	addReportFlags(cmd)
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := analysisRequest(cmd, args, &cfg)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	opts, err := reportOpts(cmd, &cfg)
	if err != nil {
		return err
	}
	if req.Catalog, err = loadCatalog(cmd, &cfg); err != nil {
		return err
	}

	cacheOn, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	if cacheOn || cfg.Cache.Enabled {
		if req.Cache, err = session.OpenCache(cfg.Cache.Dir, "optdbg"); err != nil {
			return err
		}
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	var res pipeline.Result
	if shouldUseTUI(mode, traceToStderr) {
		res, err = runAnalysisWithUI(cmd.Context(), cmd.ErrOrStderr(), analysisTitle(req), req)
	} else {
		res, err = pipeline.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if timings {
		printTimings(cmd.ErrOrStderr(), res)
	}

	savePath, err := cmd.Flags().GetString("save")
	if err != nil {
		return fmt.Errorf("failed to get save flag: %w", err)
	}
	if savePath != "" {
		if err := res.Session.SaveFile(savePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "session saved to %s\n", savePath)
	}

	return renderSession(cmd, res.Session, opts)
}

// analysisRequest merges the [analysis] section with changed flags.
func analysisRequest(cmd *cobra.Command, args []string, cfg *config.Config) (*pipeline.Request, error) {
	f := cmd.Flags()
	req := &pipeline.Request{
		Pass: cfg.PassOptions(),
		Jobs: cfg.Analysis.Jobs,
	}
	if len(args) == 1 {
		req.Input = args[0]
	}

	strFlags := []struct {
		name string
		dst  *string
	}{
		{"before", &req.Before},
		{"after", &req.After},
		{"remarks", &req.Remarks},
		{"passes", &req.Pass.Passes},
	}
	for _, sf := range strFlags {
		v, err := f.GetString(sf.name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", sf.name, err)
		}
		if v != "" {
			*sf.dst = v
		}
	}

	level, err := f.GetString("opt-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get opt-level flag: %w", err)
	}
	if level != "" {
		req.Pass.OptLevel = normalizeOptLevel(level)
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"vectorize", &req.Pass.Vectorize},
		{"unroll", &req.Pass.Unroll},
		{"verify-each", &req.Pass.VerifyEach},
	}
	for _, bf := range boolFlags {
		if !f.Changed(bf.name) {
			continue
		}
		v, err := f.GetBool(bf.name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", bf.name, err)
		}
		*bf.dst = v
	}
	if f.Changed("inline-threshold") {
		if req.Pass.InlineThreshold, err = f.GetInt("inline-threshold"); err != nil {
			return nil, fmt.Errorf("failed to get inline-threshold flag: %w", err)
		}
	}
	if f.Changed("jobs") {
		if req.Jobs, err = f.GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	printCommands, err := f.GetBool("print-commands")
	if err != nil {
		return nil, fmt.Errorf("failed to get print-commands flag: %w", err)
	}
	if printCommands {
		req.Pass.PrintCommands = cmd.ErrOrStderr()
	}
	return req, nil
}

// normalizeOptLevel accepts -O2, -O O2 and -Os alike.
func normalizeOptLevel(v string) string {
	return "O" + strings.TrimPrefix(strings.TrimSpace(v), "O")
}

func analysisTitle(req *pipeline.Request) string {
	if req.Input != "" {
		return fmt.Sprintf("analyze %s (%s)", filepath.Base(req.Input), req.Pass.Pipeline())
	}
	return fmt.Sprintf("analyze %s -> %s", filepath.Base(req.Before), filepath.Base(req.After))
}

