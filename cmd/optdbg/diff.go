package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/diagfmt"
	"optdbg/internal/irdiff"
	"optdbg/internal/pipeline"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [flags] <before.ll> <after.ll>",
		Short: "Print the structural IR diff of two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().Int("jobs", 0, "diff workers (0=auto)")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (must be pretty or json)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("jobs") {
		jobs = cfg.Analysis.Jobs
	}

	scratch, err := os.MkdirTemp("", "optdbg-diff-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	ctx := cmd.Context()
	pass := cfg.PassOptions()
	before, err := pipeline.LoadModule(ctx, &pass, args[0], filepath.Join(scratch, "before.ll"))
	if err != nil {
		return err
	}
	after, err := pipeline.LoadModule(ctx, &pass, args[1], filepath.Join(scratch, "after.ll"))
	if err != nil {
		return err
	}
	md, err := irdiff.DiffConcurrent(ctx, before, after, jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(md)
	}
	color, err := useColor(cmd, &cfg)
	if err != nil {
		return err
	}
	return diagfmt.ModuleDiff(out, md, color)
}
