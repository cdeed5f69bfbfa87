package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"optdbg/internal/version"
)

// newRootCmd builds the command tree. Tests build a fresh tree per run so
// flag state never leaks between them.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "optdbg",
		Short: "Explain why LLVM optimizations were missed",
		Long: `optdbg runs an LLVM pass pipeline (or reads two IR snapshots), diffs the
IR structurally and turns optimization remarks into ranked explanations
with fix suggestions.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupCommand,
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("config", "", "path to optdbg.toml (default: search upward from the working directory)")
	pf.Bool("no-color", false, "disable colored output")
	pf.String("trace", "", "trace output file (- for stderr, *.ndjson for NDJSON)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace encoding (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	pf.String("cpuprofile", "", "write a CPU profile to file")
	pf.String("memprofile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.AddCommand(
		newAnalyzeCmd(),
		newDiffCmd(),
		newRemarksCmd(),
		newPatternsCmd(),
		newReportCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		dumpTraceRing(os.Stderr)
	}
	runCleanups()
	if err != nil && err.Error() != "" {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// setupCommand starts tracing and profiling for the command being run.
func setupCommand(cmd *cobra.Command, _ []string) error {
	traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, traceCleanup)

	profCleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, profCleanup)
	return nil
}

var cleanups []func()

// runCleanups runs registered cleanups in reverse order, once.
func runCleanups() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
