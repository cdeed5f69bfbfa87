package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"optdbg/internal/trace"
)

// activeTracer is kept so main can dump the ring buffer after a failure.
var activeTracer trace.Tracer = trace.Nop

// traceToStderr is set while trace events stream to stderr, where the
// analyze progress view would also draw.
var traceToStderr bool

// setupTracing reads the trace flags, attaches a tracer to the command
// context and returns its cleanup.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace alone means phase-level tracing
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	activeTracer = tracer
	traceToStderr = streamsToStderr(mode, traceOutput)

	ctx, span := trace.StartSpan(trace.WithTracer(cmd.Context(), tracer), trace.ScopeDriver, "cmd:"+cmd.Name())
	cmd.SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval, cmd.Name())

	return func() {
		heartbeat.Stop()
		span.End("")
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
		activeTracer = trace.Nop
		traceToStderr = false
	}, nil
}

func streamsToStderr(mode trace.StorageMode, output string) bool {
	return mode != trace.ModeRing && (output == "" || output == "-")
}

// dumpTailSize bounds the events printed after a failure.
const dumpTailSize = 64

// dumpTraceRing prints where the analysis stopped and the tail of the ring
// buffer, if one is configured. Called before cleanups so the buffer is
// still intact.
func dumpTraceRing(w io.Writer) {
	ring, ok := trace.Ring(activeTracer)
	if !ok {
		return
	}
	writeRingSummary(w, ring)
	fmt.Fprintln(w, "trace: last events before failure:")
	for _, ev := range ring.Tail(dumpTailSize) {
		if _, err := w.Write(trace.FormatEvent(&ev, trace.FormatText)); err != nil {
			fmt.Fprintf(w, "trace: dump error: %v\n", err)
			return
		}
	}
}

func writeRingSummary(w io.Writer, ring *trace.RingTracer) {
	if open := ring.OpenSpans(); len(open) > 0 {
		fmt.Fprintf(w, "trace: failed inside %s\n", strings.Join(open, " > "))
	}
	if failed := ring.FailedFunctions(); len(failed) > 0 {
		fmt.Fprintf(w, "trace: function diffs failed: %s\n", strings.Join(failed, ", "))
	}
}
