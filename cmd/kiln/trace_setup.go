package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiln/internal/trace"
)

// traceFlags are bound to the root's persistent --trace* flags.
var traceFlags struct {
	output   string
	level    string
	mode     string
	ringSize int
}

func registerTraceFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&traceFlags.output, "trace", "", "write compiler trace events to a file (- for stderr)")
	pf.StringVar(&traceFlags.level, "trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.StringVar(&traceFlags.mode, "trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.IntVar(&traceFlags.ringSize, "trace-ring-size", 4096, "ring buffer size for --trace-mode=ring|both")
}

// setupTracing attaches the tracer selected by the trace flags to the
// command context. An output path without a level traces at phase level.
// The returned cleanup flushes and closes the tracer.
func setupTracing(cmd *cobra.Command) (func(), error) {
	level, err := trace.ParseLevel(traceFlags.level)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff && traceFlags.output == "" {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	if level == trace.LevelOff {
		level = trace.LevelPhase
	}
	mode, err := trace.ParseMode(traceFlags.mode)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceFlags.output,
		RingSize:   traceFlags.ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	return func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
	}, nil
}
