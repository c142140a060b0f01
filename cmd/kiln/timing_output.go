package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kiln/internal/buildpipeline"
)

func colorDisabled() bool { return color.NoColor }

// printTimings writes the per-stage and per-file timings when --timings is
// set. Functions are listed slowest first.
func printTimings(cmd *cobra.Command, res *buildpipeline.Result) error {
	enabled, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if !enabled || res == nil {
		return nil
	}
	w := cmd.ErrOrStderr()
	for _, stage := range buildpipeline.Stages() {
		if res.Timings.Has(stage) {
			fmt.Fprintf(w, "%-8s %s\n", stage, res.Timings.Duration(stage).Round(time.Microsecond))
		}
	}
	for _, u := range res.Units {
		cached := ""
		if u.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "%s%s\n", u.Name, cached)
		if len(u.Timing.Phases) > 0 {
			fmt.Fprint(w, u.Timing.String())
		}
		for _, p := range u.FuncTiming.Slowest(5) {
			fmt.Fprintf(w, "  fn %-17s %7.2f ms\n", p.Name, p.DurationMS)
		}
	}
	return nil
}
