package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kiln/internal/buildpipeline"
	"kiln/internal/driver"
	"kiln/internal/trace"
	"kiln/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.kn|directory]...",
	Short: "Compile and execute an entry function on the compile-time VM",
	RunE:  runRun,
}

func init() {
	addCompileFlags(runCmd)
	runCmd.Flags().String("entry", "main", "function to execute")
}

func runRun(cmd *cobra.Command, args []string) error {
	cleanup, err := setupSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := resolveTarget(args)
	if err != nil {
		return err
	}
	opts, jobs, err := compileOptions(cmd, t.cfg)
	if err != nil {
		return err
	}
	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	// Cached results carry no compiler to execute.
	opts.Cache = nil

	res, err := buildpipeline.Build(cmd.Context(), &buildpipeline.Request{
		Files:   t.files,
		BaseDir: t.baseDir,
		Jobs:    jobs,
		Options: opts,
	})
	if err != nil {
		return err
	}
	printDiagnostics(cmd.OutOrStdout(), res)
	if n := res.Broken(); n > 0 {
		return fmt.Errorf("build failed: %d of %d files have errors", n, len(res.Units))
	}

	unit, err := buildpipeline.FindEntry(res, entry)
	if err != nil {
		return err
	}
	span := trace.Begin(trace.FromContext(cmd.Context()), trace.ScopeDriver, "run", 0).WithExtra("entry", entry)
	start := time.Now()
	v, err := driver.Run(trace.WithSpan(cmd.Context(), span), unit.Result, entry, cmd.OutOrStdout())
	res.Timings.Add(buildpipeline.StageRun, time.Since(start))
	span.End("")
	if err != nil {
		return fmt.Errorf("%s: %w", unit.Name, err)
	}
	if err := printTimings(cmd, res); err != nil {
		return err
	}
	if !quiet && v.Kind != vm.VKVoid {
		fmt.Fprintf(cmd.OutOrStdout(), "=> %s\n", v)
	}
	return nil
}
