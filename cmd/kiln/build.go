package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kiln/internal/buildpipeline"
	"kiln/internal/diagfmt"
	"kiln/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.kn|directory]...",
	Short: "Compile kiln sources to LLVM IR",
	Long: `Compile every source of the project (or the given files) in parallel.
Clean files get a <name>.ll next to --out; diagnostics are printed per file.`,
	RunE: runBuild,
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().String("out", "build", "directory that receives the .ll outputs")
	buildCmd.Flags().Bool("no-emit", false, "check only, do not write IR")
	buildCmd.Flags().Var(&buildUI, "ui", "progress UI")
}

var buildUI = stateAuto

func runBuild(cmd *cobra.Command, args []string) error {
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
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	noEmit, err := cmd.Flags().GetBool("no-emit")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if noEmit {
		outDir = ""
	}
	opts.EmitIR = !noEmit

	req := &buildpipeline.Request{
		Files:     t.files,
		BaseDir:   t.baseDir,
		Jobs:      jobs,
		Options:   opts,
		OutputDir: outDir,
	}
	res, elapsed, err := build(cmd, req, t, buildUI.enabled(!quiet && isTerminal(os.Stdout)))
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	printDiagnostics(stdout, res)
	if err := printTimings(cmd, res); err != nil {
		return err
	}
	broken := res.Broken()
	if !quiet {
		fmt.Fprintln(stdout, ui.Summary(len(res.Units)-broken, broken, elapsed))
	}
	if broken > 0 {
		return fmt.Errorf("build failed: %d of %d files have errors", broken, len(res.Units))
	}
	return nil
}

// build runs req with or without the progress UI. Compile-time output is
// held back while the UI owns the terminal.
func build(cmd *cobra.Command, req *buildpipeline.Request, t *target, useTUI bool) (*buildpipeline.Result, time.Duration, error) {
	start := time.Now()
	if !useTUI {
		res, err := buildpipeline.Build(cmd.Context(), req)
		return res, time.Since(start), err
	}
	var held bytes.Buffer
	req.Options.Out = &held
	title := "building"
	if t.name != "" {
		title = "building " + t.name
	}
	names := buildpipeline.DisplayNames(req.Files, req.BaseDir)
	res, err := ui.RunBuild(cmd.Context(), os.Stdout, title, names, req)
	elapsed := time.Since(start)
	if _, werr := io.Copy(cmd.OutOrStdout(), &held); werr != nil && err == nil {
		err = werr
	}
	return res, elapsed, err
}

func printDiagnostics(w io.Writer, res *buildpipeline.Result) {
	for _, u := range res.Units {
		if u.Bag.Len() == 0 {
			continue
		}
		diagfmt.Pretty(w, u.Bag, res.Files, diagfmt.PrettyOpts{
			Color:     !colorDisabled(),
			ShowNotes: true,
		})
	}
}
