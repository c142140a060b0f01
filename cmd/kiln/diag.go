package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/buildpipeline"
	"kiln/internal/diag"
	"kiln/internal/diagfmt"
	"kiln/internal/mono"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [file.kn|directory]...",
	Short: "Report diagnostics for kiln sources without writing outputs",
	RunE:  runDiagnose,
}

func init() {
	addCompileFlags(diagCmd)
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	diagCmd.Flags().Bool("with-notes", true, "include diagnostic notes")
	diagCmd.Flags().Bool("basename", false, "print file names without directories")
	diagCmd.Flags().Bool("emit-instantiations", false, "print the generic instantiation map of each file")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cleanup, err := setupSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (expected pretty|json)", format)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	basename, err := cmd.Flags().GetBool("basename")
	if err != nil {
		return err
	}
	emitInst, err := cmd.Flags().GetBool("emit-instantiations")
	if err != nil {
		return err
	}

	t, err := resolveTarget(args)
	if err != nil {
		return err
	}
	opts, jobs, err := compileOptions(cmd, t.cfg)
	if err != nil {
		return err
	}
	if emitInst {
		opts.Cache = nil
	}

	res, err := buildpipeline.Build(cmd.Context(), &buildpipeline.Request{
		Files:   t.files,
		BaseDir: t.baseDir,
		Jobs:    jobs,
		Options: opts,
	})
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAsIs
	if basename {
		pathMode = diagfmt.PathModeBasename
	}
	all := diag.NewBag(0)
	for _, u := range res.Units {
		all.Merge(u.Bag)
	}
	all.Sort()
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if err := diagfmt.JSON(out, all, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}); err != nil {
			return err
		}
	default:
		diagfmt.Pretty(out, all, res.Files, diagfmt.PrettyOpts{
			Color:     !colorDisabled(),
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
	}

	if emitInst {
		for _, u := range res.Units {
			if u.Compiler == nil {
				continue
			}
			fmt.Fprintf(out, "== %s\n", u.Name)
			if err := mono.Dump(out, u.Compiler.Instantiations(), u.Compiler.Types(), res.Files, mono.DumpOptions{}); err != nil {
				return err
			}
		}
	}
	if err := printTimings(cmd, res); err != nil {
		return err
	}
	if all.HasErrors() {
		return fmt.Errorf("%d errors", all.ErrorCount())
	}
	return nil
}
