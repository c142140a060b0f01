package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kiln/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "kiln",
	Short:         "kiln compiler",
	Long:          `kiln compiles generic functions on demand and runs compile-time code`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupColor(cmd)
	},
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.Var(&colorMode, "color", "colorize output")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to keep per file")

	registerTraceFlags(rootCmd)

	pf.String("cpu-profile", "", "write a CPU profile to the given file")
	pf.String("mem-profile", "", "write a heap profile to the given file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to the given file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var colorMode = stateAuto

// setupColor applies --color to the global switch of every package printing
// through fatih/color.
func setupColor(*cobra.Command) error {
	color.NoColor = !colorMode.enabled(isTerminal(os.Stdout))
	return nil
}
