package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiln/internal/config"
	"kiln/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build outputs and the compile cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().String("out", "build", "output directory to remove, relative to the project root")
	cleanCmd.Flags().Bool("keep-cache", false, "leave the compile cache in place")
}

func runClean(cmd *cobra.Command, args []string) error {
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	root, err := resolveCleanBase(base)
	if err != nil {
		return err
	}
	outName, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	keepCache, err := cmd.Flags().GetBool("keep-cache")
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()

	outDir := filepath.Join(root, outName)
	switch info, err := os.Stat(outDir); {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(stdout, "output directory not found")
	case err != nil:
		return fmt.Errorf("failed to stat %q: %w", outDir, err)
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", outDir)
	default:
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", outDir, err)
		}
		fmt.Fprintf(stdout, "removed %s\n", outDir)
	}

	if keepCache {
		return nil
	}
	cache, err := driver.OpenDiskCache("kiln")
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	fmt.Fprintf(stdout, "cleared cache %s\n", cache.Dir())
	return nil
}

// resolveCleanBase returns the manifest root above base, or base itself.
func resolveCleanBase(base string) (string, error) {
	info, err := os.Stat(base)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", base, err)
	}
	if !info.IsDir() {
		base = filepath.Dir(base)
	}
	m, ok, err := config.Discover(base)
	if err != nil {
		return "", err
	}
	if ok {
		return m.Root, nil
	}
	if abs, err := filepath.Abs(base); err == nil {
		return abs, nil
	}
	return base, nil
}
