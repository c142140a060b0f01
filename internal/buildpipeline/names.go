package buildpipeline

import (
	"path/filepath"
	"strings"
)

// DisplayNames returns the progress label of every file: its path relative
// to baseDir when it lies inside it, else the cleaned path, always with
// forward slashes. names[i] belongs to files[i].
func DisplayNames(files []string, baseDir string) []string {
	base := ""
	if strings.TrimSpace(baseDir) != "" {
		base = absOr(baseDir)
	}
	names := make([]string, len(files))
	for i, file := range files {
		name := filepath.Clean(file)
		if base != "" {
			rel, err := filepath.Rel(base, absOr(name))
			if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				name = rel
			}
		}
		names[i] = filepath.ToSlash(name)
	}
	return names
}

func absOr(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
