package buildpipeline

import (
	"fmt"
	"strings"
)

// FindEntry returns the single clean unit declaring a function named entry.
func FindEntry(res *Result, entry string) (*Unit, error) {
	if res == nil {
		return nil, fmt.Errorf("missing build result")
	}
	var found []*Unit
	for _, u := range res.Units {
		if u.Compiler == nil {
			continue
		}
		if len(u.Compiler.View().Lookup(entry)) > 0 {
			found = append(found, u)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no `%s` function found", entry)
	case 1:
		if found[0].Broken() {
			return nil, fmt.Errorf("%s: cannot run a file with errors", found[0].Name)
		}
		return found[0], nil
	}
	names := make([]string, len(found))
	for i, u := range found {
		names[i] = u.Name
	}
	return nil, fmt.Errorf("multiple `%s` functions found: %s", entry, strings.Join(names, ", "))
}
