package mono

import (
	"fmt"
	"io"

	"kiln/internal/source"
	"kiln/internal/types"
)

// DumpOptions configures the instantiation dump.
type DumpOptions struct {
	// If true, prints only the specialization headers.
	HeadersOnly bool
}

// Dump writes a text representation of m, one specialization per header line
// followed by its use sites.
func Dump(w io.Writer, m *InstantiationMap, typesIn *types.Interner, files *source.FileSet, opts DumpOptions) error {
	if w == nil || m == nil {
		return nil
	}
	for _, e := range m.Sorted() {
		if _, err := fmt.Fprintf(w, "%s -> %s", e.Key.Generic, e.Specialized); err != nil {
			return err
		}
		for i, b := range e.Bindings {
			sep := " ["
			if i > 0 {
				sep = ", "
			}
			fmt.Fprintf(w, "%s'%s=%s", sep, b.Name, typesIn.String(b.Type))
		}
		if len(e.Bindings) > 0 {
			fmt.Fprint(w, "]")
		}
		fmt.Fprintln(w)
		if opts.HeadersOnly {
			continue
		}
		for _, us := range e.UseSites {
			caller := us.Caller
			if caller == "" {
				caller = "<top>"
			}
			fmt.Fprintf(w, "  at %s in %s", formatSite(files, us.Span), caller)
			if us.Note != "" {
				fmt.Fprintf(w, " (%s)", us.Note)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func formatSite(files *source.FileSet, sp source.Span) string {
	if files == nil {
		return sp.String()
	}
	f := files.Get(sp.File)
	if f == nil {
		return sp.String()
	}
	start, _ := files.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
}
