// Package testkit holds structural checks shared by tests across packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"kiln/internal/ast"
	"kiln/internal/mir"
	"kiln/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) file.Span is non-empty and within file content bounds
// 2) every item span is non-empty and fully contained in file.Span
// 3) file.Span covers the union of item spans (if any items exist)
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}

	var union source.Span
	var haveItem bool
	for i, it := range f.Items {
		sp, err := itemSpan(it)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if sp.End <= sp.Start {
			return fmt.Errorf("empty item span: %v", sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("item span file mismatch: got=%d want=%d", sp.File, sf.ID)
		}
		if sp.Start < f.Span.Start || sp.End > f.Span.End {
			return fmt.Errorf("item span %v is outside file span %v", sp, f.Span)
		}
		if !haveItem {
			union = sp
			haveItem = true
		} else {
			union = union.Cover(sp)
		}
	}
	if haveItem && (union.Start < f.Span.Start || union.End > f.Span.End) {
		return fmt.Errorf("file span %v does not cover items %v", f.Span, union)
	}
	return nil
}

func itemSpan(it ast.Item) (source.Span, error) {
	switch it.Kind {
	case ast.ItemFn:
		if it.Fn != nil {
			return it.Fn.Span, nil
		}
	case ast.ItemType:
		if it.Type != nil {
			return it.Type.Span, nil
		}
	case ast.ItemExt:
		if it.Ext != nil {
			return it.Ext.Span, nil
		}
	}
	return source.Span{}, fmt.Errorf("kind %d without payload", it.Kind)
}

// CheckModule validates every function of mod and checks that the module
// index and ownership links agree.
func CheckModule(mod *mir.Module) error {
	seen := make(map[string]bool, len(mod.Funcs))
	for _, f := range mod.Funcs {
		if seen[f.Name] {
			return fmt.Errorf("function %s appears twice", f.Name)
		}
		seen[f.Name] = true
		if f.Module != mod {
			return fmt.Errorf("function %s is owned by another module", f.Name)
		}
		if got, ok := mod.Lookup(f.Name); !ok || got != f {
			return fmt.Errorf("function %s is not indexed", f.Name)
		}
		if f.IsDecl() {
			continue
		}
		if err := mir.Validate(f); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	return nil
}
