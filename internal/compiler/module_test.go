package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func names(fds []*FuncDecl) []string {
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.Mangled
	}
	return out
}

func TestModuleKeepsDeclarationOrder(t *testing.T) {
	m := NewModule("unit")
	m.Add(&FuncDecl{Name: "f", Mangled: "f_i32"})
	m.Add(&FuncDecl{Name: "g", Mangled: "g"})
	m.Add(&FuncDecl{Name: "f", Mangled: "f_f64"})

	if diff := cmp.Diff([]string{"f", "g"}, m.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"f_i32", "f_f64", "g"}, names(m.Decls())); diff != "" {
		t.Fatalf("decls mismatch (-want +got):\n%s", diff)
	}
}

func TestViewHomeFirstWithoutDuplicates(t *testing.T) {
	a, b := NewModule("a"), NewModule("b")
	shared := &FuncDecl{Name: "f", Mangled: "f_shared"}
	a.Add(&FuncDecl{Name: "f", Mangled: "f_a"})
	a.Add(shared)
	b.Add(&FuncDecl{Name: "f", Mangled: "f_b"})
	b.Add(shared)

	v := NewView(a).With(b)
	if v.Home() != b || !v.Contains(a) {
		t.Fatalf("home = %v", v.Home())
	}
	if diff := cmp.Diff([]string{"f_b", "f_shared", "f_a"}, names(v.Lookup("f"))); diff != "" {
		t.Fatalf("lookup mismatch (-want +got):\n%s", diff)
	}
	if again := v.With(a); again.Home() != a || len(again.mods) != 2 {
		t.Fatalf("With duplicated a module: %d", len(again.mods))
	}
	if v.Find("f", "f_a") == nil || v.Find("f", "f_c") != nil {
		t.Fatalf("Find by mangled name")
	}
}

func TestViewLookupIsSnapshot(t *testing.T) {
	m := NewModule("unit")
	m.Add(&FuncDecl{Name: "f", Mangled: "f_1"})
	v := NewView(m)
	snap := v.Lookup("f")
	m.Add(&FuncDecl{Name: "f", Mangled: "f_2"})
	if len(snap) != 1 || len(v.Lookup("f")) != 2 {
		t.Fatalf("snapshot changed: %v", names(snap))
	}
}
