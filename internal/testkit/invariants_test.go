package testkit

import (
	"testing"

	"kiln/internal/diag"
	"kiln/internal/mir"
	"kiln/internal/parser"
	"kiln/internal/source"
	"kiln/internal/types"
)

func TestSpanInvariantsHoldForParsedFile(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("inv.kn", []byte(`
type Box<'t>;
fn f(x: i32) -> i32 { x }
ext Box<i32> { fn get(self) -> i32; }
`))
	bag := diag.NewBag(8)
	f := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if err := CheckSpanInvariants(f, fs.Get(id)); err != nil {
		t.Fatal(err)
	}
}

func TestCheckModuleRejectsOpenBlocks(t *testing.T) {
	in := types.NewInterner()
	void := in.Builtins().Void
	mod := mir.NewModule("m")
	f := mir.NewFunc("f", in.Fn(nil, void), nil, void)
	f.NewBlock("entry")
	mod.Add(f)
	if err := CheckModule(mod); err == nil {
		t.Fatalf("open block accepted")
	}
	mod.Remove(f)
	mod.Add(mir.NewFunc("ext", in.Fn(nil, void), nil, void))
	if err := CheckModule(mod); err != nil {
		t.Fatalf("declaration rejected: %v", err)
	}
}
