package compiler

import "slices"

// Module is one compilation unit: function declarations grouped by base name
// in declaration order.
type Module struct {
	Name  string
	decls map[string][]*FuncDecl
	names []string
}

func NewModule(name string) *Module {
	return &Module{Name: name, decls: make(map[string][]*FuncDecl)}
}

// Add appends fd under its base name.
func (m *Module) Add(fd *FuncDecl) {
	if _, ok := m.decls[fd.Name]; !ok {
		m.names = append(m.names, fd.Name)
	}
	m.decls[fd.Name] = append(m.decls[fd.Name], fd)
}

// Lookup returns the variants declared under name.
func (m *Module) Lookup(name string) []*FuncDecl {
	return m.decls[name]
}

// Names lists base names in first-declaration order.
func (m *Module) Names() []string {
	return m.names
}

// Decls returns every declaration in order of base name then declaration.
func (m *Module) Decls() []*FuncDecl {
	var out []*FuncDecl
	for _, n := range m.names {
		out = append(out, m.decls[n]...)
	}
	return out
}

// View merges several modules for lookup. The first module is the home:
// declarations made while the view is active belong to it.
type View struct {
	mods []*Module
}

func NewView(mods ...*Module) *View {
	return &View{mods: mods}
}

// Home is the module lookups are relative to.
func (v *View) Home() *Module {
	if len(v.mods) == 0 {
		return nil
	}
	return v.mods[0]
}

// With returns a view with m as its home, followed by the modules of v.
func (v *View) With(m *Module) *View {
	mods := make([]*Module, 0, len(v.mods)+1)
	mods = append(mods, m)
	for _, other := range v.mods {
		if other != m {
			mods = append(mods, other)
		}
	}
	return &View{mods: mods}
}

// Contains reports whether m participates in the view.
func (v *View) Contains(m *Module) bool {
	return slices.Contains(v.mods, m)
}

// Lookup returns a snapshot of every variant of name across the view, home
// first, without duplicates. Appends made later do not affect the snapshot.
func (v *View) Lookup(name string) []*FuncDecl {
	var out []*FuncDecl
	for _, m := range v.mods {
		for _, fd := range m.decls[name] {
			if !slices.Contains(out, fd) {
				out = append(out, fd)
			}
		}
	}
	return out
}

// Find returns the variant of name with the given mangled name.
func (v *View) Find(name, mangled string) *FuncDecl {
	for _, m := range v.mods {
		for _, fd := range m.decls[name] {
			if fd.Mangled == mangled {
				return fd
			}
		}
	}
	return nil
}
