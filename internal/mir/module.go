package mir

import "slices"

// Module owns a set of functions keyed by symbol name.
type Module struct {
	Name  string
	Funcs []*Func
	index map[string]*Func
}

func NewModule(name string) *Module {
	return &Module{Name: name, index: make(map[string]*Func)}
}

// Add registers f; a function with the same name is replaced.
func (m *Module) Add(f *Func) {
	if old, ok := m.index[f.Name]; ok {
		m.Remove(old)
	}
	f.Module = m
	m.Funcs = append(m.Funcs, f)
	m.index[f.Name] = f
}

// Lookup finds a function by symbol name.
func (m *Module) Lookup(name string) (*Func, bool) {
	f, ok := m.index[name]
	return f, ok
}

// Remove drops f from the module, if present.
func (m *Module) Remove(f *Func) {
	idx := slices.Index(m.Funcs, f)
	if idx < 0 {
		return
	}
	m.Funcs = slices.Delete(m.Funcs, idx, idx+1)
	if m.index[f.Name] == f {
		delete(m.index, f.Name)
	}
	f.Module = nil
}
