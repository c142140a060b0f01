package mono

import (
	"slices"
	"strconv"
	"strings"

	"kiln/internal/source"
	"kiln/internal/types"
)

// InstantiationKey is a comparable key for instantiations.
//
// Note: Go maps cannot use slices as keys, so we store a stable ArgsKey string.
// The corresponding bindings are stored in InstEntry.
type InstantiationKey struct {
	Generic string // mangled name of the generic declaration
	ArgsKey string
}

// UseSite records a location where an instantiation occurs.
type UseSite struct {
	Span   source.Span
	Caller string // mangled name of the function being compiled, "" at top level
	Note   string
}

// InstEntry captures one specialization of a generic function.
type InstEntry struct {
	Key         InstantiationKey
	Specialized string // mangled name of the specialization
	Bindings    []types.Binding
	UseSites    []UseSite
}

// TypeArgs returns the bound types in binding order.
func (e *InstEntry) TypeArgs() []types.TypeID {
	out := make([]types.TypeID, len(e.Bindings))
	for i, b := range e.Bindings {
		out[i] = b.Type
	}
	return out
}

// InstantiationMap tracks all generic instantiations of one compilation.
type InstantiationMap struct {
	Entries map[InstantiationKey]*InstEntry
}

// NewInstantiationMap creates a new empty InstantiationMap.
func NewInstantiationMap() *InstantiationMap {
	return &InstantiationMap{Entries: make(map[InstantiationKey]*InstEntry)}
}

// NormalizeBindings orders bindings by variable name so that the same
// substitution always produces the same key.
func NormalizeBindings(bindings []types.Binding) []types.Binding {
	if len(bindings) == 0 {
		return nil
	}
	out := slices.Clone(bindings)
	slices.SortFunc(out, func(a, b types.Binding) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Record registers a specialization at a specific site. Repeated sites are
// collapsed.
func (m *InstantiationMap) Record(generic string, bindings []types.Binding, specialized string, site source.Span, caller, note string) *InstEntry {
	if m == nil || generic == "" {
		return nil
	}
	if m.Entries == nil {
		m.Entries = make(map[InstantiationKey]*InstEntry)
	}

	normalized := NormalizeBindings(bindings)
	key := InstantiationKey{Generic: generic, ArgsKey: bindingsKey(normalized)}
	entry := m.Entries[key]
	if entry == nil {
		entry = &InstEntry{
			Key:         key,
			Specialized: specialized,
			Bindings:    normalized,
		}
		m.Entries[key] = entry
	}

	if site != (source.Span{}) {
		us := UseSite{Span: site, Caller: caller, Note: note}
		for _, existing := range entry.UseSites {
			if existing == us {
				return entry
			}
		}
		entry.UseSites = append(entry.UseSites, us)
	}
	return entry
}

// Len reports distinct specializations.
func (m *InstantiationMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

// Sorted returns entries ordered by generic name then specialization.
func (m *InstantiationMap) Sorted() []*InstEntry {
	if m == nil {
		return nil
	}
	out := make([]*InstEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *InstEntry) int {
		if c := strings.Compare(a.Key.Generic, b.Key.Generic); c != 0 {
			return c
		}
		return strings.Compare(a.Specialized, b.Specialized)
	})
	return out
}

func bindingsKey(bindings []types.Binding) string {
	if len(bindings) == 0 {
		return ""
	}
	var b strings.Builder
	for i, bd := range bindings {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(bd.Name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatUint(uint64(bd.Type), 10))
	}
	return b.String()
}
