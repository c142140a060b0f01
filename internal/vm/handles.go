package vm

// Handle is an opaque reference to a host object, valid only inside the VM
// that issued it.
type Handle uint32

// HandleTable stores host objects behind handles. Handle 0 is never issued.
type HandleTable struct {
	items []any
}

// Put stores obj and returns its handle.
func (t *HandleTable) Put(obj any) Handle {
	if len(t.items) == 0 {
		t.items = append(t.items, nil)
	}
	t.items = append(t.items, obj)
	return Handle(len(t.items) - 1) //nolint:gosec // bounded by table size
}

// Get resolves a handle.
func (t *HandleTable) Get(h Handle) (any, bool) {
	if h == 0 || int(h) >= len(t.items) {
		return nil, false
	}
	return t.items[h], true
}

// Len reports issued handles.
func (t *HandleTable) Len() int {
	if len(t.items) == 0 {
		return 0
	}
	return len(t.items) - 1
}
