package types

import (
	"fmt"
	"sort"
)

// Names of the C string sentinels seeded into every registry.
const (
	CString      = "cstring"
	CStringArray = "cstringArray"
)

// Registry is the name-keyed store of resolved descriptors. It holds at
// most one descriptor per name and remembers insertion order so every
// traversal over it is deterministic.
type Registry struct {
	order   []string
	entries map[string]Descriptor
	seeded  int
}

// Mark is a registry position captured by Checkpoint.
type Mark struct {
	n int
}

// NewRegistry constructs a registry seeded with the C string sentinels.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Descriptor, 64)}
	char := &Scalar{TypeName: "char", Scalar: ScalarI8}
	r.Add(CString, &Pointer{Pointee: char, Mode: ModeBuffer})
	r.Add(CStringArray, &Pointer{Pointee: &Reference{Target: CString}, Mode: ModeBuffer})
	r.seeded = len(r.order)
	return r
}

// Add registers d under name unless the name is taken. It returns the
// descriptor stored under name and whether d was inserted.
func (r *Registry) Add(name string, d Descriptor) (Descriptor, bool) {
	if name == "" {
		panic("types: registry entry without a name")
	}
	if d == nil {
		panic(fmt.Sprintf("types: nil descriptor for %q", name))
	}
	if existing, ok := r.entries[name]; ok {
		return existing, false
	}
	r.entries[name] = d
	r.order = append(r.order, name)
	return d, true
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.entries[name]
	return d, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Len returns the number of registered entries, sentinels included.
func (r *Registry) Len() int {
	return len(r.order)
}

// Builtin reports whether name is one of the seeded sentinels.
func (r *Registry) Builtin(name string) bool {
	for _, n := range r.order[:r.seeded] {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns registered names in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Sorted returns registered names in lexicographic order.
func (r *Registry) Sorted() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

// Resolve follows references until a non-reference descriptor or an
// unknown name is reached. Cycles stop at the first repeated name.
func (r *Registry) Resolve(d Descriptor) Descriptor {
	seen := make(map[string]struct{})
	for {
		ref, ok := d.(*Reference)
		if !ok {
			return d
		}
		if _, loop := seen[ref.Target]; loop {
			return d
		}
		seen[ref.Target] = struct{}{}
		next, ok := r.entries[ref.Target]
		if !ok {
			return d
		}
		d = next
	}
}

// ModeFor computes the marshalling mode of a pointer to pointee. A bare
// void pointee is an opaque handle and a function (direct or named) uses
// the function mode. Every other pointee, a reference to a void typedef
// included, is a byte buffer.
func (r *Registry) ModeFor(pointee Descriptor) Mode {
	switch v := pointee.(type) {
	case *Scalar:
		if v.Scalar == ScalarVoid {
			return ModePointer
		}
	case *Function:
		return ModeFunction
	case *Reference:
		if _, ok := r.Resolve(v).(*Function); ok {
			return ModeFunction
		}
	}
	return ModeBuffer
}

// Checkpoint captures the current registry state.
func (r *Registry) Checkpoint() Mark {
	return Mark{n: len(r.order)}
}

// Rollback drops every entry added after m was taken.
func (r *Registry) Rollback(m Mark) {
	if m.n < r.seeded || m.n > len(r.order) {
		return
	}
	for _, name := range r.order[m.n:] {
		delete(r.entries, name)
	}
	r.order = r.order[:m.n]
}
