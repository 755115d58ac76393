// Package classify turns AST type handles into registry descriptors.
//
// Classification is recursive: pointees, results, parameters and struct
// fields are classified on the way down. Named records, enums and scalars
// are memoized in the registry; a record that is still being classified is
// returned as a forward Reference, which is what breaks the cycles of
// self-referential structs.
package classify

import (
	"fmt"

	"cschema/internal/ctree"
	"cschema/internal/diag"
	"cschema/internal/layout"
	"cschema/internal/naming"
	"cschema/internal/types"
)

// Classifier resolves AST types against one registry. It is not safe for
// concurrent use.
type Classifier struct {
	reg      *types.Registry
	reporter diag.Reporter
	records  map[string]struct{} // records being classified
	typedefs map[string]struct{} // out-of-unit typedefs being resolved
	anon     map[ctree.Location]string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithReporter routes recovered conditions to r.
func WithReporter(r diag.Reporter) Option {
	return func(c *Classifier) {
		if r != nil {
			c.reporter = r
		}
	}
}

// New creates a classifier writing into reg.
func New(reg *types.Registry, opts ...Option) *Classifier {
	c := &Classifier{
		reg:      reg,
		reporter: diag.NopReporter{},
		records:  make(map[string]struct{}),
		typedefs: make(map[string]struct{}),
		anon:     make(map[ctree.Location]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves t with a throwaway classifier.
func Classify(reg *types.Registry, t ctree.Type) (types.Descriptor, error) {
	return New(reg).Classify(t)
}

// Registry returns the registry the classifier writes into.
func (c *Classifier) Registry() *types.Registry {
	return c.reg
}

// Classify resolves t into a descriptor. Only unsupported kinds and
// unusable sizes fail.
func (c *Classifier) Classify(t ctree.Type) (types.Descriptor, error) {
	return c.classify(t, "")
}

// ClassifyNamed resolves t, naming it hint if t is an anonymous record or
// enum. Typedefs use it so `typedef struct { ... } Point;` registers Point.
func (c *Classifier) ClassifyNamed(t ctree.Type, hint string) (types.Descriptor, error) {
	return c.classify(t, hint)
}

func (c *Classifier) classify(t ctree.Type, hint string) (types.Descriptor, error) {
	if t == nil {
		return nil, &diag.Error{Code: diag.ClsUnsupportedTypeKind, Kind: ctree.KindInvalid.String()}
	}
	kind := t.Kind()
	switch {
	case kind == ctree.KindElaborated:
		named := t.Named()
		if named == nil {
			return nil, c.unsupported(t)
		}
		return c.classify(named, hint)
	case kind == ctree.KindRecord:
		return c.record(t, hint)
	case kind == ctree.KindEnum:
		return c.enum(t, hint)
	case kind == ctree.KindPointer:
		return c.pointer(t)
	case kind == ctree.KindTypedef:
		return c.typedef(t)
	case kind.IsFunction():
		return c.function(t)
	case kind == ctree.KindConstantArray || kind == ctree.KindIncompleteArray:
		return c.decayedArray(t)
	case kind.IsPrimitive():
		return c.scalar(t)
	}
	return nil, c.unsupported(t)
}

func (c *Classifier) unsupported(t ctree.Type) error {
	e := &diag.Error{Code: diag.ClsUnsupportedTypeKind, Kind: t.Kind().String(), Spelling: t.Spelling()}
	if decl := t.Declaration(); decl != nil {
		e.Loc = decl.Location()
	}
	return e
}

func (c *Classifier) scalar(t ctree.Type) (types.Descriptor, error) {
	name := naming.Canonical(t.Spelling())
	if d, ok := c.reg.Lookup(name); ok {
		return d, nil
	}
	var width int64
	if t.Kind() != ctree.KindVoid {
		size, err := t.SizeOf()
		if err != nil {
			return nil, &diag.Error{Code: diag.ClsInvalidSize, Subject: name, Spelling: t.Spelling(), Err: err}
		}
		width = size
	}
	sk, err := layout.ScalarOf(t.Kind(), width, t.Spelling())
	if err != nil {
		return nil, &diag.Error{Code: diag.ClsUnexpectedWidth, Subject: name, Kind: t.Kind().String(), Spelling: t.Spelling(), Err: err}
	}
	d, _ := c.reg.Add(name, &types.Scalar{TypeName: name, Scalar: sk})
	return d, nil
}

func (c *Classifier) pointer(t ctree.Type) (types.Descriptor, error) {
	pointee := t.Pointee()
	if pointee == nil {
		return nil, c.unsupported(t)
	}
	if isPlainChar(pointee) {
		return &types.Reference{Target: types.CString}, nil
	}
	if pointee.Kind() == ctree.KindPointer && isPlainChar(pointee.Pointee()) {
		return &types.Reference{Target: types.CStringArray}, nil
	}
	d, err := c.classify(pointee, "")
	if err != nil {
		return nil, err
	}
	return &types.Pointer{Pointee: d, Mode: c.reg.ModeFor(d)}, nil
}

// isPlainChar matches char in any qualification but not the explicitly
// signed or unsigned variants, which are byte buffers.
func isPlainChar(t ctree.Type) bool {
	if t == nil {
		return false
	}
	k := t.Kind()
	return k == ctree.KindCharS || k == ctree.KindCharU
}

func (c *Classifier) function(t ctree.Type) (types.Descriptor, error) {
	result, err := c.classify(t.Result(), "")
	if err != nil {
		return nil, err
	}
	fn := &types.Function{Result: result, Variadic: t.Variadic()}
	if t.Kind() == ctree.KindFunctionNoProto {
		return fn, nil
	}
	for _, p := range t.Params() {
		d, err := c.classify(p, "")
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, types.Param{Type: d})
	}
	return fn, nil
}

// decayedArray classifies an array outside a struct the way C passes it:
// as a pointer to its first element.
func (c *Classifier) decayedArray(t ctree.Type) (types.Descriptor, error) {
	elem := t.Elem()
	if elem == nil {
		return nil, c.unsupported(t)
	}
	d, err := c.classify(elem, "")
	if err != nil {
		return nil, err
	}
	return &types.Pointer{Pointee: d, Mode: c.reg.ModeFor(d)}, nil
}

func (c *Classifier) typedef(t ctree.Type) (types.Descriptor, error) {
	decl := t.Declaration()
	if decl == nil {
		return nil, c.unsupported(t)
	}
	name := decl.Spelling()
	ref := &types.Reference{Target: name}
	if c.reg.Has(name) || !decl.Location().System {
		return ref, nil
	}
	// system headers are never harvested on their own
	if _, busy := c.typedefs[name]; busy {
		return ref, nil
	}
	c.typedefs[name] = struct{}{}
	defer delete(c.typedefs, name)
	d, err := c.classify(decl.Underlying(), name)
	if err != nil {
		return nil, fmt.Errorf("typedef %s: %w", name, err)
	}
	if r, ok := d.(*types.Reference); ok && r.Target == name {
		// `typedef struct X X;` reached while struct X is in progress
		return ref, nil
	}
	if fn, ok := types.FunctionOf(d); ok {
		named, err := Callback(decl, fn)
		if err != nil {
			return nil, err
		}
		c.reg.Add(name, named)
		return ref, nil
	}
	c.reg.Add(name, types.Retag(d, name, decl.Comment().Text))
	return ref, nil
}

// tagName resolves the registry name of a record or enum, consulting the
// naming hint and falling back to a location-derived name.
func (c *Classifier) tagName(t ctree.Type, kind, hint string) string {
	name, anon := naming.TagName(t.Spelling())
	decl := t.Declaration()
	if decl != nil && decl.IsAnonymous() {
		anon = true
	}
	if !anon {
		return name
	}
	if decl == nil {
		if hint != "" {
			return hint
		}
		return naming.Anonymous(kind, ctree.Location{})
	}
	loc := decl.Location()
	if prev, ok := c.anon[loc]; ok {
		return prev
	}
	if hint == "" {
		hint = naming.Anonymous(kind, loc)
	}
	c.anon[loc] = hint
	return hint
}
