// Package emit is the second pass over a finished registry. It orders
// records so every dependency precedes its dependents, de-inlines
// function-pointer struct fields into named callback records and computes
// the minimal import set of every module. The registry is never modified.
package emit

import (
	"context"
	"fmt"
	"slices"

	slogctx "github.com/veqryn/slog-context"

	"cschema/internal/diag"
	"cschema/internal/harvest"
	"cschema/internal/naming"
	"cschema/internal/schema"
	"cschema/internal/trace"
	"cschema/internal/types"
)

// Record is one top-level record in emission order.
type Record struct {
	Name        string
	Descriptor  types.Descriptor
	Synthesized bool
}

// Records returns every registry entry, plus synthesized callback records,
// in emission order: scalars and the string sentinels, then enums, then the
// rest sorted so that no record names a record emitted after it. Pointer
// dependencies give way only where a cycle leaves no other order, as C
// allows pointers to types that are completed later.
func Records(reg *types.Registry) ([]Record, error) {
	var scalars, enums, rest []string
	for _, name := range reg.Sorted() {
		d, _ := reg.Lookup(name)
		switch {
		case d.Kind() == types.KindScalar || reg.Builtin(name):
			scalars = append(scalars, name)
		case d.Kind() == types.KindEnum:
			enums = append(enums, name)
		default:
			rest = append(rest, name)
		}
	}

	out := make([]Record, 0, reg.Len())
	for _, group := range [][]string{scalars, enums} {
		for _, name := range group {
			d, _ := reg.Lookup(name)
			out = append(out, Record{Name: name, Descriptor: d})
		}
	}

	nodes := make(map[string]Record, len(rest))
	for _, name := range rest {
		d, _ := reg.Lookup(name)
		nodes[name] = Record{Name: name, Descriptor: d}
	}
	synth := make(map[string]string) // synthesized name -> owning struct
	for _, name := range rest {
		s, ok := nodes[name].Descriptor.(*types.Struct)
		if !ok {
			continue
		}
		copied, callbacks, err := deinline(reg, s, synth)
		if err != nil {
			return nil, err
		}
		if len(callbacks) == 0 {
			continue
		}
		nodes[name] = Record{Name: name, Descriptor: copied}
		for _, cb := range callbacks {
			nodes[cb.TypeName] = Record{Name: cb.TypeName, Descriptor: cb, Synthesized: true}
		}
	}

	names := make([]string, 0, len(nodes))
	for n := range nodes {
		names = append(names, n)
	}
	g := newGraph(names)
	for _, n := range names {
		for _, dep := range dependencies(nodes[n].Descriptor) {
			g.require(n, dep.name, dep.weak)
		}
	}
	sorted := g.sort()
	for _, n := range sorted.Order {
		out = append(out, nodes[n])
	}
	// A by-value cycle cannot be laid out by a C compiler, so this only
	// triggers on malformed input; keep the records rather than drop them.
	for _, n := range sorted.Cycles {
		out = append(out, nodes[n])
	}
	return out, nil
}

// deinline copies s, replacing every field whose type is a pointer to an
// unnamed function with a reference to a synthesized callback record.
func deinline(reg *types.Registry, s *types.Struct, synth map[string]string) (*types.Struct, []*types.Function, error) {
	var idx []int
	for i, f := range s.Fields {
		if inlineCallback(f.Type) != nil {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return s, nil, nil
	}
	copied := *s
	copied.Fields = slices.Clone(s.Fields)
	callbacks := make([]*types.Function, 0, len(idx))
	for _, i := range idx {
		f := &copied.Fields[i]
		name := naming.CallbackName(s.TypeName, f.Name, len(idx) > 1)
		if reg.Has(name) {
			return nil, nil, &diag.Error{Code: diag.EmtNameCollision, Subject: s.TypeName, Spelling: name}
		}
		if owner, taken := synth[name]; taken {
			return nil, nil, &diag.Error{
				Code:     diag.EmtNameCollision,
				Subject:  s.TypeName,
				Spelling: name,
				Err:      fmt.Errorf("already synthesized for %s", owner),
			}
		}
		synth[name] = s.TypeName
		cb, _ := types.Retag(inlineCallback(f.Type), name, f.Doc).(*types.Function)
		callbacks = append(callbacks, cb)
		f.Type = &types.Reference{Target: name}
	}
	return &copied, callbacks, nil
}

// inlineCallback returns the signature of a pointer to an unnamed function.
func inlineCallback(d types.Descriptor) *types.Function {
	p, ok := d.(*types.Pointer)
	if !ok {
		return nil
	}
	fn, ok := p.Pointee.(*types.Function)
	if !ok || fn.TypeName != "" {
		return nil
	}
	return fn
}

type dependency struct {
	name string
	weak bool // reached through a pointer
}

// dependencies lists the records d must follow.
func dependencies(d types.Descriptor) []dependency {
	var deps []dependency
	var walk func(d types.Descriptor, top, weak bool)
	walk = func(d types.Descriptor, top, weak bool) {
		switch v := d.(type) {
		case *types.Reference:
			deps = append(deps, dependency{v.Target, weak})
		case *types.Struct:
			if !top {
				deps = append(deps, dependency{v.TypeName, weak})
				return
			}
			for _, f := range v.Fields {
				walk(f.Type, false, weak)
			}
		case *types.Enum:
			if !top {
				deps = append(deps, dependency{v.TypeName, weak})
			}
		case *types.Function:
			if !top && v.TypeName != "" {
				deps = append(deps, dependency{v.TypeName, weak})
				return
			}
			for _, p := range v.Params {
				walk(p.Type, false, weak)
			}
			if v.Result != nil {
				walk(v.Result, false, weak)
			}
		case *types.Pointer:
			walk(v.Pointee, false, true)
		}
	}
	walk(d, true, false)
	return deps
}

// Imports computes the sorted, deduplicated names a module's functions
// reference, and the sorted list of marshalling helpers they need.
func Imports(fns []*harvest.FunctionDecl) (imports, helpers []string) {
	names := make(map[string]struct{})
	modes := make(map[string]struct{})
	var walk func(d types.Descriptor)
	walk = func(d types.Descriptor) {
		switch v := d.(type) {
		case nil:
		case *types.Reference:
			names[v.Target] = struct{}{}
		case *types.Enum:
			names[v.TypeName] = struct{}{}
		case *types.Struct:
			names[v.TypeName] = struct{}{}
		case *types.Scalar:
			if v.Scalar == types.ScalarOpaque {
				names[v.TypeName] = struct{}{}
			}
		case *types.Pointer:
			modes[v.Mode.String()] = struct{}{}
			walk(v.Pointee)
		case *types.Function:
			if v.TypeName != "" {
				names[v.TypeName] = struct{}{}
				return
			}
			modes[types.ModeFunction.String()] = struct{}{}
			for _, p := range v.Params {
				walk(p.Type)
			}
			walk(v.Result)
		}
	}
	for _, fn := range fns {
		for _, p := range fn.Params {
			walk(p.Type)
		}
		walk(fn.Result)
	}
	return sortedKeys(names), sortedKeys(modes)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Emit produces the schema of a finished run: the ordered records of reg
// and one module per harvested unit.
func Emit(ctx context.Context, reg *types.Registry, units []*harvest.Unit) (*schema.Schema, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	records, err := Records(reg)
	if err != nil {
		return nil, err
	}
	out := &schema.Schema{
		Version: schema.Version,
		Records: make([]schema.Record, 0, len(records)),
		Modules: make([]schema.Module, 0, len(units)),
	}
	synthesized := 0
	for _, r := range records {
		out.Records = append(out.Records, toRecord(r))
		if r.Synthesized {
			synthesized++
		}
	}
	for _, u := range units {
		imports, helpers := Imports(u.Functions)
		m := schema.Module{
			Name:      u.Module,
			Header:    u.Path,
			Imports:   imports,
			Helpers:   helpers,
			Functions: make([]schema.Function, 0, len(u.Functions)),
		}
		for _, fn := range u.Functions {
			m.Functions = append(m.Functions, schema.Function{
				Name:     fn.Name,
				Symbol:   fn.Symbol,
				Doc:      fn.Doc,
				Params:   toParams(fn.Params),
				Result:   toRef(fn.Result),
				Variadic: fn.Variadic,
			})
		}
		out.Modules = append(out.Modules, m)
	}
	slogctx.Debug(ctx, "emitted schema", "records", len(out.Records), "synthesized", synthesized, "modules", len(out.Modules))
	return out, nil
}
