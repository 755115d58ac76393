// Package harvest walks the top-level declarations of one translation unit
// and feeds them to the classifier. It promotes function typedefs into named
// callback records, back-fills parameter names from declarations and
// collects the unit's function declarations.
package harvest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"cschema/internal/classify"
	"cschema/internal/ctree"
	"cschema/internal/diag"
	"cschema/internal/trace"
	"cschema/internal/types"
)

// FunctionDecl is one function declared by the unit. It is immutable once
// harvested.
type FunctionDecl struct {
	Name string
	// Symbol is the linker-level name and the record's emitted identifier.
	Symbol   string
	Params   []types.Param
	Result   types.Descriptor
	Variadic bool
	Doc      string
	Loc      ctree.Location
}

// Unit is the harvest of one header.
type Unit struct {
	Path      string
	Module    string
	Functions []*FunctionDecl
}

// ModuleName derives a module name from a header path: "include/gfx-core.h"
// becomes "gfx_core".
func ModuleName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, stem)
}

// Harvester drives the classifier over translation units. Harvests are
// sequential; one harvester serves every unit of a run.
type Harvester struct {
	cls      *classify.Classifier
	reg      *types.Registry
	reporter diag.Reporter
}

// New creates a harvester writing through cls. reporter may be nil.
func New(cls *classify.Classifier, reporter diag.Reporter) *Harvester {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Harvester{cls: cls, reg: cls.Registry(), reporter: reporter}
}

// Harvest processes the declarations located in unit itself. Any fatal
// error rolls the registry back to its state before the call, so a failed
// unit leaves nothing behind.
func (h *Harvester) Harvest(ctx context.Context, unit ctree.Unit) (out *Unit, err error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "harvest:"+unit.Path(), trace.CurrentSpan(ctx).SpanID)
	mark := h.reg.Checkpoint()
	defer func() {
		if err != nil {
			h.reg.Rollback(mark)
			span.WithExtra("error", err.Error())
		}
		span.End("")
	}()
	ctx = slogctx.With(ctx, "header", unit.Path())

	out = &Unit{Path: unit.Path(), Module: ModuleName(unit.Path())}
	seen := make(map[string]*FunctionDecl)
	for _, decl := range unit.Declarations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !decl.Location().Main {
			continue
		}
		trace.Point(tracer, trace.ScopeDecl, decl.Kind().String(), decl.Spelling(), span.ID())
		switch decl.Kind() {
		case ctree.CursorEnumDecl, ctree.CursorStructDecl, ctree.CursorUnionDecl:
			err = h.tagged(ctx, decl)
		case ctree.CursorTypedefDecl:
			err = h.typedef(ctx, decl)
		case ctree.CursorFunctionDecl:
			var fn *FunctionDecl
			fn, err = h.function(decl)
			if err == nil && fn != nil {
				if prev, dup := seen[fn.Symbol]; dup {
					diag.ReportInfo(h.reporter, diag.HrvDuplicateFunction, fn.Loc,
						fmt.Sprintf("function %s declared again, keeping the first prototype", fn.Name)).
						WithNote(prev.Loc, "first declared here").Emit()
					continue
				}
				seen[fn.Symbol] = fn
				out.Functions = append(out.Functions, fn)
				slogctx.Debug(ctx, "harvested function", "symbol", fn.Symbol, "params", len(fn.Params))
			}
		}
		if err != nil {
			return nil, err
		}
	}
	span.WithExtra("functions", strconv.Itoa(len(out.Functions)))
	slogctx.Info(ctx, "harvested unit", "functions", len(out.Functions), "records", h.reg.Len())
	return out, nil
}

// tagged classifies named enum, struct and union declarations so types
// reached only through typedef chains, or not at all, are still described.
// Anonymous ones are reached through their typedef or owning field.
func (h *Harvester) tagged(ctx context.Context, decl ctree.Cursor) error {
	if decl.IsAnonymous() || decl.Spelling() == "" {
		return nil
	}
	d, err := h.cls.Classify(decl.Type())
	if err != nil {
		return fmt.Errorf("%s %s: %w", decl.Kind(), decl.Spelling(), err)
	}
	slogctx.Debug(ctx, "classified declaration", "name", decl.Spelling(), "kind", d.Kind().String())
	return nil
}

func (h *Harvester) typedef(ctx context.Context, decl ctree.Cursor) error {
	name := decl.Spelling()
	doc := decl.Comment()
	d, err := h.cls.ClassifyNamed(decl.Underlying(), name)
	if err != nil {
		return fmt.Errorf("typedef %s: %w", name, err)
	}
	if fn, ok := types.FunctionOf(d); ok {
		named, err := classify.Callback(decl, fn)
		if err != nil {
			return err
		}
		h.reg.Add(name, named)
		slogctx.Debug(ctx, "promoted callback typedef", "name", name, "params", len(named.Params))
		return nil
	}
	if r, ok := d.(*types.Reference); ok && r.Target == name {
		return nil
	}
	if !h.reg.Has(name) {
		h.reg.Add(name, types.Retag(d, name, doc.Text))
	}
	return nil
}

func (h *Harvester) function(decl ctree.Cursor) (*FunctionDecl, error) {
	name := decl.Spelling()
	symbol := decl.Mangling()
	if symbol == "" {
		symbol = name
	}
	result, err := h.cls.Classify(decl.ResultType())
	if err != nil {
		return nil, fmt.Errorf("function %s result: %w", name, err)
	}
	doc := decl.Comment()
	fn := &FunctionDecl{
		Name:   name,
		Symbol: symbol,
		Result: result,
		Doc:    doc.Text,
		Loc:    decl.Location(),
	}
	if t := decl.Type(); t != nil {
		fn.Variadic = t.Variadic()
	}
	for i, arg := range decl.Arguments() {
		d, err := h.cls.Classify(arg.Type())
		if err != nil {
			return nil, fmt.Errorf("function %s parameter %d: %w", name, i, err)
		}
		fn.Params = append(fn.Params, types.Param{Name: arg.Spelling(), Type: d, Doc: classify.ParamDoc(doc, arg)})
	}
	return fn, nil
}
