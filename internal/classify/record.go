package classify

import (
	"fmt"

	"fortio.org/safecast"

	"cschema/internal/ctree"
	"cschema/internal/diag"
	"cschema/internal/layout"
	"cschema/internal/naming"
	"cschema/internal/types"
)

func (c *Classifier) record(t ctree.Type, hint string) (types.Descriptor, error) {
	decl := t.Declaration()
	union := decl != nil && decl.Kind() == ctree.CursorUnionDecl
	kind := "struct"
	if union {
		kind = "union"
	}
	name := c.tagName(t, kind, hint)
	if d, ok := c.reg.Lookup(name); ok {
		return d, nil
	}
	if _, busy := c.records[name]; busy {
		return &types.Reference{Target: name}, nil
	}

	var loc ctree.Location
	var doc string
	if decl != nil {
		loc = decl.Location()
		doc = decl.Comment().Text
	}
	size, err := t.SizeOf()
	switch {
	case ctree.IsIncomplete(err):
		diag.ReportWarning(c.reporter, diag.ClsIncompleteStruct, loc,
			fmt.Sprintf("%s %s has no visible definition, emitted as opaque", kind, name)).Emit()
		d, _ := c.reg.Add(name, &types.Scalar{TypeName: name, Scalar: types.ScalarOpaque, Doc: doc})
		return d, nil
	case err != nil:
		return nil, &diag.Error{Code: diag.ClsInvalidSize, Subject: name, Spelling: t.Spelling(), Loc: loc, Err: err}
	}

	c.records[name] = struct{}{}
	defer delete(c.records, name)

	s := &types.Struct{TypeName: name, Size: size, Union: union, Doc: doc}
	var ferr error
	t.Fields(func(f ctree.Cursor) ctree.VisitResult {
		if f.Kind() != ctree.CursorFieldDecl {
			ferr = &diag.Error{
				Code:     diag.ClsUnexpectedFieldKind,
				Subject:  name,
				Kind:     f.Kind().String(),
				Spelling: f.Spelling(),
				Loc:      f.Location(),
			}
			return ctree.VisitBreak
		}
		fields, err := c.field(name, len(s.Fields), f)
		if err != nil {
			ferr = err
			return ctree.VisitBreak
		}
		s.Fields = append(s.Fields, fields...)
		return ctree.VisitContinue
	})
	if ferr != nil {
		return nil, ferr
	}
	if err := layout.CheckStruct(s); err != nil {
		return nil, &diag.Error{Code: diag.ClsInvalidLayout, Subject: name, Loc: loc, Err: err}
	}
	d, _ := c.reg.Add(name, s)
	return d, nil
}

func (c *Classifier) field(owner string, index int, f ctree.Cursor) ([]types.Field, error) {
	bits := f.FieldOffset()
	if bits < 0 {
		return nil, &diag.Error{
			Code:    diag.ClsInvalidLayout,
			Subject: owner,
			Loc:     f.Location(),
			Err:     fmt.Errorf("field %q: offset query failed (%d)", f.Spelling(), bits),
		}
	}
	if width := f.BitWidth(); width >= 0 {
		return c.bitfield(f, bits, width)
	}
	name := f.Spelling()
	if name == "" {
		name = fmt.Sprintf("anonymous%d", index)
	}
	hint := naming.Nested(owner, name)
	return c.expand(owner, name, hint, f.Type(), bits/8, f.Comment().Text, f.Location())
}

// bitfield records a bitfield over the bytes its bits occupy rather than
// the full width of its declared type. Unnamed bitfields only pad.
func (c *Classifier) bitfield(f ctree.Cursor, bits, width int64) ([]types.Field, error) {
	if width == 0 || f.Spelling() == "" {
		return nil, nil
	}
	d, err := c.classify(f.Type(), "")
	if err != nil {
		return nil, err
	}
	return []types.Field{{
		Name:      f.Spelling(),
		Type:      d,
		Offset:    bits / 8,
		Size:      (bits%8 + width + 7) / 8,
		BitOffset: bits % 8,
		BitWidth:  width,
		Doc:       f.Comment().Text,
	}}, nil
}

// expand produces the field entries of one member. Constant-size arrays
// become one entry per element, nested arrays recursively so; flexible
// array members contribute no entries.
func (c *Classifier) expand(owner, name, hint string, t ctree.Type, offset int64, doc string, loc ctree.Location) ([]types.Field, error) {
	if t == nil {
		return nil, &diag.Error{Code: diag.ClsUnsupportedTypeKind, Subject: owner, Spelling: name, Loc: loc}
	}
	switch t.Kind() {
	case ctree.KindIncompleteArray:
		if _, err := c.classify(t.Elem(), hint); err != nil {
			return nil, err
		}
		return nil, nil
	case ctree.KindConstantArray:
		elem := t.Elem()
		if elem == nil {
			return nil, c.unsupported(t)
		}
		elemSize, err := elem.SizeOf()
		if err != nil {
			return nil, &diag.Error{Code: diag.ClsInvalidSize, Subject: owner + "." + name, Spelling: elem.Spelling(), Loc: loc, Err: err}
		}
		n, err := safecast.Conv[int](t.Len())
		if err != nil {
			return nil, &diag.Error{Code: diag.ClsInvalidSize, Subject: owner + "." + name, Spelling: t.Spelling(), Loc: loc, Err: err}
		}
		out := make([]types.Field, 0, n)
		for i := range n {
			ix, _ := safecast.Conv[int64](i)
			entries, err := c.expand(owner, fmt.Sprintf("%s[%d]", name, i), hint, elem, offset+ix*elemSize, doc, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
			doc = ""
		}
		return out, nil
	}
	d, err := c.classify(t, hint)
	if err != nil {
		return nil, err
	}
	size, err := t.SizeOf()
	if err != nil {
		return nil, &diag.Error{Code: diag.ClsInvalidSize, Subject: owner + "." + name, Spelling: t.Spelling(), Loc: loc, Err: err}
	}
	return []types.Field{{Name: name, Type: d, Offset: offset, Size: size, Doc: doc}}, nil
}

func (c *Classifier) enum(t ctree.Type, hint string) (types.Descriptor, error) {
	name := c.tagName(t, "enum", hint)
	if d, ok := c.reg.Lookup(name); ok {
		return d, nil
	}
	decl := t.Declaration()
	if decl == nil {
		return nil, c.unsupported(t)
	}
	bd, err := c.classify(decl.EnumBacking(), "")
	if err != nil {
		return nil, fmt.Errorf("enum %s backing type: %w", name, err)
	}
	backing, ok := c.reg.Resolve(bd).(*types.Scalar)
	if !ok {
		return nil, &diag.Error{Code: diag.ClsUnsupportedTypeKind, Subject: name, Kind: bd.Kind().String(), Spelling: bd.Name(), Loc: decl.Location()}
	}
	e := &types.Enum{TypeName: name, Backing: backing, Doc: decl.Comment().Text}
	for _, k := range ctree.Children(decl, ctree.CursorEnumConstantDecl) {
		v, uv := k.EnumValue()
		if !backing.Scalar.Signed() {
			// report unsigned constants consistently in both fields when they fit
			if sv, err := safecast.Conv[int64](uv); err == nil {
				v = sv
			}
		} else {
			uv = uint64(v)
		}
		e.Constants = append(e.Constants, types.EnumConstant{
			Name:   k.Spelling(),
			Value:  v,
			UValue: uv,
			Doc:    k.Comment().Text,
		})
	}
	d, _ := c.reg.Add(name, e)
	return d, nil
}
