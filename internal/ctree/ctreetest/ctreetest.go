// Package ctreetest provides an in-memory C AST implementing the ctree
// interfaces, so the extractor can be exercised without libclang.
package ctreetest

import (
	"cschema/internal/ctree"
)

// Type is a mutable fake type handle. Nil pointer fields read as absent.
type Type struct {
	K          ctree.TypeKind
	Name       string
	Size       int64
	SizeErr    error
	PointeeT   *Type
	ResultT    *Type
	ParamTs    []*Type
	IsVariadic bool
	Decl       *Cursor
	NamedT     *Type
	ElemT      *Type
	Length     int64
}

var _ ctree.Type = (*Type)(nil)

func (t *Type) Kind() ctree.TypeKind { return t.K }
func (t *Type) Spelling() string     { return t.Name }
func (t *Type) Variadic() bool       { return t.IsVariadic }
func (t *Type) Len() int64           { return t.Length }

func (t *Type) SizeOf() (int64, error) {
	if t.SizeErr != nil {
		return 0, t.SizeErr
	}
	return t.Size, nil
}

func (t *Type) Pointee() ctree.Type { return asType(t.PointeeT) }
func (t *Type) Result() ctree.Type  { return asType(t.ResultT) }
func (t *Type) Named() ctree.Type   { return asType(t.NamedT) }
func (t *Type) Elem() ctree.Type    { return asType(t.ElemT) }

func (t *Type) Params() []ctree.Type {
	out := make([]ctree.Type, 0, len(t.ParamTs))
	for _, p := range t.ParamTs {
		out = append(out, p)
	}
	return out
}

func (t *Type) Declaration() ctree.Cursor {
	if t.Decl == nil {
		return nil
	}
	return t.Decl
}

// Fields mirrors clang_Type_visitFields: nested tag definitions are not
// reported, every other child of the declaration is.
func (t *Type) Fields(visit func(ctree.Cursor) ctree.VisitResult) {
	if t.Decl == nil {
		return
	}
	for _, kid := range t.Decl.Kids {
		switch kid.K {
		case ctree.CursorStructDecl, ctree.CursorUnionDecl, ctree.CursorEnumDecl:
			continue
		}
		if visit(kid) == ctree.VisitBreak {
			return
		}
	}
}

func asType(t *Type) ctree.Type {
	if t == nil {
		return nil
	}
	return t
}

// Cursor is a mutable fake declaration handle.
type Cursor struct {
	K           ctree.CursorKind
	Name        string
	Mangled     string
	Doc         ctree.Comment
	Loc         ctree.Location
	T           *Type
	UnderlyingT *Type
	ResultT     *Type
	Args        []*Cursor
	Kids        []*Cursor
	OffsetBits  int64
	Width       int64 // bitfield width, used when BitField is set
	BitField    bool
	Value       int64
	UValue      uint64
	Backing     *Type
	Anonymous   bool
}

var _ ctree.Cursor = (*Cursor)(nil)

func (c *Cursor) Kind() ctree.CursorKind     { return c.K }
func (c *Cursor) Spelling() string           { return c.Name }
func (c *Cursor) Comment() ctree.Comment     { return c.Doc }
func (c *Cursor) Location() ctree.Location   { return c.Loc }
func (c *Cursor) FieldOffset() int64         { return c.OffsetBits }
func (c *Cursor) EnumValue() (int64, uint64) { return c.Value, c.UValue }
func (c *Cursor) IsAnonymous() bool          { return c.Anonymous }
func (c *Cursor) Type() ctree.Type           { return asType(c.T) }
func (c *Cursor) Underlying() ctree.Type     { return asType(c.UnderlyingT) }
func (c *Cursor) ResultType() ctree.Type     { return asType(c.ResultT) }
func (c *Cursor) EnumBacking() ctree.Type    { return asType(c.Backing) }

func (c *Cursor) BitWidth() int64 {
	if !c.BitField {
		return -1
	}
	return c.Width
}

func (c *Cursor) Mangling() string {
	if c.Mangled == "" {
		return c.Name
	}
	return c.Mangled
}

func (c *Cursor) Arguments() []ctree.Cursor {
	out := make([]ctree.Cursor, 0, len(c.Args))
	for _, a := range c.Args {
		out = append(out, a)
	}
	return out
}

func (c *Cursor) Visit(visit func(ctree.Cursor) ctree.VisitResult) {
	c.walk(visit)
}

func (c *Cursor) walk(visit func(ctree.Cursor) ctree.VisitResult) bool {
	for _, kid := range c.Kids {
		switch visit(kid) {
		case ctree.VisitBreak:
			return false
		case ctree.VisitRecurse:
			if !kid.walk(visit) {
				return false
			}
		}
	}
	return true
}

// Unit is an in-memory translation unit.
type Unit struct {
	File   string
	Decls  []*Cursor
	Closed bool
}

var _ ctree.Unit = (*Unit)(nil)

func (u *Unit) Path() string { return u.File }

func (u *Unit) Declarations() []ctree.Cursor {
	out := make([]ctree.Cursor, 0, len(u.Decls))
	for _, d := range u.Decls {
		out = append(out, d)
	}
	return out
}

func (u *Unit) Close() error {
	u.Closed = true
	return nil
}
