package ctreetest

import (
	"strings"
	"sync/atomic"

	"cschema/internal/ctree"
)

// Header is the file name used by MainLoc.
const Header = "test.h"

// line is shared by fixtures built from parallel parse workers.
var line atomic.Uint32

// MainLoc returns a fresh location inside the unit under analysis.
func MainLoc() ctree.Location {
	return ctree.Location{File: Header, Line: line.Add(1), Column: 1, Main: true}
}

// SystemLoc returns a location inside a system header.
func SystemLoc(file string) ctree.Location {
	return ctree.Location{File: file, Line: line.Add(1), Column: 1, System: true}
}

// Prim builds a primitive type.
func Prim(kind ctree.TypeKind, spelling string, size int64) *Type {
	return &Type{K: kind, Name: spelling, Size: size}
}

func Void() *Type       { return &Type{K: ctree.KindVoid, Name: "void", Size: 1} }
func Bool() *Type       { return Prim(ctree.KindBool, "bool", 1) }
func Char() *Type       { return Prim(ctree.KindCharS, "char", 1) }
func ConstChar() *Type  { return Prim(ctree.KindCharS, "const char", 1) }
func UChar() *Type      { return Prim(ctree.KindUChar, "unsigned char", 1) }
func Short() *Type      { return Prim(ctree.KindShort, "short", 2) }
func Int() *Type        { return Prim(ctree.KindInt, "int", 4) }
func UInt() *Type       { return Prim(ctree.KindUInt, "unsigned int", 4) }
func Long() *Type       { return Prim(ctree.KindLong, "long", 8) }
func ULongLong() *Type  { return Prim(ctree.KindULongLong, "unsigned long long", 8) }
func Float() *Type      { return Prim(ctree.KindFloat, "float", 4) }
func Double() *Type     { return Prim(ctree.KindDouble, "double", 8) }
func LongDouble() *Type { return Prim(ctree.KindLongDouble, "long double", 16) }

// PointerTo builds a pointer type.
func PointerTo(t *Type) *Type {
	return &Type{K: ctree.KindPointer, Name: t.Name + " *", Size: 8, PointeeT: t}
}

// Proto builds a function prototype type.
func Proto(result *Type, params ...*Type) *Type {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return &Type{
		K:       ctree.KindFunctionProto,
		Name:    result.Name + " (" + strings.Join(names, ", ") + ")",
		Size:    1,
		ResultT: result,
		ParamTs: params,
	}
}

// Field builds a field declaration at the given byte offset.
func Field(name string, t *Type, offset int64) *Cursor {
	return &Cursor{K: ctree.CursorFieldDecl, Name: name, T: t, OffsetBits: offset * 8, Loc: MainLoc()}
}

// Bits builds a bitfield declaration of the given width at a bit offset.
func Bits(name string, t *Type, offsetBits, width int64) *Cursor {
	return &Cursor{K: ctree.CursorFieldDecl, Name: name, T: t, OffsetBits: offsetBits, Width: width, BitField: true, Loc: MainLoc()}
}

// Struct builds a complete struct type together with its declaration.
func Struct(name string, size int64, fields ...*Cursor) *Type {
	return record(ctree.CursorStructDecl, "struct", name, size, fields)
}

// Union builds a complete union type together with its declaration.
func Union(name string, size int64, fields ...*Cursor) *Type {
	return record(ctree.CursorUnionDecl, "union", name, size, fields)
}

func record(kind ctree.CursorKind, tag, name string, size int64, fields []*Cursor) *Type {
	t := &Type{K: ctree.KindRecord, Name: tag + " " + name, Size: size}
	t.Decl = &Cursor{K: kind, Name: name, T: t, Kids: fields, Loc: MainLoc()}
	return t
}

// AnonymousStruct builds a struct without a tag, as libclang spells it.
func AnonymousStruct(size int64, fields ...*Cursor) *Type {
	loc := MainLoc()
	t := &Type{K: ctree.KindRecord, Name: "struct (unnamed at test.h)", Size: size}
	t.Decl = &Cursor{K: ctree.CursorStructDecl, T: t, Kids: fields, Loc: loc, Anonymous: true}
	return t
}

// Incomplete builds a forward-declared struct with no visible definition.
func Incomplete(name string) *Type {
	t := &Type{
		K:       ctree.KindRecord,
		Name:    "struct " + name,
		SizeErr: &ctree.LayoutError{Reason: ctree.LayoutIncomplete, Spelling: "struct " + name},
	}
	t.Decl = &Cursor{K: ctree.CursorStructDecl, Name: name, T: t, Loc: MainLoc()}
	return t
}

// Elaborated wraps a record or enum type in its elaborated form.
func Elaborated(t *Type) *Type {
	return &Type{K: ctree.KindElaborated, Name: t.Name, Size: t.Size, SizeErr: t.SizeErr, NamedT: t, Decl: t.Decl}
}

// Const builds an enum constant.
func Const(name string, value int64) *Cursor {
	return &Cursor{K: ctree.CursorEnumConstantDecl, Name: name, Value: value, UValue: uint64(value), Loc: MainLoc()}
}

// Enum builds an enum type backed by the given integer type.
func Enum(name string, backing *Type, constants ...*Cursor) *Type {
	t := &Type{K: ctree.KindEnum, Name: "enum " + name, Size: backing.Size}
	t.Decl = &Cursor{K: ctree.CursorEnumDecl, Name: name, T: t, Kids: constants, Backing: backing, Loc: MainLoc()}
	return t
}

// Param builds a parameter declaration.
func Param(name string, t *Type) *Cursor {
	return &Cursor{K: ctree.CursorParmDecl, Name: name, T: t, Loc: MainLoc()}
}

// Typedef builds a typedef type whose declaration carries the given
// ParmDecl children.
func Typedef(name string, underlying *Type, params ...*Cursor) *Type {
	t := &Type{K: ctree.KindTypedef, Name: name, Size: underlying.Size, SizeErr: underlying.SizeErr}
	t.Decl = &Cursor{K: ctree.CursorTypedefDecl, Name: name, T: t, UnderlyingT: underlying, Kids: params, Loc: MainLoc()}
	return t
}

// Func builds a function declaration.
func Func(name string, result *Type, args ...*Cursor) *Cursor {
	types := make([]*Type, 0, len(args))
	for _, a := range args {
		types = append(types, a.T)
	}
	return &Cursor{
		K:       ctree.CursorFunctionDecl,
		Name:    name,
		T:       Proto(result, types...),
		ResultT: result,
		Args:    args,
		Kids:    args,
		Loc:     MainLoc(),
	}
}

// Decl returns the declaring cursor of t, for placing it in a Unit.
func Decl(t *Type) *Cursor { return t.Decl }

// System moves a declaration into a system header.
func System(c *Cursor, file string) *Cursor {
	c.Loc = SystemLoc(file)
	return c
}

// NewUnit builds a translation unit.
func NewUnit(decls ...*Cursor) *Unit {
	return &Unit{File: Header, Decls: decls}
}
