// Package ctree is the contract between the schema extractor and the C AST
// provider. The extractor never talks to libclang directly: it only sees the
// Unit, Cursor and Type interfaces declared here.
package ctree

import "fmt"

// Location is a resolved source position of a declaration.
type Location struct {
	File   string
	Line   uint32
	Column uint32
	// System is set for declarations that come from system headers.
	System bool
	// Main is set for declarations that live in the unit under analysis.
	Main bool
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Type is an AST type handle.
type Type interface {
	Kind() TypeKind
	Spelling() string
	// SizeOf returns the size in bytes. Failures are *LayoutError values.
	SizeOf() (int64, error)
	Pointee() Type
	Result() Type
	Params() []Type
	Variadic() bool
	// Declaration returns the declaring cursor of records, enums and typedefs.
	Declaration() Cursor
	// Named strips the elaboration of an elaborated type.
	Named() Type
	// Elem and Len describe array types.
	Elem() Type
	Len() int64
	// Fields visits the fields of a record type in declaration order.
	Fields(visit func(field Cursor) VisitResult)
}

// Cursor is an AST declaration handle.
type Cursor interface {
	Kind() CursorKind
	Spelling() string
	// Mangling returns the linker-level symbol name of functions.
	Mangling() string
	Comment() Comment
	Location() Location
	Type() Type
	// Underlying is the aliased type of a typedef declaration.
	Underlying() Type
	// ResultType is the return type of a function declaration.
	ResultType() Type
	// Arguments lists the formal arguments of a function declaration.
	Arguments() []Cursor
	// Visit walks direct children; VisitRecurse descends.
	Visit(visit func(child Cursor) VisitResult)
	// FieldOffset is the field offset in bits.
	FieldOffset() int64
	// BitWidth is the declared width of a bitfield, or -1 when the field
	// is not one.
	BitWidth() int64
	// EnumValue returns the constant value in both interpretations; the
	// backing type of the enum decides which one is meaningful.
	EnumValue() (int64, uint64)
	// EnumBacking is the integer type of an enum declaration.
	EnumBacking() Type
	IsAnonymous() bool
}

// Unit is a parsed translation unit for one input header.
type Unit interface {
	Path() string
	// Declarations returns the top-level declarations in source order,
	// including those pulled in from included headers.
	Declarations() []Cursor
	Close() error
}

// Children collects the direct children of c that have the given kind.
func Children(c Cursor, kind CursorKind) []Cursor {
	if c == nil {
		return nil
	}
	var out []Cursor
	c.Visit(func(child Cursor) VisitResult {
		if child.Kind() == kind {
			out = append(out, child)
		}
		return VisitContinue
	})
	return out
}
