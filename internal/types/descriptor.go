package types

// Descriptor is the closed set of resolved type shapes. The unexported
// method seals the interface to this package.
type Descriptor interface {
	Kind() Kind
	// Name is the descriptor's own name; pointers have none.
	Name() string
	descriptor()
}

// Scalar is a primitive value or an opaque placeholder.
type Scalar struct {
	TypeName string
	Scalar   ScalarKind
	Doc      string
}

// EnumConstant is one enumerator. Value holds signed constants, UValue
// unsigned ones; Enum.Backing decides which is meaningful.
type EnumConstant struct {
	Name   string
	Value  int64
	UValue uint64
	Doc    string
}

// Enum is a C enumeration.
type Enum struct {
	TypeName  string
	Backing   *Scalar
	Constants []EnumConstant
	Doc       string
}

// Field is a struct member. Offset and Size are in bytes. A bitfield
// covers the bytes its bits touch; BitOffset is relative to Offset.
type Field struct {
	Name      string
	Type      Descriptor
	Offset    int64
	Size      int64
	BitOffset int64
	BitWidth  int64 // zero unless the field is a bitfield
	Doc       string
}

// Struct is a C struct or union with its computed layout.
type Struct struct {
	TypeName string
	Fields   []Field
	Size     int64
	Union    bool
	Doc      string
}

// Pointer is an address of a value of the pointee type.
type Pointer struct {
	Pointee Descriptor
	Mode    Mode
}

// Param is a function parameter; Name is blank when unknown.
type Param struct {
	Name string
	Type Descriptor
	Doc  string
}

// Function is a function signature, named when it was promoted from a
// typedef or synthesized for a struct field.
type Function struct {
	TypeName string
	Params   []Param
	Result   Descriptor
	Variadic bool
	Doc      string
}

// Reference names another registry entry.
type Reference struct {
	Target string
	Doc    string
}

func (*Scalar) Kind() Kind    { return KindScalar }
func (*Enum) Kind() Kind      { return KindEnum }
func (*Struct) Kind() Kind    { return KindStruct }
func (*Pointer) Kind() Kind   { return KindPointer }
func (*Function) Kind() Kind  { return KindFunction }
func (*Reference) Kind() Kind { return KindReference }

func (s *Scalar) Name() string    { return s.TypeName }
func (e *Enum) Name() string      { return e.TypeName }
func (s *Struct) Name() string    { return s.TypeName }
func (*Pointer) Name() string     { return "" }
func (f *Function) Name() string  { return f.TypeName }
func (r *Reference) Name() string { return r.Target }

func (*Scalar) descriptor()    {}
func (*Enum) descriptor()      {}
func (*Struct) descriptor()    {}
func (*Pointer) descriptor()   {}
func (*Function) descriptor()  {}
func (*Reference) descriptor() {}

// IsOpaque reports the placeholder of an incomplete struct.
func IsOpaque(d Descriptor) bool {
	s, ok := d.(*Scalar)
	return ok && s.Scalar == ScalarOpaque
}

// IsVoid reports the void scalar.
func IsVoid(d Descriptor) bool {
	s, ok := d.(*Scalar)
	return ok && s.Scalar == ScalarVoid
}

// FunctionOf returns the signature behind a function or function pointer.
func FunctionOf(d Descriptor) (*Function, bool) {
	switch v := d.(type) {
	case *Function:
		return v, true
	case *Pointer:
		f, ok := v.Pointee.(*Function)
		return f, ok
	}
	return nil, false
}

// DocOf returns the documentation attached to d.
func DocOf(d Descriptor) string {
	switch v := d.(type) {
	case *Scalar:
		return v.Doc
	case *Enum:
		return v.Doc
	case *Struct:
		return v.Doc
	case *Function:
		return v.Doc
	case *Reference:
		return v.Doc
	}
	return ""
}

// Retag returns a copy of d carrying a new name and documentation. A
// function pointer collapses into the named function it points to. d is
// never modified.
func Retag(d Descriptor, name, doc string) Descriptor {
	switch v := d.(type) {
	case *Scalar:
		c := *v
		c.TypeName, c.Doc = name, pick(doc, v.Doc)
		return &c
	case *Enum:
		c := *v
		c.TypeName, c.Doc = name, pick(doc, v.Doc)
		return &c
	case *Struct:
		c := *v
		c.TypeName, c.Doc = name, pick(doc, v.Doc)
		c.Fields = append([]Field(nil), v.Fields...)
		return &c
	case *Function:
		c := *v
		c.TypeName, c.Doc = name, pick(doc, v.Doc)
		c.Params = append([]Param(nil), v.Params...)
		return &c
	case *Pointer:
		if f, ok := v.Pointee.(*Function); ok {
			return Retag(f, name, doc)
		}
		c := *v
		return &c
	case *Reference:
		c := *v
		c.Doc = pick(doc, v.Doc)
		return &c
	}
	return d
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
