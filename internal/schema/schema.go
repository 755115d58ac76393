// Package schema defines the wire form of an extraction: the record list
// shared by every header plus one module per header. The types carry json
// and yaml tags; msgpack reuses the json names.
package schema

// Version is bumped whenever the wire layout changes.
const Version = 1

// Schema is the root of an extraction result.
type Schema struct {
	Version   int      `json:"version" yaml:"version"`
	Generator string   `json:"generator" yaml:"generator"`
	Records   []Record `json:"records" yaml:"records"`
	Modules   []Module `json:"modules" yaml:"modules"`
}

// Record kinds.
const (
	KindScalar    = "scalar"
	KindOpaque    = "opaque"
	KindEnum      = "enum"
	KindStruct    = "struct"
	KindUnion     = "union"
	KindPointer   = "pointer"
	KindFunction  = "function"
	KindReference = "reference"
)

// TypeRef kinds: an inline occurrence of a type.
const (
	RefScalar   = "scalar"
	RefNamed    = "ref"
	RefPointer  = "pointer"
	RefFunction = "function"
)

// TypeRef is how a type is spelled where it is used.
type TypeRef struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Scalar   string   `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Mode     string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Pointee  *TypeRef `json:"pointee,omitempty" yaml:"pointee,omitempty"`
	Params   []Param  `json:"params,omitempty" yaml:"params,omitempty"`
	Result   *TypeRef `json:"result,omitempty" yaml:"result,omitempty"`
	Variadic bool     `json:"variadic,omitempty" yaml:"variadic,omitempty"`
}

// Param is a function parameter.
type Param struct {
	Name string   `json:"name" yaml:"name"`
	Doc  string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	Type *TypeRef `json:"type" yaml:"type"`
}

// Field is a struct member; offsets and sizes are bytes.
type Field struct {
	Name   string   `json:"name" yaml:"name"`
	Doc    string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	Type   *TypeRef `json:"type" yaml:"type"`
	Offset int64    `json:"offset" yaml:"offset"`
	Size   int64    `json:"size" yaml:"size"`
	// BitOffset and BitWidth locate a bitfield inside its bytes.
	BitOffset int64 `json:"bitOffset,omitempty" yaml:"bitOffset,omitempty"`
	BitWidth  int64 `json:"bitWidth,omitempty" yaml:"bitWidth,omitempty"`
}

// Constant is an enumerator. Unsigned is set for unsigned backings.
type Constant struct {
	Name     string `json:"name" yaml:"name"`
	Doc      string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Value    int64  `json:"value" yaml:"value"`
	Unsigned uint64 `json:"unsigned,omitempty" yaml:"unsigned,omitempty"`
}

// Record is one named, top-level type description.
type Record struct {
	Kind        string     `json:"kind" yaml:"kind"`
	Name        string     `json:"name" yaml:"name"`
	Doc         string     `json:"doc,omitempty" yaml:"doc,omitempty"`
	Scalar      string     `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Backing     string     `json:"backing,omitempty" yaml:"backing,omitempty"`
	Constants   []Constant `json:"constants,omitempty" yaml:"constants,omitempty"`
	Fields      []Field    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Size        int64      `json:"size,omitempty" yaml:"size,omitempty"`
	Type        *TypeRef   `json:"type,omitempty" yaml:"type,omitempty"`
	Params      []Param    `json:"params,omitempty" yaml:"params,omitempty"`
	Result      *TypeRef   `json:"result,omitempty" yaml:"result,omitempty"`
	Variadic    bool       `json:"variadic,omitempty" yaml:"variadic,omitempty"`
	Target      string     `json:"target,omitempty" yaml:"target,omitempty"`
	Synthesized bool       `json:"synthesized,omitempty" yaml:"synthesized,omitempty"`
}

// Function is a function declared by a header.
type Function struct {
	Name     string   `json:"name" yaml:"name"`
	Symbol   string   `json:"symbol" yaml:"symbol"`
	Doc      string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	Params   []Param  `json:"params" yaml:"params"`
	Result   *TypeRef `json:"result" yaml:"result"`
	Variadic bool     `json:"variadic,omitempty" yaml:"variadic,omitempty"`
}

// Module is the output unit of one header.
type Module struct {
	Name      string     `json:"name" yaml:"name"`
	Header    string     `json:"header" yaml:"header"`
	Imports   []string   `json:"imports" yaml:"imports"`
	Helpers   []string   `json:"helpers" yaml:"helpers"`
	Functions []Function `json:"functions" yaml:"functions"`
}

// Record returns the record named name.
func (s *Schema) Record(name string) (Record, bool) {
	for _, r := range s.Records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}

// Module returns the module named name.
func (s *Schema) Module(name string) (Module, bool) {
	for _, m := range s.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}
