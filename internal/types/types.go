package types

import "fmt"

// Kind enumerates the descriptor variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindEnum
	KindStruct
	KindPointer
	KindFunction
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindFunction:
		return "function"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ScalarKind is the fixed scalar vocabulary of the schema.
type ScalarKind uint8

const (
	ScalarInvalid ScalarKind = iota
	ScalarVoid
	ScalarBool
	ScalarU8
	ScalarI8
	ScalarU16
	ScalarI16
	ScalarU32
	ScalarI32
	ScalarU64
	ScalarI64
	ScalarF32
	ScalarF64
	// ScalarPointer is the opaque-pointer sentinel.
	ScalarPointer
	// ScalarOpaque tags the placeholder of a struct whose definition is not visible.
	ScalarOpaque
)

var scalarNames = [...]string{
	ScalarInvalid: "invalid",
	ScalarVoid:    "void",
	ScalarBool:    "bool",
	ScalarU8:      "u8",
	ScalarI8:      "i8",
	ScalarU16:     "u16",
	ScalarI16:     "i16",
	ScalarU32:     "u32",
	ScalarI32:     "i32",
	ScalarU64:     "u64",
	ScalarI64:     "i64",
	ScalarF32:     "f32",
	ScalarF64:     "f64",
	ScalarPointer: "pointer",
	ScalarOpaque:  "opaque",
}

func (s ScalarKind) String() string {
	if int(s) < len(scalarNames) {
		return scalarNames[s]
	}
	return fmt.Sprintf("ScalarKind(%d)", s)
}

// Signed reports signed integer scalars.
func (s ScalarKind) Signed() bool {
	switch s {
	case ScalarI8, ScalarI16, ScalarI32, ScalarI64:
		return true
	}
	return false
}

// Width returns the byte width of sized scalars, 0 otherwise.
func (s ScalarKind) Width() int64 {
	switch s {
	case ScalarBool, ScalarU8, ScalarI8:
		return 1
	case ScalarU16, ScalarI16:
		return 2
	case ScalarU32, ScalarI32, ScalarF32:
		return 4
	case ScalarU64, ScalarI64, ScalarF64, ScalarPointer:
		return 8
	default:
		return 0
	}
}

// ParseScalar maps a vocabulary name back to its ScalarKind.
func ParseScalar(name string) (ScalarKind, bool) {
	for i, n := range scalarNames {
		if n == name && i != int(ScalarInvalid) {
			return ScalarKind(i), true
		}
	}
	return ScalarInvalid, false
}

// Mode is the marshalling mode of a pointer.
type Mode uint8

const (
	// ModeBuffer marks pointees whose bytes the caller may read.
	ModeBuffer Mode = iota
	// ModePointer marks opaque handles.
	ModePointer
	// ModeFunction marks function pointers.
	ModeFunction
)

func (m Mode) String() string {
	switch m {
	case ModeBuffer:
		return "buffer"
	case ModePointer:
		return "pointer"
	case ModeFunction:
		return "function"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}
