package layout

import (
	"fmt"

	"cschema/internal/ctree"
)

// LayoutErrorKind enumerates scalar resolution and struct layout failures.
type LayoutErrorKind uint8

const (
	// LayoutErrUnexpectedWidth indicates a scalar width outside the vocabulary.
	LayoutErrUnexpectedWidth LayoutErrorKind = iota + 1
	LayoutErrNotPrimitive
	LayoutErrNegative
	LayoutErrFieldOverflow
	LayoutErrFieldOrder
)

// LayoutError represents a scalar or struct layout violation.
type LayoutError struct {
	Kind     LayoutErrorKind
	Type     string         // type or struct name
	TypeKind ctree.TypeKind // for LayoutErrUnexpectedWidth, LayoutErrNotPrimitive
	Width    int64          // for LayoutErrUnexpectedWidth
	Field    string         // for field errors
	Offset   int64
	Size     int64
	Limit    int64 // struct size, or previous offset for LayoutErrFieldOrder
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnexpectedWidth:
		return fmt.Sprintf("unexpected width %d for %s kind %s", e.Width, e.Type, e.TypeKind)
	case LayoutErrNotPrimitive:
		return fmt.Sprintf("%s kind %s is not a scalar", e.Type, e.TypeKind)
	case LayoutErrNegative:
		return fmt.Sprintf("field %s.%s has negative offset %d or size %d", e.Type, e.Field, e.Offset, e.Size)
	case LayoutErrFieldOverflow:
		return fmt.Sprintf("field %s.%s at offset %d with size %d exceeds struct size %d", e.Type, e.Field, e.Offset, e.Size, e.Limit)
	case LayoutErrFieldOrder:
		return fmt.Sprintf("field %s.%s at offset %d precedes previous offset %d", e.Type, e.Field, e.Offset, e.Limit)
	default:
		return fmt.Sprintf("layout error kind=%d type %s", e.Kind, e.Type)
	}
}
