package ctree

import (
	"errors"
	"fmt"
)

// LayoutReason enumerates why a size or offset query failed.
type LayoutReason uint8

const (
	LayoutInvalid LayoutReason = iota + 1
	LayoutIncomplete
	LayoutDependent
	LayoutNotConstantSize
	LayoutInvalidFieldName
)

func (r LayoutReason) String() string {
	switch r {
	case LayoutInvalid:
		return "invalid"
	case LayoutIncomplete:
		return "incomplete"
	case LayoutDependent:
		return "dependent"
	case LayoutNotConstantSize:
		return "not constant size"
	case LayoutInvalidFieldName:
		return "invalid field name"
	default:
		return fmt.Sprintf("LayoutReason(%d)", r)
	}
}

// LayoutError is returned by Type.SizeOf when the provider cannot compute a size.
type LayoutError struct {
	Reason   LayoutReason
	Spelling string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Spelling == "" {
		return fmt.Sprintf("type layout: %s", e.Reason)
	}
	return fmt.Sprintf("type layout of %q: %s", e.Spelling, e.Reason)
}

// IsIncomplete reports whether err is an incomplete-type layout failure.
func IsIncomplete(err error) bool {
	var le *LayoutError
	return errors.As(err, &le) && le.Reason == LayoutIncomplete
}
