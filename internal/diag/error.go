package diag

import (
	"errors"
	"fmt"

	"cschema/internal/ctree"
)

// Error is a fatal extraction failure. It aborts the unit being harvested.
type Error struct {
	Code     Code
	Subject  string // type, typedef or struct the failure is about
	Kind     string // AST type or cursor kind, when relevant
	Spelling string
	Loc      ctree.Location
	Expected int // for HrvParamCountMismatch: signature parameters
	Actual   int // for HrvParamCountMismatch: declaration children
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.message()
	if e.Loc.File != "" {
		return fmt.Sprintf("%s: %s", e.Loc, msg)
	}
	return msg
}

func (e *Error) message() string {
	switch e.Code {
	case ClsUnsupportedTypeKind:
		return fmt.Sprintf("unsupported type kind %s (%q)", e.Kind, e.Spelling)
	case ClsUnexpectedFieldKind:
		return fmt.Sprintf("struct %s: field visitation yielded %s %q", e.Subject, e.Kind, e.Spelling)
	case ClsInvalidSize:
		return fmt.Sprintf("size of %s: %v", e.Subject, e.Err)
	case ClsUnexpectedWidth, ClsInvalidLayout:
		return fmt.Sprintf("%s: %v", e.Subject, e.Err)
	case HrvParamCountMismatch:
		return fmt.Sprintf("typedef %s: signature has %d parameters, declaration has %d", e.Subject, e.Expected, e.Actual)
	case EmtNameCollision:
		return fmt.Sprintf("synthesized callback %s for %s collides with an existing record", e.Spelling, e.Subject)
	case IOParseFailed, IOWriteFailed:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Subject, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Subject, e.Code.Title())
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %v", e.Code.ID(), e.Subject, e.Err)
		}
		return fmt.Sprintf("%s %s", e.Code.ID(), e.Subject)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return UnknownCode
}

// Diagnostic converts the fatal error into a bag entry.
func (e *Error) Diagnostic() Diagnostic {
	return New(SevError, e.Code, e.Loc, e.message())
}
