// Package libclang implements the ctree contract on top of libclang through
// the go-clang bindings. Each Parse owns its own index, so headers can be
// parsed concurrently.
package libclang

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-clang/clang-v13/clang"

	"cschema/internal/ctree"
	"cschema/internal/diag"
)

// DefaultArgs are passed to clang ahead of user arguments.
var DefaultArgs = []string{"-x", "c", "-fparse-all-comments"}

// Frontend parses headers with libclang.
type Frontend struct {
	// StripUnderscore removes the leading underscore Darwin adds to symbols.
	StripUnderscore bool
}

// New returns a frontend configured for the host platform.
func New() *Frontend {
	return &Frontend{StripUnderscore: runtime.GOOS == "darwin"}
}

// Parse parses path into a translation unit. Clang diagnostics are sent to
// reporter; an error is returned only when no unit could be built or clang
// reported a fatal error.
func (f *Frontend) Parse(ctx context.Context, path string, args []string, reporter diag.Reporter) (ctree.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmdline := make([]string, 0, len(DefaultArgs)+len(args))
	cmdline = append(cmdline, DefaultArgs...)
	cmdline = append(cmdline, args...)

	idx := clang.NewIndex(0, 0)
	var tu clang.TranslationUnit
	opts := uint32(clang.TranslationUnit_SkipFunctionBodies)
	if code := idx.ParseTranslationUnit2(path, cmdline, nil, opts, &tu); code != clang.Error_Success {
		idx.Dispose()
		return nil, fmt.Errorf("libclang could not parse %s: %v", path, code)
	}

	fatal := ""
	for _, d := range tu.Diagnostics() {
		sev := d.Severity()
		if sev == clang.Diagnostic_Fatal && fatal == "" {
			fatal = d.Spelling()
		}
		reportClang(reporter, d, sev)
		d.Dispose()
	}
	if fatal != "" {
		tu.Dispose()
		idx.Dispose()
		return nil, errors.New(fatal)
	}
	return &unit{path: path, idx: idx, tu: tu, strip: f.StripUnderscore}, nil
}

func reportClang(reporter diag.Reporter, d clang.Diagnostic, sev clang.DiagnosticSeverity) {
	if reporter == nil {
		return
	}
	var out diag.Severity
	switch sev {
	case clang.Diagnostic_Error, clang.Diagnostic_Fatal:
		out = diag.SevError
	case clang.Diagnostic_Warning:
		out = diag.SevWarning
	default:
		return
	}
	reporter.Report(diag.IOClangDiagnostic, out, location(d.Location()), d.Spelling(), nil)
}

type unit struct {
	path  string
	idx   clang.Index
	tu    clang.TranslationUnit
	strip bool
}

func (u *unit) Path() string { return u.path }

func (u *unit) Declarations() []ctree.Cursor {
	var out []ctree.Cursor
	u.tu.TranslationUnitCursor().Visit(func(c, _ clang.Cursor) clang.ChildVisitResult {
		if k := cursorKind(c.Kind()); k != ctree.CursorUnknown {
			out = append(out, u.cursor(c))
		}
		return clang.ChildVisit_Continue
	})
	return out
}

func (u *unit) Close() error {
	u.tu.Dispose()
	u.idx.Dispose()
	return nil
}

func (u *unit) cursor(c clang.Cursor) ctree.Cursor {
	if c.IsNull() || c.Kind() == clang.Cursor_NoDeclFound {
		return nil
	}
	return &cursor{c: c, u: u}
}

func (u *unit) typ(t clang.Type) ctree.Type {
	if t.Kind() == clang.Type_Invalid {
		return nil
	}
	return &typ{t: t, u: u}
}

func location(loc clang.SourceLocation) ctree.Location {
	file, line, col, _ := loc.FileLocation()
	return ctree.Location{
		File:   file.Name(),
		Line:   line,
		Column: col,
		System: loc.IsInSystemHeader(),
		Main:   loc.IsFromMainFile(),
	}
}

type cursor struct {
	c clang.Cursor
	u *unit
}

func (c *cursor) Kind() ctree.CursorKind { return cursorKind(c.c.Kind()) }
func (c *cursor) Spelling() string       { return c.c.Spelling() }
func (c *cursor) Location() ctree.Location {
	return location(c.c.Location())
}
func (c *cursor) Type() ctree.Type        { return c.u.typ(c.c.Type()) }
func (c *cursor) Underlying() ctree.Type  { return c.u.typ(c.c.TypedefDeclUnderlyingType()) }
func (c *cursor) ResultType() ctree.Type  { return c.u.typ(c.c.ResultType()) }
func (c *cursor) EnumBacking() ctree.Type { return c.u.typ(c.c.EnumDeclIntegerType()) }
func (c *cursor) FieldOffset() int64      { return c.c.OffsetOfField() }
func (c *cursor) IsAnonymous() bool       { return c.c.IsAnonymous() }

func (c *cursor) BitWidth() int64 {
	if !c.c.IsBitField() {
		return -1
	}
	return int64(c.c.FieldDeclBitWidth())
}

func (c *cursor) Mangling() string {
	m := c.c.Mangling()
	if c.u.strip {
		m = strings.TrimPrefix(m, "_")
	}
	return m
}

func (c *cursor) Comment() ctree.Comment {
	raw := c.c.RawCommentText()
	if raw == "" {
		return ctree.Comment{}
	}
	return ctree.ParseComment(raw)
}

func (c *cursor) EnumValue() (int64, uint64) {
	return c.c.EnumConstantDeclValue(), c.c.EnumConstantDeclUnsignedValue()
}

func (c *cursor) Arguments() []ctree.Cursor {
	n := c.c.NumArguments()
	if n <= 0 {
		return nil
	}
	out := make([]ctree.Cursor, 0, n)
	for i := range uint32(n) {
		if arg := c.u.cursor(c.c.Argument(i)); arg != nil {
			out = append(out, arg)
		}
	}
	return out
}

func (c *cursor) Visit(visit func(ctree.Cursor) ctree.VisitResult) {
	c.c.Visit(func(child, _ clang.Cursor) clang.ChildVisitResult {
		switch visit(&cursor{c: child, u: c.u}) {
		case ctree.VisitBreak:
			return clang.ChildVisit_Break
		case ctree.VisitRecurse:
			return clang.ChildVisit_Recurse
		default:
			return clang.ChildVisit_Continue
		}
	})
}

type typ struct {
	t clang.Type
	u *unit
}

func (t *typ) Kind() ctree.TypeKind { return typeKind(t.t.Kind()) }
func (t *typ) Spelling() string     { return t.t.Spelling() }
func (t *typ) Pointee() ctree.Type  { return t.u.typ(t.t.PointeeType()) }
func (t *typ) Result() ctree.Type   { return t.u.typ(t.t.ResultType()) }
func (t *typ) Named() ctree.Type    { return t.u.typ(t.t.NamedType()) }
func (t *typ) Elem() ctree.Type     { return t.u.typ(t.t.ArrayElementType()) }
func (t *typ) Len() int64           { return t.t.ArraySize() }
func (t *typ) Variadic() bool       { return t.t.IsFunctionTypeVariadic() }

func (t *typ) SizeOf() (int64, error) {
	n := t.t.SizeOf()
	if n >= 0 {
		return n, nil
	}
	return 0, &ctree.LayoutError{Reason: layoutReason(n), Spelling: t.t.Spelling()}
}

func (t *typ) Params() []ctree.Type {
	n := t.t.NumArgTypes()
	if n <= 0 {
		return nil
	}
	out := make([]ctree.Type, 0, n)
	for i := range uint32(n) {
		out = append(out, t.u.typ(t.t.ArgType(i)))
	}
	return out
}

func (t *typ) Declaration() ctree.Cursor {
	return t.u.cursor(t.t.Declaration())
}

func (t *typ) Fields(visit func(ctree.Cursor) ctree.VisitResult) {
	decl := t.t.CanonicalType().Declaration()
	if decl.IsNull() {
		return
	}
	decl.Visit(func(child, _ clang.Cursor) clang.ChildVisitResult {
		if child.Kind() != clang.Cursor_FieldDecl {
			return clang.ChildVisit_Continue
		}
		if visit(&cursor{c: child, u: t.u}) == ctree.VisitBreak {
			return clang.ChildVisit_Break
		}
		return clang.ChildVisit_Continue
	})
}

// layoutReason maps the negative CXTypeLayoutError codes.
func layoutReason(code int64) ctree.LayoutReason {
	switch code {
	case -2:
		return ctree.LayoutIncomplete
	case -3:
		return ctree.LayoutDependent
	case -4:
		return ctree.LayoutNotConstantSize
	case -5:
		return ctree.LayoutInvalidFieldName
	default:
		return ctree.LayoutInvalid
	}
}
