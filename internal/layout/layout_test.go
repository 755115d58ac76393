package layout

import (
	"errors"
	"testing"

	"cschema/internal/ctree"
	"cschema/internal/types"
)

func TestScalarOfIntegers(t *testing.T) {
	cases := []struct {
		kind  ctree.TypeKind
		width int64
		want  types.ScalarKind
	}{
		{ctree.KindCharS, 1, types.ScalarI8},
		{ctree.KindUChar, 1, types.ScalarU8},
		{ctree.KindShort, 2, types.ScalarI16},
		{ctree.KindUShort, 2, types.ScalarU16},
		{ctree.KindInt, 4, types.ScalarI32},
		{ctree.KindUInt, 4, types.ScalarU32},
		{ctree.KindLong, 8, types.ScalarI64},
		{ctree.KindLong, 4, types.ScalarI32},
		{ctree.KindULongLong, 8, types.ScalarU64},
		{ctree.KindWChar, 4, types.ScalarI32},
		{ctree.KindChar16, 2, types.ScalarU16},
	}
	for _, tc := range cases {
		got, err := ScalarOf(tc.kind, tc.width, tc.kind.String())
		if err != nil {
			t.Fatalf("%s/%d: unexpected error: %v", tc.kind, tc.width, err)
		}
		if got != tc.want {
			t.Fatalf("%s/%d: expected %s, got %s", tc.kind, tc.width, tc.want, got)
		}
	}
}

func TestScalarOfFloatsCheckWidth(t *testing.T) {
	if got, err := ScalarOf(ctree.KindFloat, 4, "float"); err != nil || got != types.ScalarF32 {
		t.Fatalf("float: got %s, %v", got, err)
	}
	if got, err := ScalarOf(ctree.KindDouble, 8, "double"); err != nil || got != types.ScalarF64 {
		t.Fatalf("double: got %s, %v", got, err)
	}
	for _, tc := range []struct {
		kind  ctree.TypeKind
		width int64
	}{
		{ctree.KindFloat, 8},
		{ctree.KindDouble, 4},
		{ctree.KindLongDouble, 16},
	} {
		_, err := ScalarOf(tc.kind, tc.width, tc.kind.String())
		var le *LayoutError
		if !errors.As(err, &le) || le.Kind != LayoutErrUnexpectedWidth {
			t.Fatalf("%s/%d: expected unexpected width error, got %v", tc.kind, tc.width, err)
		}
	}
}

func TestScalarOfRejectsOddIntegerWidths(t *testing.T) {
	_, err := ScalarOf(ctree.KindInt128, 16, "__int128")
	var le *LayoutError
	if !errors.As(err, &le) || le.Kind != LayoutErrUnexpectedWidth || le.Width != 16 {
		t.Fatalf("expected unexpected width 16, got %v", err)
	}
}

func TestScalarOfSpecialKinds(t *testing.T) {
	if got, _ := ScalarOf(ctree.KindVoid, 1, "void"); got != types.ScalarVoid {
		t.Fatalf("void: got %s", got)
	}
	if got, _ := ScalarOf(ctree.KindBool, 1, "_Bool"); got != types.ScalarBool {
		t.Fatalf("bool: got %s", got)
	}
	if got, _ := ScalarOf(ctree.KindNullPtr, 8, "nullptr_t"); got != types.ScalarPointer {
		t.Fatalf("nullptr: got %s", got)
	}
	_, err := ScalarOf(ctree.KindRecord, 4, "struct S")
	var le *LayoutError
	if !errors.As(err, &le) || le.Kind != LayoutErrNotPrimitive {
		t.Fatalf("expected not primitive, got %v", err)
	}
}

func i32() *types.Scalar { return &types.Scalar{TypeName: "int", Scalar: types.ScalarI32} }

func TestCheckStruct(t *testing.T) {
	ok := &types.Struct{TypeName: "Point", Size: 8, Fields: []types.Field{
		{Name: "x", Type: i32(), Offset: 0, Size: 4},
		{Name: "y", Type: i32(), Offset: 4, Size: 4},
	}}
	if err := CheckStruct(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overflow := &types.Struct{TypeName: "Bad", Size: 6, Fields: ok.Fields}
	var le *LayoutError
	if err := CheckStruct(overflow); !errors.As(err, &le) || le.Kind != LayoutErrFieldOverflow || le.Field != "y" {
		t.Fatalf("expected overflow on y, got %v", err)
	}

	disorder := &types.Struct{TypeName: "Bad", Size: 8, Fields: []types.Field{ok.Fields[1], ok.Fields[0]}}
	if err := CheckStruct(disorder); !errors.As(err, &le) || le.Kind != LayoutErrFieldOrder {
		t.Fatalf("expected order error, got %v", err)
	}

	union := &types.Struct{TypeName: "U", Size: 4, Union: true, Fields: []types.Field{
		{Name: "i", Type: i32(), Size: 4},
		{Name: "b", Type: &types.Scalar{TypeName: "char", Scalar: types.ScalarI8}, Size: 1},
	}}
	if err := CheckStruct(union); err != nil {
		t.Fatalf("union: unexpected error: %v", err)
	}
}
