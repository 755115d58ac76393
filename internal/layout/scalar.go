// Package layout maps primitive C types onto the scalar vocabulary and
// validates computed struct layouts. Nothing here touches the registry.
package layout

import (
	"cschema/internal/ctree"
	"cschema/internal/types"
)

// ScalarOf resolves a primitive kind with its measured byte width.
// spelling only feeds error messages.
func ScalarOf(kind ctree.TypeKind, width int64, spelling string) (types.ScalarKind, error) {
	switch {
	case kind == ctree.KindVoid:
		return types.ScalarVoid, nil
	case kind == ctree.KindBool:
		return types.ScalarBool, nil
	case kind == ctree.KindNullPtr:
		return types.ScalarPointer, nil
	case kind.IsFloat():
		return floatOf(kind, width, spelling)
	case kind.IsSignedInteger():
		return intOf(true, kind, width, spelling)
	case kind.IsUnsignedInteger():
		return intOf(false, kind, width, spelling)
	}
	return types.ScalarInvalid, &LayoutError{Kind: LayoutErrNotPrimitive, Type: spelling, TypeKind: kind}
}

func floatOf(kind ctree.TypeKind, width int64, spelling string) (types.ScalarKind, error) {
	switch {
	case kind == ctree.KindFloat && width == 4:
		return types.ScalarF32, nil
	case kind == ctree.KindDouble && width == 8:
		return types.ScalarF64, nil
	// long double is only representable where it aliases double
	case kind == ctree.KindLongDouble && width == 8:
		return types.ScalarF64, nil
	}
	return types.ScalarInvalid, unexpectedWidth(kind, width, spelling)
}

func intOf(signed bool, kind ctree.TypeKind, width int64, spelling string) (types.ScalarKind, error) {
	switch width {
	case 1:
		if signed {
			return types.ScalarI8, nil
		}
		return types.ScalarU8, nil
	case 2:
		if signed {
			return types.ScalarI16, nil
		}
		return types.ScalarU16, nil
	case 4:
		if signed {
			return types.ScalarI32, nil
		}
		return types.ScalarU32, nil
	case 8:
		if signed {
			return types.ScalarI64, nil
		}
		return types.ScalarU64, nil
	}
	return types.ScalarInvalid, unexpectedWidth(kind, width, spelling)
}

func unexpectedWidth(kind ctree.TypeKind, width int64, spelling string) error {
	return &LayoutError{Kind: LayoutErrUnexpectedWidth, Type: spelling, TypeKind: kind, Width: width}
}
