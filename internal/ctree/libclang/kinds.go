package libclang

import (
	"github.com/go-clang/clang-v13/clang"

	"cschema/internal/ctree"
)

var typeKinds = map[clang.TypeKind]ctree.TypeKind{
	clang.Type_Unexposed:       ctree.KindUnexposed,
	clang.Type_Void:            ctree.KindVoid,
	clang.Type_Bool:            ctree.KindBool,
	clang.Type_Char_U:          ctree.KindCharU,
	clang.Type_UChar:           ctree.KindUChar,
	clang.Type_Char16:          ctree.KindChar16,
	clang.Type_Char32:          ctree.KindChar32,
	clang.Type_UShort:          ctree.KindUShort,
	clang.Type_UInt:            ctree.KindUInt,
	clang.Type_ULong:           ctree.KindULong,
	clang.Type_ULongLong:       ctree.KindULongLong,
	clang.Type_UInt128:         ctree.KindUInt128,
	clang.Type_Char_S:          ctree.KindCharS,
	clang.Type_SChar:           ctree.KindSChar,
	clang.Type_WChar:           ctree.KindWChar,
	clang.Type_Short:           ctree.KindShort,
	clang.Type_Int:             ctree.KindInt,
	clang.Type_Long:            ctree.KindLong,
	clang.Type_LongLong:        ctree.KindLongLong,
	clang.Type_Int128:          ctree.KindInt128,
	clang.Type_Float:           ctree.KindFloat,
	clang.Type_Double:          ctree.KindDouble,
	clang.Type_LongDouble:      ctree.KindLongDouble,
	clang.Type_NullPtr:         ctree.KindNullPtr,
	clang.Type_Pointer:         ctree.KindPointer,
	clang.Type_Record:          ctree.KindRecord,
	clang.Type_Enum:            ctree.KindEnum,
	clang.Type_Typedef:         ctree.KindTypedef,
	clang.Type_Elaborated:      ctree.KindElaborated,
	clang.Type_FunctionProto:   ctree.KindFunctionProto,
	clang.Type_FunctionNoProto: ctree.KindFunctionNoProto,
	clang.Type_ConstantArray:   ctree.KindConstantArray,
	clang.Type_IncompleteArray: ctree.KindIncompleteArray,
}

func typeKind(k clang.TypeKind) ctree.TypeKind {
	if out, ok := typeKinds[k]; ok {
		return out
	}
	return ctree.KindInvalid
}

func cursorKind(k clang.CursorKind) ctree.CursorKind {
	switch k {
	case clang.Cursor_StructDecl:
		return ctree.CursorStructDecl
	case clang.Cursor_UnionDecl:
		return ctree.CursorUnionDecl
	case clang.Cursor_EnumDecl:
		return ctree.CursorEnumDecl
	case clang.Cursor_FieldDecl:
		return ctree.CursorFieldDecl
	case clang.Cursor_EnumConstantDecl:
		return ctree.CursorEnumConstantDecl
	case clang.Cursor_FunctionDecl:
		return ctree.CursorFunctionDecl
	case clang.Cursor_VarDecl:
		return ctree.CursorVarDecl
	case clang.Cursor_ParmDecl:
		return ctree.CursorParmDecl
	case clang.Cursor_TypedefDecl:
		return ctree.CursorTypedefDecl
	case clang.Cursor_TypeRef:
		return ctree.CursorTypeRef
	default:
		return ctree.CursorUnknown
	}
}
