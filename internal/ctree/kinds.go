package ctree

import "fmt"

// TypeKind enumerates the AST type kinds the extractor distinguishes.
type TypeKind uint8

const (
	KindInvalid TypeKind = iota
	KindUnexposed
	KindVoid
	KindBool
	KindCharU
	KindUChar
	KindChar16
	KindChar32
	KindUShort
	KindUInt
	KindULong
	KindULongLong
	KindUInt128
	KindCharS
	KindSChar
	KindWChar
	KindShort
	KindInt
	KindLong
	KindLongLong
	KindInt128
	KindFloat
	KindDouble
	KindLongDouble
	KindNullPtr
	KindPointer
	KindRecord
	KindEnum
	KindTypedef
	KindElaborated
	KindFunctionProto
	KindFunctionNoProto
	KindConstantArray
	KindIncompleteArray
)

var typeKindNames = [...]string{
	KindInvalid:         "Invalid",
	KindUnexposed:       "Unexposed",
	KindVoid:            "Void",
	KindBool:            "Bool",
	KindCharU:           "Char_U",
	KindUChar:           "UChar",
	KindChar16:          "Char16",
	KindChar32:          "Char32",
	KindUShort:          "UShort",
	KindUInt:            "UInt",
	KindULong:           "ULong",
	KindULongLong:       "ULongLong",
	KindUInt128:         "UInt128",
	KindCharS:           "Char_S",
	KindSChar:           "SChar",
	KindWChar:           "WChar",
	KindShort:           "Short",
	KindInt:             "Int",
	KindLong:            "Long",
	KindLongLong:        "LongLong",
	KindInt128:          "Int128",
	KindFloat:           "Float",
	KindDouble:          "Double",
	KindLongDouble:      "LongDouble",
	KindNullPtr:         "NullPtr",
	KindPointer:         "Pointer",
	KindRecord:          "Record",
	KindEnum:            "Enum",
	KindTypedef:         "Typedef",
	KindElaborated:      "Elaborated",
	KindFunctionProto:   "FunctionProto",
	KindFunctionNoProto: "FunctionNoProto",
	KindConstantArray:   "ConstantArray",
	KindIncompleteArray: "IncompleteArray",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) && typeKindNames[k] != "" {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", k)
}

// IsUnsignedInteger reports unsigned integer kinds, including unsigned chars.
func (k TypeKind) IsUnsignedInteger() bool {
	switch k {
	case KindCharU, KindUChar, KindChar16, KindChar32, KindUShort, KindUInt, KindULong, KindULongLong, KindUInt128:
		return true
	}
	return false
}

// IsSignedInteger reports signed integer kinds, including signed chars.
func (k TypeKind) IsSignedInteger() bool {
	switch k {
	case KindCharS, KindSChar, KindWChar, KindShort, KindInt, KindLong, KindLongLong, KindInt128:
		return true
	}
	return false
}

// IsFloat reports floating-point kinds.
func (k TypeKind) IsFloat() bool {
	return k == KindFloat || k == KindDouble || k == KindLongDouble
}

// IsChar reports the plain/signed/unsigned char kinds.
func (k TypeKind) IsChar() bool {
	switch k {
	case KindCharS, KindCharU, KindSChar, KindUChar:
		return true
	}
	return false
}

// IsPrimitive reports kinds handled by the scalar resolver.
func (k TypeKind) IsPrimitive() bool {
	return k == KindVoid || k == KindBool || k == KindNullPtr ||
		k.IsFloat() || k.IsSignedInteger() || k.IsUnsignedInteger()
}

// IsFunction reports both prototyped and unprototyped function kinds.
func (k TypeKind) IsFunction() bool {
	return k == KindFunctionProto || k == KindFunctionNoProto
}

// CursorKind enumerates declaration cursor kinds.
type CursorKind uint8

const (
	CursorUnknown CursorKind = iota
	CursorStructDecl
	CursorUnionDecl
	CursorEnumDecl
	CursorFieldDecl
	CursorEnumConstantDecl
	CursorFunctionDecl
	CursorVarDecl
	CursorParmDecl
	CursorTypedefDecl
	CursorTypeRef
)

func (k CursorKind) String() string {
	switch k {
	case CursorStructDecl:
		return "StructDecl"
	case CursorUnionDecl:
		return "UnionDecl"
	case CursorEnumDecl:
		return "EnumDecl"
	case CursorFieldDecl:
		return "FieldDecl"
	case CursorEnumConstantDecl:
		return "EnumConstantDecl"
	case CursorFunctionDecl:
		return "FunctionDecl"
	case CursorVarDecl:
		return "VarDecl"
	case CursorParmDecl:
		return "ParmDecl"
	case CursorTypedefDecl:
		return "TypedefDecl"
	case CursorTypeRef:
		return "TypeRef"
	default:
		return "Unknown"
	}
}

// VisitResult steers child visitation.
type VisitResult uint8

const (
	// VisitBreak stops the traversal.
	VisitBreak VisitResult = iota
	// VisitContinue moves on to the next sibling.
	VisitContinue
	// VisitRecurse descends into the current cursor's children.
	VisitRecurse
)
