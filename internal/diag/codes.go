package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// classification
	ClsInfo                Code = 1000
	ClsUnsupportedTypeKind Code = 1001
	ClsUnexpectedFieldKind Code = 1002
	ClsIncompleteStruct    Code = 1003
	ClsInvalidSize         Code = 1004
	ClsUnexpectedWidth     Code = 1005
	ClsInvalidLayout       Code = 1006

	// harvesting
	HrvInfo               Code = 2000
	HrvParamCountMismatch Code = 2001
	HrvDuplicateFunction  Code = 2002
	HrvUnitSkipped        Code = 2003

	// emission
	EmtInfo          Code = 3000
	EmtNameCollision Code = 3001

	// parsing and output
	IOInfo            Code = 4000
	IOParseFailed     Code = 4001
	IOClangDiagnostic Code = 4002
	IOWriteFailed     Code = 4003

	// manifest
	PrjInfo            Code = 5000
	PrjManifestInvalid Code = 5001
)

var codeDescription = map[Code]string{
	UnknownCode:            "Unknown error",
	ClsInfo:                "Classification information",
	ClsUnsupportedTypeKind: "unsupported type kind",
	ClsUnexpectedFieldKind: "struct field visitation yielded a non-field",
	ClsIncompleteStruct:    "incomplete struct replaced by an opaque placeholder",
	ClsInvalidSize:         "type size could not be computed",
	ClsUnexpectedWidth:     "scalar width not supported",
	ClsInvalidLayout:       "inconsistent struct layout",
	HrvInfo:                "Harvesting information",
	HrvParamCountMismatch:  "typedef parameter count mismatch",
	HrvDuplicateFunction:   "duplicate function prototype",
	HrvUnitSkipped:         "header skipped after a fatal error",
	EmtInfo:                "Emission information",
	EmtNameCollision:       "synthesized callback name collision",
	IOInfo:                 "I/O information",
	IOParseFailed:          "header could not be parsed",
	IOClangDiagnostic:      "clang diagnostic",
	IOWriteFailed:          "output could not be written",
	PrjInfo:                "Project information",
	PrjManifestInvalid:     "invalid cschema.toml",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CLS%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("HRV%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EMT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
