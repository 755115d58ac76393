package layout

import "cschema/internal/types"

// CheckStruct validates that every field fits inside the struct and that
// offsets never decrease. Union members all sit at offset zero, so only the
// size bound applies to them.
func CheckStruct(s *types.Struct) error {
	if s == nil {
		return nil
	}
	var prev int64
	for _, f := range s.Fields {
		if f.Offset < 0 || f.Size < 0 {
			return &LayoutError{Kind: LayoutErrNegative, Type: s.TypeName, Field: f.Name, Offset: f.Offset, Size: f.Size}
		}
		if f.Offset+f.Size > s.Size {
			return &LayoutError{Kind: LayoutErrFieldOverflow, Type: s.TypeName, Field: f.Name, Offset: f.Offset, Size: f.Size, Limit: s.Size}
		}
		if !s.Union && f.Offset < prev {
			return &LayoutError{Kind: LayoutErrFieldOrder, Type: s.TypeName, Field: f.Name, Offset: f.Offset, Limit: prev}
		}
		prev = f.Offset
	}
	return nil
}
