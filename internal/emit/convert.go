package emit

import (
	"cschema/internal/schema"
	"cschema/internal/types"
)

func toRecord(r Record) schema.Record {
	out := schema.Record{Name: r.Name, Doc: types.DocOf(r.Descriptor), Synthesized: r.Synthesized}
	switch d := r.Descriptor.(type) {
	case *types.Scalar:
		if d.Scalar == types.ScalarOpaque {
			out.Kind = schema.KindOpaque
			break
		}
		out.Kind = schema.KindScalar
		out.Scalar = d.Scalar.String()
	case *types.Enum:
		out.Kind = schema.KindEnum
		signed := true
		if d.Backing != nil {
			out.Backing = d.Backing.Scalar.String()
			signed = d.Backing.Scalar.Signed()
		}
		out.Constants = make([]schema.Constant, 0, len(d.Constants))
		for _, c := range d.Constants {
			k := schema.Constant{Name: c.Name, Doc: c.Doc, Value: c.Value}
			if !signed {
				k.Unsigned = c.UValue
			}
			out.Constants = append(out.Constants, k)
		}
	case *types.Struct:
		out.Kind = schema.KindStruct
		if d.Union {
			out.Kind = schema.KindUnion
		}
		out.Size = d.Size
		out.Fields = make([]schema.Field, 0, len(d.Fields))
		for _, f := range d.Fields {
			out.Fields = append(out.Fields, schema.Field{
				Name:      f.Name,
				Doc:       f.Doc,
				Type:      toRef(f.Type),
				Offset:    f.Offset,
				Size:      f.Size,
				BitOffset: f.BitOffset,
				BitWidth:  f.BitWidth,
			})
		}
	case *types.Pointer:
		out.Kind = schema.KindPointer
		out.Type = toRef(d)
	case *types.Function:
		out.Kind = schema.KindFunction
		out.Params = toParams(d.Params)
		out.Result = toRef(d.Result)
		out.Variadic = d.Variadic
	case *types.Reference:
		out.Kind = schema.KindReference
		out.Target = d.Target
	}
	return out
}

// toRef spells d where it is used: named records by name, everything else
// inline. Primitive scalars carry both their registry name and tag.
func toRef(d types.Descriptor) *schema.TypeRef {
	switch v := d.(type) {
	case nil:
		return nil
	case *types.Scalar:
		if v.Scalar == types.ScalarOpaque {
			return &schema.TypeRef{Kind: schema.RefNamed, Name: v.TypeName}
		}
		return &schema.TypeRef{Kind: schema.RefScalar, Name: v.TypeName, Scalar: v.Scalar.String()}
	case *types.Pointer:
		return &schema.TypeRef{Kind: schema.RefPointer, Mode: v.Mode.String(), Pointee: toRef(v.Pointee)}
	case *types.Function:
		if v.TypeName != "" {
			return &schema.TypeRef{Kind: schema.RefNamed, Name: v.TypeName}
		}
		return &schema.TypeRef{Kind: schema.RefFunction, Params: toParams(v.Params), Result: toRef(v.Result), Variadic: v.Variadic}
	default:
		return &schema.TypeRef{Kind: schema.RefNamed, Name: d.Name()}
	}
}

func toParams(ps []types.Param) []schema.Param {
	out := make([]schema.Param, 0, len(ps))
	for _, p := range ps {
		out = append(out, schema.Param{Name: p.Name, Doc: p.Doc, Type: toRef(p.Type)})
	}
	return out
}
