package classify

import (
	"cschema/internal/ctree"
	"cschema/internal/diag"
	"cschema/internal/types"
)

// Callback turns the signature behind a function or function-pointer
// typedef into a named Function whose parameters carry the names of the
// typedef's ParmDecl children. A typedef without ParmDecl children keeps
// blank names; a non-zero count that disagrees with the signature is fatal.
func Callback(decl ctree.Cursor, fn *types.Function) (*types.Function, error) {
	name := decl.Spelling()
	doc := decl.Comment()
	params := ctree.Children(decl, ctree.CursorParmDecl)
	if len(params) != 0 && len(params) != len(fn.Params) {
		return nil, &diag.Error{
			Code:     diag.HrvParamCountMismatch,
			Subject:  name,
			Loc:      decl.Location(),
			Expected: len(fn.Params),
			Actual:   len(params),
		}
	}
	named, _ := types.Retag(fn, name, doc.Text).(*types.Function)
	for i, p := range params {
		if n := p.Spelling(); n != "" {
			named.Params[i].Name = n
		}
		named.Params[i].Doc = ParamDoc(doc, p)
	}
	return named, nil
}

// ParamDoc prefers the owner's @param entry over a comment on the
// parameter itself.
func ParamDoc(owner ctree.Comment, param ctree.Cursor) string {
	if d := owner.Param(param.Spelling()); d != "" {
		return d
	}
	return param.Comment().Text
}
