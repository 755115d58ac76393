package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cschema/internal/ctree"
	"cschema/internal/ctree/ctreetest"
	"cschema/internal/diag"
	"cschema/internal/layout"
	"cschema/internal/types"
)

func newClassifier(t *testing.T) (*Classifier, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(32)
	return New(types.NewRegistry(), WithReporter(diag.NewBagReporter(bag))), bag
}

func TestScalarsAreMemoizedUnderCanonicalName(t *testing.T) {
	c, _ := newClassifier(t)
	spelled := ctreetest.Prim(ctree.KindULongLong, "const unsigned long long", 8)

	d, err := c.Classify(spelled)
	require.NoError(t, err)
	s, ok := d.(*types.Scalar)
	require.True(t, ok)
	assert.Equal(t, "unsignedLongLong", s.TypeName)
	assert.Equal(t, types.ScalarU64, s.Scalar)

	before := c.Registry().Len()
	again, err := c.Classify(ctreetest.ULongLong())
	require.NoError(t, err)
	assert.Same(t, d, again)
	assert.Equal(t, before, c.Registry().Len())
}

func TestEnumDedupThroughTwoTypedefs(t *testing.T) {
	c, _ := newClassifier(t)
	color := ctreetest.Enum("Color", ctreetest.UInt(), ctreetest.Const("RED", 0), ctreetest.Const("GREEN", 1))
	first := ctreetest.Typedef("ColorA", ctreetest.Elaborated(color))
	second := ctreetest.Typedef("ColorB", ctreetest.Elaborated(color))

	a, err := c.ClassifyNamed(first.Decl.UnderlyingT, "ColorA")
	require.NoError(t, err)
	size := c.Registry().Len()
	b, err := c.ClassifyNamed(second.Decl.UnderlyingT, "ColorB")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, size, c.Registry().Len())
	e, ok := a.(*types.Enum)
	require.True(t, ok)
	assert.Equal(t, "Color", e.TypeName)
	assert.Equal(t, types.ScalarU32, e.Backing.Scalar)
	require.Len(t, e.Constants, 2)
	assert.Equal(t, "GREEN", e.Constants[1].Name)
	assert.Equal(t, uint64(1), e.Constants[1].UValue)
}

func TestCharPointersCollapseToStringSentinels(t *testing.T) {
	c, _ := newClassifier(t)

	d, err := c.Classify(ctreetest.PointerTo(ctreetest.ConstChar()))
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: types.CString}, d)

	d, err = c.Classify(ctreetest.PointerTo(ctreetest.PointerTo(ctreetest.Char())))
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: types.CStringArray}, d)

	d, err = c.Classify(ctreetest.PointerTo(ctreetest.UChar()))
	require.NoError(t, err)
	p, ok := d.(*types.Pointer)
	require.True(t, ok, "unsigned char * is a byte buffer")
	assert.Equal(t, types.ModeBuffer, p.Mode)
}

func TestPointerModes(t *testing.T) {
	c, _ := newClassifier(t)
	cases := []struct {
		name string
		typ  *ctreetest.Type
		want types.Mode
	}{
		{"void", ctreetest.PointerTo(ctreetest.Void()), types.ModePointer},
		{"int", ctreetest.PointerTo(ctreetest.Int()), types.ModeBuffer},
		{"pointer", ctreetest.PointerTo(ctreetest.PointerTo(ctreetest.Int())), types.ModeBuffer},
		{"function", ctreetest.PointerTo(ctreetest.Proto(ctreetest.Void(), ctreetest.Int())), types.ModeFunction},
		{"struct", ctreetest.PointerTo(ctreetest.Struct("P", 4, ctreetest.Field("x", ctreetest.Int(), 0))), types.ModeBuffer},
		{"void typedef", ctreetest.PointerTo(ctreetest.Typedef("Handle", ctreetest.Void())), types.ModeBuffer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := c.Classify(tc.typ)
			require.NoError(t, err)
			p, ok := d.(*types.Pointer)
			require.True(t, ok)
			assert.Equal(t, tc.want, p.Mode)
		})
	}
}

func TestFunctionPrototypeKeepsOrderAndBlankNames(t *testing.T) {
	c, _ := newClassifier(t)
	proto := ctreetest.Proto(ctreetest.Int(), ctreetest.Int(), ctreetest.Double())
	proto.IsVariadic = true

	d, err := c.Classify(proto)
	require.NoError(t, err)
	fn, ok := d.(*types.Function)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "int", fn.Params[0].Type.Name())
	assert.Equal(t, "double", fn.Params[1].Type.Name())
	assert.Empty(t, fn.Params[0].Name)
	assert.Equal(t, "int", fn.Result.Name())
	assert.True(t, fn.Variadic)
}

func TestIncompleteStructBecomesOpaquePlaceholder(t *testing.T) {
	c, bag := newClassifier(t)
	d, err := c.Classify(ctreetest.Elaborated(ctreetest.Incomplete("Opaque")))
	require.NoError(t, err)
	assert.True(t, types.IsOpaque(d))
	assert.Equal(t, "Opaque", d.Name())

	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.ClsIncompleteStruct, bag.Items()[0].Code)
	assert.Equal(t, diag.SevWarning, bag.Items()[0].Severity)
}

func TestStructArrayFieldsExpand(t *testing.T) {
	c, _ := newClassifier(t)
	arr := &ctreetest.Type{K: ctree.KindConstantArray, Name: "float[3]", Size: 12, ElemT: ctreetest.Float(), Length: 3}
	v := ctreetest.Field("v", arr, 0)
	v.Doc = ctree.Comment{Text: "components"}
	vec := ctreetest.Struct("Vec", 16, v, ctreetest.Field("n", ctreetest.Int(), 12))

	d, err := c.Classify(vec)
	require.NoError(t, err)
	s, ok := d.(*types.Struct)
	require.True(t, ok)
	require.Len(t, s.Fields, 4)
	for i, want := range []struct {
		name   string
		offset int64
	}{{"v[0]", 0}, {"v[1]", 4}, {"v[2]", 8}, {"n", 12}} {
		assert.Equal(t, want.name, s.Fields[i].Name)
		assert.Equal(t, want.offset, s.Fields[i].Offset)
	}
	assert.Equal(t, "components", s.Fields[0].Doc)
	assert.Empty(t, s.Fields[1].Doc)
	assert.NoError(t, layout.CheckStruct(s))
}

func TestFlexibleArrayMemberHasNoEntries(t *testing.T) {
	c, _ := newClassifier(t)
	flex := &ctreetest.Type{K: ctree.KindIncompleteArray, Name: "int[]", ElemT: ctreetest.Int()}
	buf := ctreetest.Struct("Buf", 4, ctreetest.Field("len", ctreetest.Int(), 0), ctreetest.Field("data", flex, 4))

	d, err := c.Classify(buf)
	require.NoError(t, err)
	s := d.(*types.Struct)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "len", s.Fields[0].Name)
}

func TestBitfieldsCoverOnlyTheirBytes(t *testing.T) {
	c, _ := newClassifier(t)
	flags := ctreetest.Struct("Flags", 4,
		ctreetest.Field("kind", ctreetest.UChar(), 0),
		ctreetest.Bits("mode", ctreetest.UInt(), 8, 4),
		ctreetest.Bits("level", ctreetest.UInt(), 12, 6),
		ctreetest.Bits("", ctreetest.UInt(), 18, 2),
		ctreetest.Bits("", ctreetest.UInt(), 24, 0),
	)

	d, err := c.Classify(flags)
	require.NoError(t, err)
	s := d.(*types.Struct)
	require.Len(t, s.Fields, 3)

	mode := s.Fields[1]
	assert.Equal(t, "mode", mode.Name)
	assert.Equal(t, int64(1), mode.Offset)
	assert.Equal(t, int64(1), mode.Size)
	assert.Equal(t, int64(0), mode.BitOffset)
	assert.Equal(t, int64(4), mode.BitWidth)
	assert.Equal(t, types.ScalarU32, mode.Type.(*types.Scalar).Scalar)

	level := s.Fields[2]
	assert.Equal(t, int64(1), level.Offset)
	assert.Equal(t, int64(2), level.Size, "bits 4..9 of byte 1 spill into byte 2")
	assert.Equal(t, int64(4), level.BitOffset)
	assert.Equal(t, int64(6), level.BitWidth)
	assert.Zero(t, s.Fields[0].BitWidth)
}

func TestSelfReferentialStructUsesForwardReference(t *testing.T) {
	c, _ := newClassifier(t)
	node := ctreetest.Struct("Node", 16, ctreetest.Field("value", ctreetest.Int(), 0))
	node.Decl.Kids = append(node.Decl.Kids, ctreetest.Field("next", ctreetest.PointerTo(ctreetest.Elaborated(node)), 8))

	d, err := c.Classify(ctreetest.Elaborated(node))
	require.NoError(t, err)
	s := d.(*types.Struct)
	require.Len(t, s.Fields, 2)
	next, ok := s.Fields[1].Type.(*types.Pointer)
	require.True(t, ok)
	assert.Equal(t, &types.Reference{Target: "Node"}, next.Pointee)
	assert.Equal(t, types.ModeBuffer, next.Mode)

	reg, ok := c.Registry().Lookup("Node")
	require.True(t, ok)
	assert.Same(t, d, reg)
}

func TestUnionFieldsShareOffsetZero(t *testing.T) {
	c, _ := newClassifier(t)
	u := ctreetest.Union("Value", 8, ctreetest.Field("i", ctreetest.Int(), 0), ctreetest.Field("d", ctreetest.Double(), 0))
	d, err := c.Classify(u)
	require.NoError(t, err)
	s := d.(*types.Struct)
	assert.True(t, s.Union)
	assert.Equal(t, int64(8), s.Size)
}

func TestAnonymousRecordsTakeHintOrNestedName(t *testing.T) {
	c, _ := newClassifier(t)
	inner := ctreetest.AnonymousStruct(4, ctreetest.Field("flags", ctreetest.UInt(), 0))
	outer := ctreetest.AnonymousStruct(8, ctreetest.Field("id", ctreetest.Int(), 0), ctreetest.Field("meta", inner, 4))

	d, err := c.ClassifyNamed(outer, "Packet")
	require.NoError(t, err)
	assert.Equal(t, "Packet", d.Name())
	s := d.(*types.Struct)
	assert.Equal(t, "PacketMeta", s.Fields[1].Type.Name())
	assert.True(t, c.Registry().Has("PacketMeta"))

	again, err := c.Classify(outer)
	require.NoError(t, err)
	assert.Same(t, d, again, "anonymous records keep their first name")
}

func TestSystemTypedefResolvedEagerly(t *testing.T) {
	c, _ := newClassifier(t)
	sizeT := ctreetest.Typedef("size_t", ctreetest.Prim(ctree.KindULong, "unsigned long", 8))
	ctreetest.System(sizeT.Decl, "/usr/include/stddef.h")

	d, err := c.Classify(sizeT)
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: "size_t"}, d)

	reg, ok := c.Registry().Lookup("size_t")
	require.True(t, ok)
	s, ok := reg.(*types.Scalar)
	require.True(t, ok)
	assert.Equal(t, "size_t", s.TypeName)
	assert.Equal(t, types.ScalarU64, s.Scalar)
	assert.True(t, c.Registry().Has("unsignedLong"))
}

func TestMainTypedefIsOnlyReferenced(t *testing.T) {
	c, _ := newClassifier(t)
	handle := ctreetest.Typedef("Handle", ctreetest.PointerTo(ctreetest.Void()))
	d, err := c.Classify(handle)
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: "Handle"}, d)
	assert.False(t, c.Registry().Has("Handle"))
}

func TestUserHeaderTypedefIsOnlyReferenced(t *testing.T) {
	c, _ := newClassifier(t)
	count := ctreetest.Typedef("count_t", ctreetest.UInt())
	count.Decl.Loc = ctree.Location{File: "counts.h", Line: 1, Column: 1}

	d, err := c.Classify(count)
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: "count_t"}, d)
	assert.False(t, c.Registry().Has("count_t"))
}

func TestSystemTypedefOfSelfReferentialStruct(t *testing.T) {
	c, _ := newClassifier(t)
	list := ctreetest.Struct("List", 8)
	alias := ctreetest.Typedef("List", ctreetest.Elaborated(list))
	ctreetest.System(alias.Decl, "/usr/include/list.h")
	list.Decl.Kids = []*ctreetest.Cursor{ctreetest.Field("next", ctreetest.PointerTo(alias), 0)}

	d, err := c.Classify(ctreetest.Elaborated(list))
	require.NoError(t, err)
	_, ok := d.(*types.Struct)
	require.True(t, ok)
	got, _ := c.Registry().Lookup("List")
	assert.Same(t, d, got)
}

func TestFatalConditions(t *testing.T) {
	t.Run("unsupported kind", func(t *testing.T) {
		c, _ := newClassifier(t)
		_, err := c.Classify(&ctreetest.Type{K: ctree.KindUnexposed, Name: "__m128"})
		assert.Equal(t, diag.ClsUnsupportedTypeKind, diag.CodeOf(err))
		assert.Contains(t, err.Error(), "__m128")
	})
	t.Run("unexpected field kind", func(t *testing.T) {
		c, _ := newClassifier(t)
		odd := &ctreetest.Cursor{K: ctree.CursorVarDecl, Name: "counter", T: ctreetest.Int()}
		_, err := c.Classify(ctreetest.Struct("S", 4, odd))
		assert.Equal(t, diag.ClsUnexpectedFieldKind, diag.CodeOf(err))
	})
	t.Run("invalid size", func(t *testing.T) {
		c, _ := newClassifier(t)
		bad := ctreetest.Struct("Dep", 0)
		bad.SizeErr = &ctree.LayoutError{Reason: ctree.LayoutDependent}
		_, err := c.Classify(bad)
		assert.Equal(t, diag.ClsInvalidSize, diag.CodeOf(err))
		assert.Contains(t, err.Error(), "Dep")
	})
	t.Run("unexpected width", func(t *testing.T) {
		c, _ := newClassifier(t)
		_, err := c.Classify(ctreetest.LongDouble())
		assert.Equal(t, diag.ClsUnexpectedWidth, diag.CodeOf(err))
	})
	t.Run("invalid layout", func(t *testing.T) {
		c, _ := newClassifier(t)
		_, err := c.Classify(ctreetest.Struct("Tiny", 2, ctreetest.Field("x", ctreetest.Int(), 0)))
		assert.Equal(t, diag.ClsInvalidLayout, diag.CodeOf(err))
		assert.False(t, c.Registry().Has("Tiny"))
	})
}

func TestPackageLevelClassify(t *testing.T) {
	reg := types.NewRegistry()
	d, err := Classify(reg, ctreetest.Int())
	require.NoError(t, err)
	assert.Equal(t, types.ScalarI32, d.(*types.Scalar).Scalar)
	assert.True(t, reg.Has("int"))
}
