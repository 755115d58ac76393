package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cschema/internal/classify"
	. "cschema/internal/ctree/ctreetest"
	"cschema/internal/diag"
	"cschema/internal/harvest"
	"cschema/internal/schema"
	"cschema/internal/types"
)

func harvestAll(t *testing.T, reg *types.Registry, decls ...*Cursor) *harvest.Unit {
	t.Helper()
	h := harvest.New(classify.New(reg), nil)
	unit, err := h.Harvest(context.Background(), NewUnit(decls...))
	require.NoError(t, err)
	return unit
}

func indexOf(records []Record, name string) int {
	for i, r := range records {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func TestStructCallbackFieldsAreDeinlined(t *testing.T) {
	reg := types.NewRegistry()
	handlers := Struct("Handlers", 16,
		Field("onOpen", PointerTo(Proto(Void(), Int())), 0),
		Field("onClose", PointerTo(Proto(Void())), 8),
	)
	harvestAll(t, reg, Decl(handlers))
	before := reg.Len()

	records, err := Records(reg)
	require.NoError(t, err)
	assert.Equal(t, before, reg.Len(), "registry untouched")

	open := indexOf(records, "HandlersOnOpenCallbackDefinition")
	closeIdx := indexOf(records, "HandlersOnCloseCallbackDefinition")
	owner := indexOf(records, "Handlers")
	require.NotEqual(t, -1, open)
	require.NotEqual(t, -1, closeIdx)
	require.NotEqual(t, -1, owner)
	assert.Less(t, open, owner)
	assert.Less(t, closeIdx, owner)
	assert.True(t, records[open].Synthesized)

	s := records[owner].Descriptor.(*types.Struct)
	assert.Equal(t, &types.Reference{Target: "HandlersOnOpenCallbackDefinition"}, s.Fields[0].Type)
	assert.Equal(t, &types.Reference{Target: "HandlersOnCloseCallbackDefinition"}, s.Fields[1].Type)

	cb := records[open].Descriptor.(*types.Function)
	require.Len(t, cb.Params, 1)
	assert.Equal(t, types.ScalarI32, cb.Params[0].Type.(*types.Scalar).Scalar)

	orig, _ := reg.Lookup("Handlers")
	_, stillPointer := orig.(*types.Struct).Fields[0].Type.(*types.Pointer)
	assert.True(t, stillPointer, "registry struct keeps its inline field")
}

func TestSingleCallbackFieldOmitsFieldName(t *testing.T) {
	reg := types.NewRegistry()
	timer := Struct("Timer", 16,
		Field("interval", Long(), 0),
		Field("fire", PointerTo(Proto(Void())), 8),
	)
	harvestAll(t, reg, Decl(timer))

	records, err := Records(reg)
	require.NoError(t, err)
	assert.NotEqual(t, -1, indexOf(records, "TimerCallbackDefinition"))
}

func TestIdenticalCallbacksInDifferentStructsStayDistinct(t *testing.T) {
	reg := types.NewRegistry()
	a := Struct("Reader", 8, Field("done", PointerTo(Proto(Void(), Int())), 0))
	b := Struct("Writer", 8, Field("done", PointerTo(Proto(Void(), Int())), 0))
	harvestAll(t, reg, Decl(a), Decl(b))

	records, err := Records(reg)
	require.NoError(t, err)
	assert.NotEqual(t, -1, indexOf(records, "ReaderCallbackDefinition"))
	assert.NotEqual(t, -1, indexOf(records, "WriterCallbackDefinition"))
}

func TestSynthesizedNameCollisionIsFatal(t *testing.T) {
	reg := types.NewRegistry()
	harvestAll(t, reg, Decl(Struct("Job", 8, Field("run", PointerTo(Proto(Void())), 0))))
	reg.Add("JobCallbackDefinition", &types.Scalar{TypeName: "JobCallbackDefinition", Scalar: types.ScalarU8})

	_, err := Records(reg)
	require.Error(t, err)
	assert.Equal(t, diag.EmtNameCollision, diag.CodeOf(err))
}

func TestEmissionOrder(t *testing.T) {
	reg := types.NewRegistry()
	color := Enum("Color", UInt(), Const("RED", 0))
	inner := Struct("Beta", 4, Field("c", Elaborated(color), 0))
	outer := Struct("Alpha", 8, Field("b", Elaborated(inner), 0), Field("n", Int(), 4))
	node := Struct("Node", 8)
	node.Decl.Kids = []*Cursor{Field("next", PointerTo(Elaborated(node)), 0)}
	harvestAll(t, reg, Decl(color), Decl(inner), Decl(outer), Decl(node))

	records, err := Records(reg)
	require.NoError(t, err)
	require.Len(t, records, reg.Len())

	lastScalar, firstEnum, lastEnum, firstRest := -1, -1, -1, -1
	for i, r := range records {
		switch {
		case r.Descriptor.Kind() == types.KindScalar || reg.Builtin(r.Name):
			lastScalar = i
		case r.Descriptor.Kind() == types.KindEnum:
			if firstEnum < 0 {
				firstEnum = i
			}
			lastEnum = i
		default:
			if firstRest < 0 {
				firstRest = i
			}
		}
	}
	assert.Less(t, lastScalar, firstEnum)
	assert.Less(t, lastEnum, firstRest)
	assert.Less(t, indexOf(records, "Beta"), indexOf(records, "Alpha"))
	assert.NotEqual(t, -1, indexOf(records, "Node"))
	assert.Less(t, indexOf(records, types.CString), firstEnum, "string sentinels lead with the scalars")
	assert.Less(t, indexOf(records, types.CStringArray), firstEnum)

	again, err := Records(reg)
	require.NoError(t, err)
	assert.Equal(t, records, again, "deterministic")
}

func TestPointeeIsEmittedBeforePointer(t *testing.T) {
	reg := types.NewRegistry()
	b := Struct("B", 4, Field("x", Int(), 0))
	a := Struct("A", 8, Field("b", PointerTo(Elaborated(b)), 0))
	harvestAll(t, reg, Decl(a), Decl(b))

	records, err := Records(reg)
	require.NoError(t, err)
	require.NotEqual(t, -1, indexOf(records, "A"))
	assert.Less(t, indexOf(records, "B"), indexOf(records, "A"))
}

func TestPointerCycleIsBrokenDeterministically(t *testing.T) {
	reg := types.NewRegistry()
	left := Struct("Left", 8)
	right := Struct("Right", 8, Field("l", PointerTo(Elaborated(left)), 0))
	left.Decl.Kids = []*Cursor{Field("r", PointerTo(Elaborated(right)), 0)}
	holder := Struct("Holder", 8, Field("right", Elaborated(right), 0))
	harvestAll(t, reg, Decl(left), Decl(right), Decl(holder))

	records, err := Records(reg)
	require.NoError(t, err)
	require.Len(t, records, reg.Len())
	l, r, h := indexOf(records, "Left"), indexOf(records, "Right"), indexOf(records, "Holder")
	require.NotEqual(t, -1, l)
	assert.Less(t, l, r, "smallest record on the cycle goes first")
	assert.Less(t, r, h, "by-value dependency still holds")
}

func TestImports(t *testing.T) {
	point := &types.Struct{TypeName: "Point", Size: 8}
	handle := &types.Scalar{TypeName: "Handle", Scalar: types.ScalarOpaque}
	void := &types.Scalar{TypeName: "void", Scalar: types.ScalarVoid}
	i32 := &types.Scalar{TypeName: "int", Scalar: types.ScalarI32}
	fns := []*harvest.FunctionDecl{{
		Name: "use",
		Params: []types.Param{
			{Name: "p", Type: &types.Pointer{Pointee: point, Mode: types.ModeBuffer}},
			{Name: "c", Type: &types.Reference{Target: "Color"}},
			{Name: "s", Type: &types.Reference{Target: types.CString}},
			{Name: "cb", Type: &types.Pointer{Mode: types.ModeFunction, Pointee: &types.Function{
				Params: []types.Param{{Type: &types.Reference{Target: "Event"}}},
				Result: void,
			}}},
			{Name: "ud", Type: &types.Pointer{Pointee: void, Mode: types.ModePointer}},
			{Name: "n", Type: i32},
		},
		Result: handle,
	}, {
		Name:   "again",
		Params: []types.Param{{Name: "c", Type: &types.Reference{Target: "Color"}}},
		Result: void,
	}}

	imports, helpers := Imports(fns)
	assert.Equal(t, []string{"Color", "Event", "Handle", "Point", "cstring"}, imports)
	assert.Equal(t, []string{"buffer", "function", "pointer"}, helpers)
}

func TestEmitBuildsModules(t *testing.T) {
	reg := types.NewRegistry()
	point := Struct("Point", 8, Field("x", Int(), 0), Field("y", Int(), 4))
	area := Func("area", Double(), Param("p", PointerTo(Elaborated(point))))
	label := Func("label", PointerTo(ConstChar()))
	unit := harvestAll(t, reg, Decl(point), area, label)

	out, err := Emit(context.Background(), reg, []*harvest.Unit{unit})
	require.NoError(t, err)
	assert.Equal(t, schema.Version, out.Version)

	mod, ok := out.Module("test")
	require.True(t, ok)
	assert.Equal(t, []string{"Point", "cstring"}, mod.Imports)
	assert.Equal(t, []string{"buffer"}, mod.Helpers)
	require.Len(t, mod.Functions, 2)
	p := mod.Functions[0].Params[0].Type
	assert.Equal(t, schema.RefPointer, p.Kind)
	assert.Equal(t, "buffer", p.Mode)
	assert.Equal(t, "Point", p.Pointee.Name)
	assert.Equal(t, "cstring", mod.Functions[1].Result.Name)

	rec, ok := out.Record("Point")
	require.True(t, ok)
	assert.Equal(t, schema.KindStruct, rec.Kind)
	assert.Equal(t, "i32", rec.Fields[1].Type.Scalar)

	cs, ok := out.Record(types.CString)
	require.True(t, ok)
	assert.Equal(t, schema.KindPointer, cs.Kind)
	assert.Equal(t, "i8", cs.Type.Pointee.Scalar)
}
