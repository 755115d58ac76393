package harvest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cschema/internal/classify"
	"cschema/internal/ctree"
	. "cschema/internal/ctree/ctreetest"
	"cschema/internal/diag"
	"cschema/internal/harvest"
	"cschema/internal/types"
)

type fixture struct {
	reg *types.Registry
	bag *diag.Bag
	h   *harvest.Harvester
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := types.NewRegistry()
	bag := diag.NewBag(32)
	rep := diag.NewBagReporter(bag)
	return &fixture{reg: reg, bag: bag, h: harvest.New(classify.New(reg, classify.WithReporter(rep)), rep)}
}

func TestFunctionSignatureOrder(t *testing.T) {
	f := newFixture(t)
	add := Func("add", Int(), Param("x", Int()), Param("y", Int()))

	unit, err := f.h.Harvest(context.Background(), NewUnit(add))
	require.NoError(t, err)
	require.Len(t, unit.Functions, 1)

	fn := unit.Functions[0]
	assert.Equal(t, "add", fn.Symbol)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "x", fn.Params[0].Name)
	assert.Equal(t, "y", fn.Params[1].Name)
	for _, p := range fn.Params {
		assert.Equal(t, types.ScalarI32, p.Type.(*types.Scalar).Scalar)
	}
	assert.Equal(t, types.ScalarI32, fn.Result.(*types.Scalar).Scalar)
}

func TestConstCharParameterIsCString(t *testing.T) {
	f := newFixture(t)
	puts := Func("log_line", Void(), Param("msg", PointerTo(ConstChar())))

	unit, err := f.h.Harvest(context.Background(), NewUnit(puts))
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: types.CString}, unit.Functions[0].Params[0].Type)
}

func TestCallbackTypedefPromotion(t *testing.T) {
	f := newFixture(t)
	sig := Proto(Void(), Int(), Double())
	cb := Typedef("Callback", PointerTo(sig), Param("count", Int()), Param("rate", Double()))
	cb.Decl.Doc = ctree.ParseComment("/** Progress hook.\n * @param count items done */")

	_, err := f.h.Harvest(context.Background(), NewUnit(Decl(cb)))
	require.NoError(t, err)

	d, ok := f.reg.Lookup("Callback")
	require.True(t, ok)
	fn, ok := d.(*types.Function)
	require.True(t, ok)
	assert.Equal(t, "Callback", fn.TypeName)
	assert.Equal(t, "Progress hook.", fn.Doc)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "count", fn.Params[0].Name)
	assert.Equal(t, "rate", fn.Params[1].Name)
	assert.Equal(t, "items done", fn.Params[0].Doc)
}

func TestUserHeaderCallbackKeepsParamNamesAcrossUnits(t *testing.T) {
	f := newFixture(t)
	cb := Typedef("Cb", PointerTo(Proto(Void(), Int())), Param("count", Int()))
	cb.Decl.Loc = ctree.Location{File: "callbacks.h", Line: 3, Column: 1}

	unit, err := f.h.Harvest(context.Background(), NewUnit(Func("use", Void(), Param("cb", cb))))
	require.NoError(t, err)
	assert.Equal(t, &types.Reference{Target: "Cb"}, unit.Functions[0].Params[0].Type)
	assert.False(t, f.reg.Has("Cb"), "user headers are harvested as their own unit")

	cb.Decl.Loc = MainLoc()
	_, err = f.h.Harvest(context.Background(), NewUnit(Decl(cb)))
	require.NoError(t, err)
	d, ok := f.reg.Lookup("Cb")
	require.True(t, ok)
	fn, ok := d.(*types.Function)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "count", fn.Params[0].Name)
}

func TestSystemCallbackTypedefNamesParams(t *testing.T) {
	f := newFixture(t)
	handler := Typedef("sighandler_t", PointerTo(Proto(Void(), Int())), Param("signo", Int()))
	System(handler.Decl, "/usr/include/signal.h")

	_, err := f.h.Harvest(context.Background(), NewUnit(Func("install", Void(), Param("h", handler))))
	require.NoError(t, err)
	d, ok := f.reg.Lookup("sighandler_t")
	require.True(t, ok)
	fn, ok := d.(*types.Function)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "signo", fn.Params[0].Name)
}

func TestCallbackTypedefCountMismatchIsFatal(t *testing.T) {
	f := newFixture(t)
	sig := Proto(Void(), Int(), Double())
	cb := Typedef("Broken", PointerTo(sig), Param("a", Int()), Param("b", Double()), Param("c", Int()))
	before := f.reg.Len()

	_, err := f.h.Harvest(context.Background(), NewUnit(Func("first", Int()), Decl(cb)))
	require.Error(t, err)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, diag.HrvParamCountMismatch, de.Code)
	assert.Equal(t, "Broken", de.Subject)
	assert.Equal(t, 2, de.Expected)
	assert.Equal(t, 3, de.Actual)
	assert.Equal(t, before, f.reg.Len(), "registry rolled back")
	assert.False(t, f.reg.Has("int"))
}

func TestCallbackTypedefWithoutParmDeclsKeepsBlankNames(t *testing.T) {
	f := newFixture(t)
	cb := Typedef("Notify", PointerTo(Proto(Void(), Int())))

	_, err := f.h.Harvest(context.Background(), NewUnit(Decl(cb)))
	require.NoError(t, err)
	d, _ := f.reg.Lookup("Notify")
	fn := d.(*types.Function)
	require.Len(t, fn.Params, 1)
	assert.Empty(t, fn.Params[0].Name)
}

func TestAnonymousStructTypedefTakesTypedefName(t *testing.T) {
	f := newFixture(t)
	body := AnonymousStruct(8, Field("x", Int(), 0), Field("y", Int(), 4))
	point := Typedef("Point", Elaborated(body))
	point.Decl.Doc = ctree.Comment{Text: "A 2D point."}

	_, err := f.h.Harvest(context.Background(), NewUnit(Decl(body), Decl(point)))
	require.NoError(t, err)
	d, ok := f.reg.Lookup("Point")
	require.True(t, ok)
	s, ok := d.(*types.Struct)
	require.True(t, ok)
	assert.Equal(t, "Point", s.TypeName)
	assert.Len(t, s.Fields, 2)
}

func TestPlainTypedefsAreRetagged(t *testing.T) {
	f := newFixture(t)
	id := Typedef("id_t", UInt())
	id.Decl.Doc = ctree.Comment{Text: "Identifier."}
	alias := Typedef("other_id", id)

	_, err := f.h.Harvest(context.Background(), NewUnit(Decl(id), Decl(alias)))
	require.NoError(t, err)

	d, _ := f.reg.Lookup("id_t")
	s := d.(*types.Scalar)
	assert.Equal(t, "id_t", s.TypeName)
	assert.Equal(t, types.ScalarU32, s.Scalar)
	assert.Equal(t, "Identifier.", s.Doc)

	d, _ = f.reg.Lookup("other_id")
	assert.Equal(t, &types.Reference{Target: "id_t"}, d)
}

func TestSelfNamedStructTypedef(t *testing.T) {
	f := newFixture(t)
	node := Struct("Node", 8)
	alias := Typedef("Node", Elaborated(node))
	node.Decl.Kids = []*Cursor{Field("next", PointerTo(alias), 0)}

	_, err := f.h.Harvest(context.Background(), NewUnit(Decl(alias), Decl(node)))
	require.NoError(t, err)
	d, _ := f.reg.Lookup("Node")
	s, ok := d.(*types.Struct)
	require.True(t, ok)
	p := s.Fields[0].Type.(*types.Pointer)
	assert.Equal(t, &types.Reference{Target: "Node"}, p.Pointee)
}

func TestOnlyMainFileDeclarationsAreHarvested(t *testing.T) {
	f := newFixture(t)
	sys := System(Func("printf", Int(), Param("fmt", PointerTo(ConstChar()))), "/usr/include/stdio.h")
	color := Enum("Color", UInt(), Const("RED", 0))
	anon := Enum("", Int(), Const("FLAG", 1))
	anon.Decl.Anonymous = true

	unit, err := f.h.Harvest(context.Background(), NewUnit(sys, Decl(color), Decl(anon)))
	require.NoError(t, err)
	assert.Empty(t, unit.Functions)
	assert.True(t, f.reg.Has("Color"))
	assert.False(t, f.reg.Has(""))
	for _, name := range f.reg.Names() {
		assert.NotContains(t, name, "Anonymous")
	}
}

func TestNamedStructDeclarationsAreClassified(t *testing.T) {
	f := newFixture(t)
	opaque := Incomplete("Opaque")
	config := Struct("Config", 4, Field("flags", UInt(), 0))

	_, err := f.h.Harvest(context.Background(), NewUnit(Decl(opaque), Decl(config)))
	require.NoError(t, err)
	d, _ := f.reg.Lookup("Opaque")
	assert.True(t, types.IsOpaque(d))
	assert.True(t, f.reg.Has("Config"))
	require.Equal(t, 1, f.bag.Len())
	assert.Equal(t, diag.ClsIncompleteStruct, f.bag.Items()[0].Code)
}

func TestDuplicatePrototypesCollapse(t *testing.T) {
	f := newFixture(t)
	first := Func("reset", Void())
	second := Func("reset", Void())

	unit, err := f.h.Harvest(context.Background(), NewUnit(first, second))
	require.NoError(t, err)
	require.Len(t, unit.Functions, 1)
	require.Equal(t, 1, f.bag.Len())
	assert.Equal(t, diag.HrvDuplicateFunction, f.bag.Items()[0].Code)
}

func TestMangledSymbolAndParamDocs(t *testing.T) {
	f := newFixture(t)
	fn := Func("open", Int(), Param("path", PointerTo(ConstChar())), Param("flags", Int()))
	fn.Mangled = "open64"
	fn.Doc = ctree.ParseComment("/// Opens a file.\n/// @param path location on disk")
	fn.Args[1].Doc = ctree.Comment{Text: "open mode"}
	fn.T.IsVariadic = true

	unit, err := f.h.Harvest(context.Background(), NewUnit(fn))
	require.NoError(t, err)
	got := unit.Functions[0]
	assert.Equal(t, "open", got.Name)
	assert.Equal(t, "open64", got.Symbol)
	assert.Equal(t, "Opens a file.", got.Doc)
	assert.Equal(t, "location on disk", got.Params[0].Doc)
	assert.Equal(t, "open mode", got.Params[1].Doc)
	assert.True(t, got.Variadic)
}

func TestHarvestStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.h.Harvest(ctx, NewUnit(Func("f", Int())))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "gfx_core", harvest.ModuleName("include/gfx-core.h"))
	assert.Equal(t, "stdio", harvest.ModuleName("/usr/include/stdio.h"))
}
