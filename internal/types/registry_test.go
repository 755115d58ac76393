package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySeedsStringSentinels(t *testing.T) {
	reg := NewRegistry()
	require.Equal(t, 2, reg.Len())

	d, ok := reg.Lookup(CString)
	require.True(t, ok)
	ptr, ok := d.(*Pointer)
	require.True(t, ok)
	assert.Equal(t, ModeBuffer, ptr.Mode)
	assert.True(t, reg.Builtin(CStringArray))
	assert.False(t, reg.Builtin("int"))
}

func TestRegistryAddKeepsFirstDescriptor(t *testing.T) {
	reg := NewRegistry()
	first := &Scalar{TypeName: "int", Scalar: ScalarI32}
	got, added := reg.Add("int", first)
	require.True(t, added)
	require.Same(t, first, got)

	before := reg.Len()
	got, added = reg.Add("int", &Scalar{TypeName: "int", Scalar: ScalarI64})
	assert.False(t, added)
	assert.Same(t, first, got)
	assert.Equal(t, before, reg.Len())
}

func TestRegistryCheckpointRollback(t *testing.T) {
	reg := NewRegistry()
	reg.Add("a", &Scalar{TypeName: "a", Scalar: ScalarU8})
	mark := reg.Checkpoint()
	reg.Add("b", &Scalar{TypeName: "b", Scalar: ScalarU8})
	reg.Add("c", &Reference{Target: "b"})

	reg.Rollback(mark)
	assert.True(t, reg.Has("a"))
	assert.False(t, reg.Has("b"))
	assert.False(t, reg.Has("c"))
	assert.Equal(t, []string{CString, CStringArray, "a"}, reg.Names())
}

func TestRegistryModeFor(t *testing.T) {
	reg := NewRegistry()
	fn := &Function{TypeName: "Callback", Result: &Scalar{TypeName: "void", Scalar: ScalarVoid}}
	reg.Add("Callback", fn)
	reg.Add("Handle", &Scalar{TypeName: "void", Scalar: ScalarVoid})

	cases := []struct {
		name    string
		pointee Descriptor
		want    Mode
	}{
		{"void", &Scalar{TypeName: "void", Scalar: ScalarVoid}, ModePointer},
		{"int", &Scalar{TypeName: "int", Scalar: ScalarI32}, ModeBuffer},
		{"opaque", &Scalar{TypeName: "Opaque", Scalar: ScalarOpaque}, ModeBuffer},
		{"struct", &Struct{TypeName: "S"}, ModeBuffer},
		{"enum", &Enum{TypeName: "E"}, ModeBuffer},
		{"pointer", &Pointer{Pointee: &Scalar{Scalar: ScalarI32}}, ModeBuffer},
		{"function", fn, ModeFunction},
		{"function reference", &Reference{Target: "Callback"}, ModeFunction},
		{"unknown reference", &Reference{Target: "Later"}, ModeBuffer},
		{"void typedef reference", &Reference{Target: "Handle"}, ModeBuffer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reg.ModeFor(tc.pointee))
		})
	}
}

func TestRetagFunctionPointerYieldsNamedFunction(t *testing.T) {
	fn := &Function{Params: []Param{{Type: &Scalar{TypeName: "int", Scalar: ScalarI32}}}}
	ptr := &Pointer{Pointee: fn, Mode: ModeFunction}

	got := Retag(ptr, "Callback", "fires on change")
	named, ok := got.(*Function)
	require.True(t, ok)
	assert.Equal(t, "Callback", named.Name())
	assert.Equal(t, "fires on change", named.Doc)
	assert.Empty(t, fn.TypeName, "source descriptor must stay untouched")

	named.Params[0].Name = "count"
	assert.Empty(t, fn.Params[0].Name)
}

func TestResolveStopsOnCycles(t *testing.T) {
	reg := NewRegistry()
	reg.Add("A", &Reference{Target: "B"})
	reg.Add("B", &Reference{Target: "A"})
	got := reg.Resolve(&Reference{Target: "A"})
	_, isRef := got.(*Reference)
	assert.True(t, isRef)
}

func TestParseScalar(t *testing.T) {
	s, ok := ParseScalar("u16")
	require.True(t, ok)
	assert.Equal(t, ScalarU16, s)
	assert.Equal(t, int64(2), s.Width())

	_, ok = ParseScalar("invalid")
	assert.False(t, ok)
}
