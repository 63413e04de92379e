// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptors(t *testing.T) {
	tests := []struct {
		class    *Class
		name     string
		internal string
		desc     string
	}{
		{Int, "int", "int", "I"},
		{Long, "long", "long", "J"},
		{Void, "void", "void", "V"},
		{Object, "java.lang.Object", "java/lang/Object", "Ljava/lang/Object;"},
		{String, "java.lang.String", "java/lang/String", "Ljava/lang/String;"},
		{ArrayOf(String), "[Ljava.lang.String;", "[Ljava/lang/String;", "[Ljava/lang/String;"},
		{ArrayOf(Int), "[I", "[I", "[I"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.class.Name())
		assert.Equal(t, tt.internal, tt.class.InternalName())
		assert.Equal(t, tt.desc, tt.class.Descriptor())
	}
}

func TestArrayOfIsMemoised(t *testing.T) {
	require.Same(t, ArrayOf(String), ArrayOf(String))
}

func TestSignature(t *testing.T) {
	host := NewClass("com.example.Foo", Public)
	add := host.AddMethod(&Method{
		Name:   "add",
		Mod:    Public,
		Params: []Param{Concrete(Int), Concrete(Int)},
		Return: Concrete(Int),
	})
	get := host.AddMethod(&Method{Name: "get", Mod: Public, Return: Concrete(String)})
	set := host.AddMethod(&Method{Name: "set", Mod: Public, Params: []Param{Concrete(String)}})
	ctor := host.AddConstructor(&Constructor{Mod: Public, Params: []Param{Concrete(String), Concrete(Int)}})
	empty := host.AddConstructor(&Constructor{Mod: Public})

	assert.Equal(t, "add;int;int", Signature(add))
	assert.Equal(t, "get;", Signature(get))
	assert.Equal(t, "set;java.lang.String", Signature(set))
	assert.Equal(t, "<init>;java.lang.String;int", Signature(ctor))
	assert.Equal(t, "<init>;", Signature(empty))
}

func TestAssignableFrom(t *testing.T) {
	iface := NewInterface("com.example.I", Public)
	subIface := NewInterface("com.example.J", Public)
	subIface.AddInterface(iface)

	base := NewClass("com.example.Base", Public)
	base.AddInterface(subIface)
	derived := NewClass("com.example.Derived", Public)
	derived.SetSuper(base)

	assert.True(t, Object.AssignableFrom(derived))
	assert.True(t, base.AssignableFrom(derived))
	assert.True(t, iface.AssignableFrom(base))
	assert.True(t, iface.AssignableFrom(derived))
	assert.True(t, subIface.AssignableFrom(derived))
	assert.False(t, derived.AssignableFrom(base))
	assert.False(t, base.AssignableFrom(Object))
	assert.False(t, Int.AssignableFrom(Long))
	assert.True(t, Int.AssignableFrom(Int))
	assert.True(t, ArrayOf(Object).AssignableFrom(ArrayOf(String)))
	assert.False(t, ArrayOf(String).AssignableFrom(ArrayOf(Object)))
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "com.example", NewClass("com.example.Foo", Public).PackageName())
	assert.Equal(t, "", NewClass("Root", Public).PackageName())
	assert.Equal(t, "", Int.PackageName())
}

func TestResolveParameterTypes(t *testing.T) {
	ix := Model{}

	// interface Comparator<T> { int compare(T, T); }
	comparator := NewInterface("java.util.Comparator", Public).TypeVars("T")
	compare := comparator.AddMethod(&Method{
		Name:   "compare",
		Mod:    Public | Abstract,
		Params: []Param{TypeVar("T", Object), TypeVar("T", Object)},
		Return: Concrete(Int),
	})

	// class S implements Comparator<String>
	s := NewClass("com.example.S", Public)
	s.AddInterface(comparator, Concrete(String))

	resolved := ix.ResolveParameterTypes(s, compare)
	require.Equal(t, []*Class{String, String}, resolved)

	// raw implementation erases to the bound
	raw := NewClass("com.example.Raw", Public)
	raw.AddInterface(comparator)
	require.Equal(t, []*Class{Object, Object}, ix.ResolveParameterTypes(raw, compare))

	// variables forwarded through an intermediate class
	mid := NewClass("com.example.Mid", Public).TypeVars("U")
	mid.AddInterface(comparator, TypeVar("U", Object))
	leaf := NewClass("com.example.Leaf", Public)
	leaf.SetSuper(mid, Concrete(String))
	require.Equal(t, []*Class{String, String}, ix.ResolveParameterTypes(leaf, compare))

	// concrete declarations resolve to themselves
	direct := s.AddMethod(&Method{
		Name:   "compare",
		Mod:    Public,
		Params: []Param{Concrete(String), Concrete(String)},
		Return: Concrete(Int),
	})
	require.Equal(t, []*Class{String, String}, ix.ResolveParameterTypes(s, direct))
}

func TestResolveReturnType(t *testing.T) {
	ix := Model{}
	supplier := NewInterface("java.util.function.Supplier", Public).TypeVars("T")
	get := supplier.AddMethod(&Method{Name: "get", Mod: Public | Abstract, Return: TypeVar("T", Object)})

	impl := NewClass("com.example.StringSupplier", Public)
	impl.AddInterface(supplier, Concrete(String))
	require.Equal(t, String, ix.ResolveReturnType(impl, get))
	require.Equal(t, Object, ix.ResolveReturnType(supplier, get))
}
