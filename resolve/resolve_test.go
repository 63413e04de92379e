// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmglue/jvmglue/introspect"
)

func names(methods []*introspect.Method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = introspect.Signature(m)
	}
	return out
}

func TestBasicResolution(t *testing.T) {
	host := introspect.NewClass("com.example.Calc", introspect.Public)
	host.AddMethod(&introspect.Method{Name: "add", Mod: introspect.Public,
		Params: []introspect.Param{introspect.Concrete(introspect.Int), introspect.Concrete(introspect.Int)},
		Return: introspect.Concrete(introspect.Int)})
	host.AddMethod(&introspect.Method{Name: "helper", Mod: introspect.Private,
		Return: introspect.Concrete(introspect.Int)})
	host.AddMethod(&introspect.Method{Name: "counter", Mod: introspect.Public | introspect.Static,
		Return: introspect.Concrete(introspect.Int)})
	host.AddMethod(&introspect.Method{Name: "sealed", Mod: introspect.Public | introspect.Final,
		Return: introspect.Concrete(introspect.Int)})

	target, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)

	require.Equal(t,
		[]string{"add;int;int", "hashCode;", "equals;java.lang.Object", "clone;", "toString;"},
		names(target.Methods))
	assert.Empty(t, target.BridgeDelegates)
}

func TestNoFinalizer(t *testing.T) {
	host := introspect.NewClass("com.example.F", introspect.Public)
	host.AddMethod(&introspect.Method{Name: "finalize", Mod: introspect.Protected})

	target, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)
	assert.NotContains(t, names(target.Methods), "finalize;")
}

func TestPackagePrivateRegime(t *testing.T) {
	host := introspect.NewClass("com.example.P", introspect.Public)
	host.AddMethod(&introspect.Method{Name: "local"}) // package-private

	noAccess, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)
	assert.NotContains(t, names(noAccess.Methods), "local;")

	withAccess, err := Enhanceable(introspect.Model{}, host, true)
	require.NoError(t, err)
	assert.Contains(t, names(withAccess.Methods), "local;")
}

func TestOverrideCollapse(t *testing.T) {
	base := introspect.NewClass("com.example.Base", introspect.Public)
	base.AddMethod(&introspect.Method{Name: "run", Mod: introspect.Public})
	host := introspect.NewClass("com.example.Sub", introspect.Public)
	host.SetSuper(base)
	override := host.AddMethod(&introspect.Method{Name: "run", Mod: introspect.Public})

	target, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)

	var found *introspect.Method
	for _, m := range target.Methods {
		if m.Name == "run" {
			require.Nil(t, found, "run reported twice")
			found = m
		}
	}
	require.Same(t, override, found)
}

// comparatorHost builds class S implements Comparator<String> with the
// compiler-synthesised compare(Object,Object) bridge.
func comparatorHost(t *testing.T) (host *introspect.Class, typed, bridge *introspect.Method) {
	t.Helper()
	comparator := introspect.NewInterface("java.util.Comparator", introspect.Public).TypeVars("T")
	comparator.AddMethod(&introspect.Method{
		Name:   "compare",
		Mod:    introspect.Public | introspect.Abstract,
		Params: []introspect.Param{introspect.TypeVar("T", introspect.Object), introspect.TypeVar("T", introspect.Object)},
		Return: introspect.Concrete(introspect.Int),
	})

	host = introspect.NewClass("com.example.S", introspect.Public)
	host.AddInterface(comparator, introspect.Concrete(introspect.String))
	typed = host.AddMethod(&introspect.Method{
		Name:   "compare",
		Mod:    introspect.Public,
		Params: []introspect.Param{introspect.Concrete(introspect.String), introspect.Concrete(introspect.String)},
		Return: introspect.Concrete(introspect.Int),
	})
	bridge = host.AddMethod(&introspect.Method{
		Name:   "compare",
		Mod:    introspect.Public | introspect.Bridge | introspect.Synthetic,
		Params: []introspect.Param{introspect.Concrete(introspect.Object), introspect.Concrete(introspect.Object)},
		Return: introspect.Concrete(introspect.Int),
	})
	return host, typed, bridge
}

func TestComparatorBridge(t *testing.T) {
	host, typed, bridge := comparatorHost(t)

	target, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)

	var compares []*introspect.Method
	for _, m := range target.Methods {
		if m.Name == "compare" {
			compares = append(compares, m)
		}
	}
	require.Len(t, compares, 1, "exactly one enhanceable compare")
	require.Same(t, typed, compares[0])
	require.Same(t, typed, target.BridgeDelegates[bridge])
}

func TestCovariantReturnBridge(t *testing.T) {
	a := introspect.NewClass("com.example.A", introspect.Public)
	a.AddMethod(&introspect.Method{Name: "copy", Mod: introspect.Public, Return: introspect.Concrete(a)})

	b := introspect.NewClass("com.example.B", introspect.Public)
	b.SetSuper(a)
	bridge := b.AddMethod(&introspect.Method{
		Name: "copy", Mod: introspect.Public | introspect.Bridge | introspect.Synthetic,
		Return: introspect.Concrete(a),
	})
	covariant := b.AddMethod(&introspect.Method{
		Name: "copy", Mod: introspect.Public,
		Return: introspect.Concrete(b),
	})

	target, err := Enhanceable(introspect.Model{}, b, false)
	require.NoError(t, err)

	var copies []*introspect.Method
	for _, m := range target.Methods {
		if m.Name == "copy" {
			copies = append(copies, m)
		}
	}
	require.Len(t, copies, 1)
	require.Same(t, covariant, copies[0])
	require.Same(t, covariant, target.BridgeDelegates[bridge])
}

func TestDiamondInterfaceOrder(t *testing.T) {
	// sub-interface defaults shadow super-interface defaults, regardless of
	// declaration order on the host
	top := introspect.NewInterface("com.example.Top", introspect.Public)
	topRun := top.AddMethod(&introspect.Method{Name: "run", Mod: introspect.Public})
	left := introspect.NewInterface("com.example.Left", introspect.Public)
	left.AddInterface(top)
	leftRun := left.AddMethod(&introspect.Method{Name: "run", Mod: introspect.Public})

	host := introspect.NewClass("com.example.D", introspect.Public)
	host.AddInterface(top)
	host.AddInterface(left)

	target, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)

	var found *introspect.Method
	for _, m := range target.Methods {
		if m.Name == "run" {
			found = m
		}
	}
	require.Same(t, leftRun, found)
	_ = topRun
}

func TestIdempotence(t *testing.T) {
	host, _, _ := comparatorHost(t)
	first, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)
	second, err := Enhanceable(introspect.Model{}, host, false)
	require.NoError(t, err)

	require.Equal(t, names(first.Methods), names(second.Methods))
	for i := range first.Methods {
		require.Same(t, first.Methods[i], second.Methods[i])
	}
}

func TestRejectsNonClasses(t *testing.T) {
	_, err := Enhanceable(introspect.Model{}, nil, false)
	require.Error(t, err)
	iface := introspect.NewInterface("com.example.I", introspect.Public)
	_, err = Enhanceable(introspect.Model{}, iface, false)
	require.Error(t, err)
	_, err = Enhanceable(introspect.Model{}, introspect.Int, false)
	require.Error(t, err)
}
