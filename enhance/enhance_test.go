// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package enhance_test

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmglue/jvmglue"
	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/enhance"
	"github.com/jvmglue/jvmglue/interp"
	"github.com/jvmglue/jvmglue/introspect"
)

// calcHost builds com.example.Calc with add/sub int methods and a no-arg
// constructor, implemented on the machine.
func calcHost(t *testing.T, m *interp.Machine) (host *introspect.Class, add, sub *introspect.Method) {
	t.Helper()
	host = introspect.NewClass("com.example.Calc", introspect.Public)
	intParams := []introspect.Param{introspect.Concrete(introspect.Int), introspect.Concrete(introspect.Int)}
	add = host.AddMethod(&introspect.Method{Name: "add", Mod: introspect.Public,
		Params: intParams, Return: introspect.Concrete(introspect.Int)})
	sub = host.AddMethod(&introspect.Method{Name: "sub", Mod: introspect.Public,
		Params: intParams, Return: introspect.Concrete(introspect.Int)})
	host.AddConstructor(&introspect.Constructor{Mod: introspect.Public})

	m.Register(host)
	m.Implement(add, func(recv *interp.Object, args []any) (any, error) {
		return args[0].(int32) + args[1].(int32), nil
	})
	m.Implement(sub, func(recv *interp.Object, args []any) (any, error) {
		return args[0].(int32) - args[1].(int32), nil
	})
	return host, add, sub
}

func selectionOf(t *testing.T, b *enhance.Builder, methods ...*introspect.Method) *big.Int {
	t.Helper()
	bits := new(big.Int)
	all := b.EnhanceableMethods()
	for _, want := range methods {
		found := false
		for i, m := range all {
			if m == want {
				bits.SetBit(bits, i, 1)
				found = true
			}
		}
		require.True(t, found, "method %s not enhanceable", want.Name)
	}
	return bits
}

// construct builds an enhanced instance through the glue's constructor
// invoker.
func construct(t *testing.T, g enhance.Glue, handlers []any, ctorArgs ...any) *interp.Object {
	t.Helper()
	inv := g("<init>;")
	require.NotNil(t, inv)
	got, err := inv(nil, append([]any{handlers}, ctorArgs...))
	require.NoError(t, err)
	obj, ok := got.(*interp.Object)
	require.True(t, ok, "constructor returned %T", got)
	return obj
}

func TestMinimalEnhancer(t *testing.T) {
	m := interp.New()
	host, add, sub := calcHost(t, m)
	definer := classdef.New(m, classdef.TryUnsafeOrChild)

	b, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.NoError(t, err)

	g, err := b.Build(selectionOf(t, b, add))
	require.NoError(t, err)

	h := interp.HandlerFunc(func(proxy, method any, args []any) (any, error) {
		return interp.Int(42), nil
	})
	enhanced := construct(t, g, []any{h})

	got, err := m.CallVirtual(enhanced, add, []any{int32(1), int32(2)})
	require.NoError(t, err)
	assert.Equal(t, int32(42), got, "selected method is intercepted")

	got, err = m.CallVirtual(enhanced, sub, []any{int32(5), int32(2)})
	require.NoError(t, err)
	assert.Equal(t, int32(3), got, "non-selected method reaches the original")
}

func TestInterceptionRoundTrip(t *testing.T) {
	m := interp.New()
	host, add, _ := calcHost(t, m)
	definer := classdef.New(m, classdef.TryUnsafeOrChild)

	b, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.NoError(t, err)
	g, err := b.Build(selectionOf(t, b, add))
	require.NoError(t, err)

	var gotProxy, gotMethod any
	var gotArgs []any
	h := interp.HandlerFunc(func(proxy, method any, args []any) (any, error) {
		gotProxy, gotMethod, gotArgs = proxy, method, args
		return interp.Int(7), nil
	})
	enhanced := construct(t, g, []any{h})

	got, err := m.CallVirtual(enhanced, add, []any{int32(3), int32(4)})
	require.NoError(t, err)

	assert.Same(t, enhanced, gotProxy, "handler sees the enhanced receiver")
	assert.Nil(t, gotMethod, "method slot is null")
	require.Equal(t, []any{interp.Int(3), interp.Int(4)}, gotArgs, "arguments arrive boxed, in order")
	assert.Equal(t, int32(7), got, "handler result is unboxed to the declared return")
}

func TestInterceptionPropagatesError(t *testing.T) {
	m := interp.New()
	host, add, _ := calcHost(t, m)
	definer := classdef.New(m, classdef.TryUnsafeOrChild)

	b, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.NoError(t, err)
	g, err := b.Build(selectionOf(t, b, add))
	require.NoError(t, err)

	boom := errors.New("boom")
	enhanced := construct(t, g, []any{interp.HandlerFunc(func(_, _ any, _ []any) (any, error) {
		return nil, boom
	})})

	_, err = m.CallVirtual(enhanced, add, []any{int32(1), int32(1)})
	require.ErrorIs(t, err, boom, "handler exceptions propagate unchanged")
}

func TestSuperCallIsolation(t *testing.T) {
	m := interp.New()
	host, add, _ := calcHost(t, m)
	definer := classdef.New(m, classdef.TryUnsafeOrChild)

	b, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.NoError(t, err)
	g, err := b.Build(selectionOf(t, b, add))
	require.NoError(t, err)

	calls := 0
	enhanced := construct(t, g, []any{interp.HandlerFunc(func(_, _ any, _ []any) (any, error) {
		calls++
		return interp.Int(-1), nil
	})})

	inv := g("add;int;int")
	require.NotNil(t, inv)
	got, err := inv(enhanced, []any{interp.Int(2), interp.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, interp.Int(5), got, "trampoline reaches the original implementation")
	assert.Zero(t, calls, "super-call bypasses the interceptor")
}

func TestUnknownSignatureYieldsNil(t *testing.T) {
	m := interp.New()
	host, add, _ := calcHost(t, m)
	definer := classdef.New(m, classdef.TryUnsafeOrChild)

	b, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.NoError(t, err)
	g, err := b.Build(selectionOf(t, b, add))
	require.NoError(t, err)
	assert.Nil(t, g("missing;signature"))
}

func TestFinalHostRejected(t *testing.T) {
	m := interp.New()
	host := introspect.NewClass("com.example.Sealed", introspect.Public|introspect.Final)
	m.Register(host)
	definer := classdef.New(m, classdef.TryUnsafeOrChild)

	_, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	var hostErr *jvmglue.HostNotEnhanceableError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, jvmglue.HostFinal, hostErr.Reason)
}

func TestUnavailableDefinerRejected(t *testing.T) {
	m := interp.New()
	host, _, _ := calcHost(t, m)
	definer := classdef.New(m, classdef.Off)

	_, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.ErrorIs(t, err, classdef.ErrUnavailable)
}

func TestBuildIsCachedPerBitset(t *testing.T) {
	m := interp.New()
	host, add, sub := calcHost(t, m)
	counting := &countingPlatform{Machine: m}
	definer := classdef.New(counting, classdef.TryUnsafeOrChild)

	b, err := enhance.NewBuilder(definer, introspect.Model{}, host)
	require.NoError(t, err)

	sel := selectionOf(t, b, add)
	_, err = b.Build(sel)
	require.NoError(t, err)
	_, err = b.Build(new(big.Int).Set(sel))
	require.NoError(t, err)
	assert.Equal(t, 1, counting.defines, "equal bit-sets share one definition")

	_, err = b.Build(selectionOf(t, b, add, sub))
	require.NoError(t, err)
	assert.Equal(t, 2, counting.defines, "a different bit-set is a different class")
}
