// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/interp"
	"github.com/jvmglue/jvmglue/introspect"
)

// TestClinitExecution drives the write→define→initialise→read loop on a
// minimal hand-assembled class.
func TestClinitExecution(t *testing.T) {
	f := classfile.New(classfile.AccPublic|classfile.AccSuper, "com/example/K", "java/lang/Object")
	f.AddField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, "ANSWER", "Ljava/lang/Integer;")

	m := f.NewMethod(classfile.AccStatic, "<clinit>", "()V")
	m.PushInt(42)
	m.Invoke(classfile.OpInvokestatic, "java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;", false)
	m.Field(classfile.OpPutstatic, "com/example/K", "ANSWER", "Ljava/lang/Integer;")
	m.Op(classfile.OpReturn)
	m.SetMaxs(1, 0)

	image, err := f.Bytes()
	require.NoError(t, err)

	machine := interp.New()
	ref, err := machine.DefineClass(machine.BootLoader(), "com/example/K", image)
	require.NoError(t, err)

	v, err := ref.Static("ANSWER")
	require.NoError(t, err)
	assert.Equal(t, interp.Int(42), v)

	_, err = ref.Static("MISSING")
	require.Error(t, err)
}

func TestDuplicateDefinitionRejected(t *testing.T) {
	f := classfile.New(classfile.AccPublic, "com/example/Dup", "java/lang/Object")
	image, err := f.Bytes()
	require.NoError(t, err)

	machine := interp.New()
	_, err = machine.DefineClass(machine.BootLoader(), "com/example/Dup", image)
	require.NoError(t, err)
	_, err = machine.DefineClass(machine.BootLoader(), "com/example/Dup", image)
	require.Error(t, err)
}

func TestVirtualDispatchPrefersOverride(t *testing.T) {
	machine := interp.New()
	base := introspect.NewClass("com.example.Base", introspect.Public)
	run := base.AddMethod(&introspect.Method{Name: "run", Mod: introspect.Public,
		Return: introspect.Concrete(introspect.Int)})
	sub := introspect.NewClass("com.example.Sub", introspect.Public)
	sub.SetSuper(base)
	override := sub.AddMethod(&introspect.Method{Name: "run", Mod: introspect.Public,
		Return: introspect.Concrete(introspect.Int)})

	machine.Register(sub)
	machine.Implement(run, func(*interp.Object, []any) (any, error) { return int32(1), nil })
	machine.Implement(override, func(*interp.Object, []any) (any, error) { return int32(2), nil })

	got, err := machine.CallVirtual(machine.NewObject(sub), run, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), got)

	got, err = machine.CallVirtual(machine.NewObject(base), run, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got)
}
