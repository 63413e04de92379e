// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteParseRoundTrip(t *testing.T) {
	f := New(AccPublic|AccSuper, "com/example/Gen", "java/lang/Object", "java/util/function/BiFunction")
	f.AddField(AccPrivate|AccFinal, "index", "I")

	m := f.NewMethod(AccPublic, "<init>", "(I)V")
	m.Var(OpAload, 0)
	m.Invoke(OpInvokespecial, "java/lang/Object", "<init>", "()V", false)
	m.Var(OpAload, 0)
	m.Var(OpIload, 1)
	m.Field(OpPutfield, "com/example/Gen", "index", "I")
	m.Op(OpReturn)
	m.SetMaxs(2, 2)

	image, err := f.Bytes()
	require.NoError(t, err)

	p, err := Parse(image)
	require.NoError(t, err)
	assert.Equal(t, uint16(MajorJava8), p.Major)
	assert.Equal(t, "com/example/Gen", p.ThisClass)
	assert.Equal(t, "java/lang/Object", p.SuperClass)
	assert.Equal(t, []string{"java/util/function/BiFunction"}, p.Interfaces)

	require.NotNil(t, p.Field("index"))
	assert.Equal(t, "I", p.Field("index").Desc)

	ctor := p.Method("<init>", "(I)V")
	require.NotNil(t, ctor)
	assert.Equal(t, uint16(2), ctor.MaxStack)
	assert.Equal(t, uint16(2), ctor.MaxLocals)
	assert.NotEmpty(t, ctor.Code)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
	_, err = Parse(nil)
	require.Error(t, err)
	_, err = Parse([]byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 30}) // pre-8 version
	require.Error(t, err)
}

func TestPushIntForms(t *testing.T) {
	tests := []struct {
		v    int
		want []byte
	}{
		{-1, []byte{OpIconstM1}},
		{0, []byte{OpIconst0}},
		{5, []byte{OpIconst5}},
		{6, []byte{OpBipush, 6}},
		{-100, []byte{OpBipush, 0x9c}},
		{200, []byte{OpSipush, 0x00, 0xc8}},
		{-30000, []byte{OpSipush, 0x8a, 0xd0}},
	}
	for _, tt := range tests {
		f := New(AccPublic, "T", "java/lang/Object")
		m := f.NewMethod(AccStatic, "t", "()V")
		m.PushInt(tt.v)
		assert.Equal(t, tt.want, append([]byte(nil), m.code...), "PushInt(%d)", tt.v)
	}
}

func TestPushIntLargeUsesPool(t *testing.T) {
	f := New(AccPublic, "T", "java/lang/Object")
	m := f.NewMethod(AccStatic, "t", "()V")
	m.PushInt(1 << 20)
	require.NotEmpty(t, m.code)
	assert.Equal(t, byte(OpLdc), m.code[0])
}

func TestVarForms(t *testing.T) {
	f := New(AccPublic, "T", "java/lang/Object")
	m := f.NewMethod(AccStatic, "t", "()V")
	m.Var(OpAload, 0)
	m.Var(OpIload, 3)
	m.Var(OpLload, 4)
	m.Var(OpAload, 300)
	want := []byte{
		OpAload0,
		OpIload0 + 3,
		OpLload, 4,
		OpWide, OpAload, 0x01, 0x2c,
	}
	assert.Equal(t, want, append([]byte(nil), m.code...))
}

func TestTableSwitchResolution(t *testing.T) {
	f := New(AccPublic, "T", "java/lang/Object")
	m := f.NewMethod(AccPublic|AccStatic, "t", "(I)I")
	dflt := m.NewLabel()
	c0, c1 := m.NewLabel(), m.NewLabel()
	m.Var(OpIload, 0)
	m.TableSwitch(dflt, []*Label{c0, c1})
	m.Bind(c0)
	m.Frame(c0)
	m.PushInt(10)
	m.Op(OpIreturn)
	m.Bind(c1)
	m.Frame(c1)
	m.PushInt(11)
	m.Op(OpIreturn)
	m.Bind(dflt)
	m.Frame(dflt)
	m.PushInt(-1)
	m.Op(OpIreturn)
	m.SetMaxs(1, 1)

	image, err := f.Bytes()
	require.NoError(t, err)
	p, err := Parse(image)
	require.NoError(t, err)
	require.NotNil(t, p.Method("t", "(I)I"))
}

func TestUnboundLabelFails(t *testing.T) {
	f := New(AccPublic, "T", "java/lang/Object")
	m := f.NewMethod(AccStatic, "t", "(I)V")
	m.Var(OpIload, 0)
	m.TableSwitch(m.NewLabel(), nil)
	m.SetMaxs(1, 1)
	_, err := f.Bytes()
	require.Error(t, err)
}

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		desc   string
		params []string
		ret    string
	}{
		{"()V", nil, "V"},
		{"(II)I", []string{"I", "I"}, "I"},
		{"(Ljava/lang/String;I)V", []string{"Ljava/lang/String;", "I"}, "V"},
		{"([Ljava/lang/Object;)Ljava/lang/Object;", []string{"[Ljava/lang/Object;"}, "Ljava/lang/Object;"},
		{"(J[ID)V", []string{"J", "[I", "D"}, "V"},
	}
	for _, tt := range tests {
		params, ret, err := ParseDescriptor(tt.desc)
		require.NoError(t, err, tt.desc)
		assert.Equal(t, tt.params, params, tt.desc)
		assert.Equal(t, tt.ret, ret, tt.desc)
	}
	_, _, err := ParseDescriptor("IV")
	require.Error(t, err)
}

func TestSlotCount(t *testing.T) {
	assert.Equal(t, 0, slotCount("()V"))
	assert.Equal(t, 2, slotCount("(II)I"))
	assert.Equal(t, 4, slotCount("(JD)V"))
	assert.Equal(t, 2, slotCount("(Ljava/lang/String;[J)V"))
}

func TestBoxing(t *testing.T) {
	b, ok := BoxingOf('I')
	require.True(t, ok)
	assert.Equal(t, "java/lang/Integer", b.Box)
	assert.Equal(t, "intValue", b.Unbox)
	_, ok = BoxingOf('L')
	assert.False(t, ok)
	assert.Equal(t, byte(OpLreturn), ReturnOp('J'))
	assert.Equal(t, byte(OpReturn), ReturnOp('V'))
	assert.Equal(t, byte(OpAreturn), ReturnOp('L'))
	assert.Equal(t, 2, SlotWidth('D'))
	assert.Equal(t, 1, SlotWidth('I'))
}
