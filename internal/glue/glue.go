// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package glue holds the emission helpers shared by the fast-class and
// enhancer generators: descriptor building, argument packing and unpacking
// with primitive boxing, and the naming scheme of generated members.
package glue

import (
	"fmt"
	"hash/fnv"

	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/introspect"
)

// Names of the members every glue class carries.
const (
	InvokersField  = "GLUE$INVOKERS"
	TrampolineName = "GLUE$TRAMPOLINE"
	BindName       = "glue$bind"
	HandlersField  = "glue$handlers"
)

// Descriptors of the well-known platform types glue links against.
const (
	ObjectDesc       = "Ljava/lang/Object;"
	ObjectArrayDesc  = "[Ljava/lang/Object;"
	MethodHandleDesc = "Ljava/lang/invoke/MethodHandle;"
	BiFunctionDesc   = "Ljava/util/function/BiFunction;"
	IntFunctionDesc  = "Ljava/util/function/IntFunction;"
	HandlerArrayDesc = "[Ljava/lang/reflect/InvocationHandler;"

	TrampolineDesc = "(ILjava/lang/Object;[Ljava/lang/Object;)Ljava/lang/Object;"
	ApplyDesc      = "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"
	InvokeDesc     = "(Ljava/lang/Object;Ljava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;"

	HandlerIface    = "java/lang/reflect/InvocationHandler"
	BiFunctionIface = "java/util/function/BiFunction"
	IntFunctionIface = "java/util/function/IntFunction"
	Metafactory     = "java/lang/invoke/LambdaMetafactory"
	MetafactoryDesc = "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;" +
		"Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodType;" +
		"Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)" +
		"Ljava/lang/invoke/CallSite;"
)

// MethodDescriptor builds the JVM descriptor for a parameter list and
// return type (nil return means void).
func MethodDescriptor(params []*introspect.Class, ret *introspect.Class) string {
	d := "("
	for _, p := range params {
		d += p.Descriptor()
	}
	d += ")"
	if ret == nil {
		d += "V"
	} else {
		d += ret.Descriptor()
	}
	return d
}

// SlotsOf returns the local-variable slots a parameter list consumes.
func SlotsOf(params []*introspect.Class) int {
	n := 0
	for _, p := range params {
		n += classfile.SlotWidth(p.Descriptor()[0])
	}
	return n
}

// UnpackArg emits: args[idx] with conversion to the declared parameter
// type. The argument array must be on top of the stack; the converted value
// replaces it.
func UnpackArg(m *classfile.Method, idx int, param *introspect.Class) {
	m.PushInt(idx)
	m.Op(classfile.OpAaload)
	ToDeclared(m, param)
}

// ToDeclared converts the Object on top of the stack to the declared type:
// checked cast to the boxed form plus the xValue accessor for primitives, a
// checked cast for reference types other than Object.
func ToDeclared(m *classfile.Method, t *introspect.Class) {
	if t.IsPrimitive() {
		b, ok := classfile.BoxingOf(t.Descriptor()[0])
		if !ok {
			panic(fmt.Sprintf("glue: no boxing for %s", t.Name()))
		}
		m.Type(classfile.OpCheckcast, b.Box)
		m.Invoke(classfile.OpInvokevirtual, b.Box, b.Unbox, b.UnboxDesc, false)
		return
	}
	if t != introspect.Object {
		m.Type(classfile.OpCheckcast, t.InternalName())
	}
}

// BoxReturn converts a value of declared type t on top of the stack into an
// Object and emits areturn; for void it pushes null first.
func BoxReturn(m *classfile.Method, t *introspect.Class) {
	switch {
	case t == nil || t == introspect.Void:
		m.Op(classfile.OpAconstNull)
	case t.IsPrimitive():
		b, _ := classfile.BoxingOf(t.Descriptor()[0])
		m.Invoke(classfile.OpInvokestatic, b.Box, "valueOf", b.ValueOfDesc, false)
	}
	m.Op(classfile.OpAreturn)
}

// UnboxReturn converts the Object on top of the stack to the method's
// declared return type and emits the matching return opcode: unbox for
// primitives, checked cast for references, pop for void.
func UnboxReturn(m *classfile.Method, t *introspect.Class) {
	if t == nil || t == introspect.Void {
		m.Op(classfile.OpPop)
		m.Op(classfile.OpReturn)
		return
	}
	ToDeclared(m, t)
	m.Op(classfile.ReturnOp(t.Descriptor()[0]))
}

// LoadParams emits loads for a parameter list starting at the given local
// slot, returning the next free slot.
func LoadParams(m *classfile.Method, params []*introspect.Class, slot int) int {
	for _, p := range params {
		d := p.Descriptor()[0]
		m.Var(classfile.LoadOp(d), slot)
		slot += classfile.SlotWidth(d)
	}
	return slot
}

// InvokeOp selects the invocation opcode for a host member: constructors
// and statics aside, interface hosts take invokeinterface, everything else
// invokevirtual.
func InvokeOp(m *introspect.Method) byte {
	switch {
	case m.IsStatic():
		return classfile.OpInvokestatic
	case m.Declaring().IsInterface():
		return classfile.OpInvokeinterface
	default:
		return classfile.OpInvokevirtual
	}
}

// ProxyHash derives the stable hex suffix for a generated class name from
// the host name and a discriminator.
func ProxyHash(host string, discriminator []byte) string {
	h := fnv.New32a()
	h.Write([]byte(host))
	h.Write(discriminator)
	return fmt.Sprintf("%08x", h.Sum32())
}
