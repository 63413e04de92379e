// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fastclass

import (
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/internal/glue"
	"github.com/jvmglue/jvmglue/introspect"
)

// emit produces the fast-class image: a final BiFunction implementation
// with a bound index, a static trampoline switching over the members, and a
// constructor-derived method handle as the invoker table.
func emit(host *introspect.Class, members []introspect.Member, proxyName string) ([]byte, error) {
	f := classfile.New(classfile.AccFinal|classfile.AccSuper|classfile.AccSynthetic,
		proxyName, "java/lang/Object", glue.BiFunctionIface)

	f.AddField(classfile.AccPrivate|classfile.AccFinal, "index", "I")
	f.AddField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal,
		glue.InvokersField, glue.MethodHandleDesc)

	emitConstructor(f, proxyName)
	emitApply(f, proxyName)
	emitTrampoline(f, host, members)
	emitClinit(f, proxyName)

	return f.Bytes()
}

func emitConstructor(f *classfile.File, proxyName string) {
	m := f.NewMethod(classfile.AccPublic, "<init>", "(I)V")
	m.Var(classfile.OpAload, 0)
	m.Invoke(classfile.OpInvokespecial, "java/lang/Object", "<init>", "()V", false)
	m.Var(classfile.OpAload, 0)
	m.Var(classfile.OpIload, 1)
	m.Field(classfile.OpPutfield, proxyName, "index", "I")
	m.Op(classfile.OpReturn)
	m.SetMaxs(2, 2)
}

func emitApply(f *classfile.File, proxyName string) {
	m := f.NewMethod(classfile.AccPublic|classfile.AccFinal, "apply", glue.ApplyDesc)
	m.Var(classfile.OpAload, 0)
	m.Field(classfile.OpGetfield, proxyName, "index", "I")
	m.Var(classfile.OpAload, 1)
	m.Var(classfile.OpAload, 2)
	m.Type(classfile.OpCheckcast, glue.ObjectArrayDesc)
	m.Invoke(classfile.OpInvokestatic, proxyName, glue.TrampolineName, glue.TrampolineDesc, false)
	m.Op(classfile.OpAreturn)
	m.SetMaxs(3, 3)
}

func emitTrampoline(f *classfile.File, host *introspect.Class, members []introspect.Member) {
	m := f.NewMethod(classfile.AccPublic|classfile.AccStatic|classfile.AccSynthetic,
		glue.TrampolineName, glue.TrampolineDesc)

	dflt := m.NewLabel()
	if len(members) == 0 {
		m.Bind(dflt)
		emitBadIndex(f, m)
		m.SetMaxs(3, 3)
		return
	}
	targets := make([]*classfile.Label, len(members))
	for i := range targets {
		targets[i] = m.NewLabel()
	}

	m.Var(classfile.OpIload, 0)
	m.TableSwitch(dflt, targets)

	maxStack := 4
	hostName := host.InternalName()
	for i, member := range members {
		m.Bind(targets[i])
		m.Frame(targets[i])
		switch mem := member.(type) {
		case *introspect.Constructor:
			params := mem.ParameterTypes()
			m.Type(classfile.OpNew, hostName)
			m.Op(classfile.OpDup)
			for j, p := range params {
				m.Var(classfile.OpAload, 2)
				glue.UnpackArg(m, j, p)
			}
			m.Invoke(classfile.OpInvokespecial, hostName, "<init>",
				glue.MethodDescriptor(params, nil), false)
			m.Op(classfile.OpAreturn)
			if peak := 4 + glue.SlotsOf(params); peak > maxStack {
				maxStack = peak
			}
		case *introspect.Method:
			params := mem.ParameterTypes()
			if !mem.IsStatic() {
				m.Var(classfile.OpAload, 1)
				m.Type(classfile.OpCheckcast, hostName)
			}
			for j, p := range params {
				m.Var(classfile.OpAload, 2)
				glue.UnpackArg(m, j, p)
			}
			op := glue.InvokeOp(mem)
			owner := mem.Declaring().InternalName()
			m.Invoke(op, owner, mem.Name,
				glue.MethodDescriptor(params, returnOf(mem)),
				op == classfile.OpInvokeinterface)
			glue.BoxReturn(m, mem.ReturnType())
			if peak := 4 + glue.SlotsOf(params); peak > maxStack {
				maxStack = peak
			}
		}
	}

	m.Bind(dflt)
	m.Frame(dflt)
	emitBadIndex(f, m)
	m.SetMaxs(maxStack, 3)
}

// emitBadIndex raises IllegalArgumentException for out-of-range indexes.
func emitBadIndex(f *classfile.File, m *classfile.Method) {
	m.Type(classfile.OpNew, "java/lang/IllegalArgumentException")
	m.Op(classfile.OpDup)
	m.Ldc(f.Pool().String("unknown invoker index"))
	m.Invoke(classfile.OpInvokespecial, "java/lang/IllegalArgumentException",
		"<init>", "(Ljava/lang/String;)V", false)
	m.Op(classfile.OpAthrow)
}

// emitClinit binds the invoker table: a method handle adapted from the
// int constructor, so that handle(i) yields an invoker bound to i.
func emitClinit(f *classfile.File, proxyName string) {
	m := f.NewMethod(classfile.AccStatic, "<clinit>", "()V")
	ctorRef := f.Pool().MethodRef(proxyName, "<init>", "(I)V", false)
	handle := f.Pool().MethodHandle(classfile.RefNewInvokeSpecial, ctorRef)
	m.Ldc(handle)
	m.Field(classfile.OpPutstatic, proxyName, glue.InvokersField, glue.MethodHandleDesc)
	m.Op(classfile.OpReturn)
	m.SetMaxs(1, 0)
}

func returnOf(m *introspect.Method) *introspect.Class {
	if m.ReturnType() == introspect.Void {
		return nil
	}
	return m.ReturnType()
}
