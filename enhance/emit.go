// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package enhance

import (
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/internal/glue"
	"github.com/jvmglue/jvmglue/introspect"
)

// layout is the resolved shape of one enhancer build: the members behind
// the trampoline in sorted-signature order, the handler index of each
// selected method, and the bridge overrides to synthesise.
type layout struct {
	host      *introspect.Class
	proxyName string
	anonymous bool

	members  []introspect.Member // trampoline order (sorted signatures)
	selected []*introspect.Method
	handler  map[*introspect.Method]int // selected method → handlers[] index
	bridges  map[*introspect.Method]*introspect.Method
	ctors    []*introspect.Constructor
}

// castTarget returns the internal name enhanced receivers are cast to
// inside the trampoline. Anonymously hosted proxies are not
// name-addressable, so casts go through the host instead.
func (l *layout) castTarget() string {
	if l.anonymous {
		return l.host.InternalName()
	}
	return l.proxyName
}

// emit produces the enhancer image.
func emit(l *layout) ([]byte, error) {
	hostName := l.host.InternalName()
	f := classfile.New(classfile.AccPublic|classfile.AccSuper, l.proxyName, hostName)

	f.AddField(classfile.AccPrivate|classfile.AccFinal, glue.HandlersField, glue.HandlerArrayDesc)
	invokersDesc := glue.IntFunctionDesc
	if l.anonymous {
		invokersDesc = glue.MethodHandleDesc
	}
	f.AddField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal,
		glue.InvokersField, invokersDesc)

	for _, ctor := range l.ctors {
		emitConstructor(f, l, ctor)
	}
	for _, m := range l.selected {
		emitInterceptedMethod(f, l, m)
	}
	for bridge, delegate := range l.bridges {
		emitBridgeDispatch(f, l, bridge, delegate)
	}
	emitTrampoline(f, l)
	emitClinit(f, l)

	return f.Bytes()
}

// emitConstructor emits the enhanced constructor for one host constructor:
// the handler array parameter is stored into the instance field before the
// super-constructor call, then the remaining arguments forward.
func emitConstructor(f *classfile.File, l *layout, ctor *introspect.Constructor) {
	params := ctor.ParameterTypes()
	enhanced := append([]*introspect.Class{handlerArrayClass}, params...)
	m := f.NewMethod(classfile.AccPublic, "<init>", glue.MethodDescriptor(enhanced, nil))

	m.Var(classfile.OpAload, 0)
	m.Var(classfile.OpAload, 1)
	m.Field(classfile.OpPutfield, l.proxyName, glue.HandlersField, glue.HandlerArrayDesc)

	m.Var(classfile.OpAload, 0)
	glue.LoadParams(m, params, 2)
	m.Invoke(classfile.OpInvokespecial, l.host.InternalName(), "<init>",
		glue.MethodDescriptor(params, nil), false)
	m.Op(classfile.OpReturn)
	m.SetMaxs(3+glue.SlotsOf(params), 2+glue.SlotsOf(params))
}

// emitInterceptedMethod emits the final override routing a selected method
// through its per-instance handler.
func emitInterceptedMethod(f *classfile.File, l *layout, target *introspect.Method) {
	params := target.ParameterTypes()
	ret := target.ReturnType()
	m := f.NewMethod(uint16(visibility(target.Mod))|classfile.AccFinal,
		target.Name, glue.MethodDescriptor(params, retOrNil(ret)))

	// handlers[i]
	m.Var(classfile.OpAload, 0)
	m.Field(classfile.OpGetfield, l.proxyName, glue.HandlersField, glue.HandlerArrayDesc)
	m.PushInt(l.handler[target])
	m.Op(classfile.OpAaload)

	// invoke(this, null, packed args)
	m.Var(classfile.OpAload, 0)
	m.Op(classfile.OpAconstNull)
	m.PushInt(len(params))
	m.Type(classfile.OpAnewarray, "java/lang/Object")
	slot := 1
	for j, p := range params {
		m.Op(classfile.OpDup)
		m.PushInt(j)
		d := p.Descriptor()[0]
		m.Var(classfile.LoadOp(d), slot)
		slot += classfile.SlotWidth(d)
		if p.IsPrimitive() {
			b, _ := classfile.BoxingOf(d)
			m.Invoke(classfile.OpInvokestatic, b.Box, "valueOf", b.ValueOfDesc, false)
		}
		m.Op(classfile.OpAastore)
	}
	m.Invoke(classfile.OpInvokeinterface, glue.HandlerIface, "invoke", glue.InvokeDesc, true)
	glue.UnboxReturn(m, ret)
	m.SetMaxs(8+glue.SlotsOf(params), 1+glue.SlotsOf(params))
}

// emitBridgeDispatch emits the override of an unselected bridge method that
// dispatches virtually to its delegate, so interceptors installed on the
// delegate cannot be bypassed through the bridge.
func emitBridgeDispatch(f *classfile.File, l *layout, bridge, delegate *introspect.Method) {
	bparams := bridge.ParameterTypes()
	dparams := delegate.ParameterTypes()
	bret := bridge.ReturnType()
	dret := delegate.ReturnType()

	m := f.NewMethod(uint16(visibility(bridge.Mod))|classfile.AccBridge|classfile.AccSynthetic,
		bridge.Name, glue.MethodDescriptor(bparams, retOrNil(bret)))

	m.Var(classfile.OpAload, 0)
	slot := 1
	for j, bp := range bparams {
		d := bp.Descriptor()[0]
		m.Var(classfile.LoadOp(d), slot)
		slot += classfile.SlotWidth(d)
		if bp != dparams[j] && !dparams[j].IsPrimitive() {
			m.Type(classfile.OpCheckcast, dparams[j].InternalName())
		}
	}
	op := glue.InvokeOp(delegate)
	m.Invoke(op, delegate.Declaring().InternalName(), delegate.Name,
		glue.MethodDescriptor(dparams, retOrNil(dret)), op == classfile.OpInvokeinterface)
	if bret != dret && !bret.IsPrimitive() && bret != introspect.Object && bret != introspect.Void {
		m.Type(classfile.OpCheckcast, bret.InternalName())
	}
	m.Op(classfile.ReturnOp(bret.Descriptor()[0]))
	m.SetMaxs(2+glue.SlotsOf(bparams), 1+glue.SlotsOf(bparams))
}

// emitTrampoline emits the static dispatcher: method cases perform the
// genuine super-call, constructor cases construct the enhanced class.
func emitTrampoline(f *classfile.File, l *layout) {
	m := f.NewMethod(classfile.AccPublic|classfile.AccStatic|classfile.AccSynthetic,
		glue.TrampolineName, glue.TrampolineDesc)

	dflt := m.NewLabel()
	if len(l.members) == 0 {
		m.Bind(dflt)
		emitBadIndex(f, m)
		m.SetMaxs(3, 3)
		return
	}
	targets := make([]*classfile.Label, len(l.members))
	for i := range targets {
		targets[i] = m.NewLabel()
	}

	m.Var(classfile.OpIload, 0)
	m.TableSwitch(dflt, targets)

	maxStack := 4
	for i, member := range l.members {
		m.Bind(targets[i])
		m.Frame(targets[i])
		switch mem := member.(type) {
		case *introspect.Constructor:
			params := mem.ParameterTypes()
			m.Type(classfile.OpNew, l.proxyName)
			m.Op(classfile.OpDup)
			m.Var(classfile.OpAload, 2)
			m.PushInt(0)
			m.Op(classfile.OpAaload)
			m.Type(classfile.OpCheckcast, glue.HandlerArrayDesc)
			for j, p := range params {
				m.Var(classfile.OpAload, 2)
				glue.UnpackArg(m, j+1, p)
			}
			enhanced := append([]*introspect.Class{handlerArrayClass}, params...)
			m.Invoke(classfile.OpInvokespecial, l.proxyName, "<init>",
				glue.MethodDescriptor(enhanced, nil), false)
			m.Op(classfile.OpAreturn)
			if peak := 5 + glue.SlotsOf(params); peak > maxStack {
				maxStack = peak
			}
		case *introspect.Method:
			params := mem.ParameterTypes()
			m.Var(classfile.OpAload, 1)
			m.Type(classfile.OpCheckcast, l.castTarget())
			for j, p := range params {
				m.Var(classfile.OpAload, 2)
				glue.UnpackArg(m, j, p)
			}
			// the genuine super-call, bypassing interceptors
			m.Invoke(classfile.OpInvokespecial, l.host.InternalName(), mem.Name,
				glue.MethodDescriptor(params, retOrNil(mem.ReturnType())), false)
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

// emitClinit binds the invoker table: the raw trampoline handle under
// anonymous hosting, a metafactory-built IntFunction over BiFunction-shaped
// invokers otherwise.
func emitClinit(f *classfile.File, l *layout) {
	cp := f.Pool()
	trampRef := cp.MethodRef(l.proxyName, glue.TrampolineName, glue.TrampolineDesc, false)
	trampHandle := cp.MethodHandle(classfile.RefInvokeStatic, trampRef)

	if l.anonymous {
		m := f.NewMethod(classfile.AccStatic, "<clinit>", "()V")
		m.Ldc(trampHandle)
		m.Field(classfile.OpPutstatic, l.proxyName, glue.InvokersField, glue.MethodHandleDesc)
		m.Op(classfile.OpReturn)
		m.SetMaxs(1, 0)
		return
	}

	metafactory := cp.MethodHandle(classfile.RefInvokeStatic,
		cp.MethodRef(glue.Metafactory, "metafactory", glue.MetafactoryDesc, false))

	bindDesc := "(I)" + glue.BiFunctionDesc
	bsmBind := f.AddBootstrap(metafactory,
		cp.MethodType(glue.ApplyDesc),
		trampHandle,
		cp.MethodType("(Ljava/lang/Object;[Ljava/lang/Object;)Ljava/lang/Object;"))

	bind := f.NewMethod(classfile.AccPrivate|classfile.AccStatic|classfile.AccSynthetic,
		glue.BindName, bindDesc)
	bind.Var(classfile.OpIload, 0)
	bind.InvokeDynamic("apply", bindDesc, bsmBind)
	bind.Op(classfile.OpAreturn)
	bind.SetMaxs(1, 1)

	bindHandle := cp.MethodHandle(classfile.RefInvokeStatic,
		cp.MethodRef(l.proxyName, glue.BindName, bindDesc, false))
	bsmTable := f.AddBootstrap(metafactory,
		cp.MethodType("(I)Ljava/lang/Object;"),
		bindHandle,
		cp.MethodType("(I)"+glue.BiFunctionDesc))

	m := f.NewMethod(classfile.AccStatic, "<clinit>", "()V")
	m.InvokeDynamic("apply", "()"+glue.IntFunctionDesc, bsmTable)
	m.Field(classfile.OpPutstatic, l.proxyName, glue.InvokersField, glue.IntFunctionDesc)
	m.Op(classfile.OpReturn)
	m.SetMaxs(1, 0)
}

// handlerArrayClass is the InvocationHandler[] parameter type of enhanced
// constructors.
var handlerArrayClass = introspect.ArrayOf(
	introspect.NewClass("java.lang.reflect.InvocationHandler", introspect.Public|introspect.Interface))

func visibility(mod introspect.Mod) introspect.Mod {
	return mod & (introspect.Public | introspect.Protected)
}

func retOrNil(ret *introspect.Class) *introspect.Class {
	if ret == introspect.Void {
		return nil
	}
	return ret
}
