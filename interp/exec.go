// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/internal/glue"
)

// exec runs one bytecode method to completion. Only the instruction subset
// the generators emit is implemented; an unknown opcode is a hard error.
func (m *Machine) exec(k *Class, mi *classfile.MethodInfo, locals []any) (any, error) {
	var stack []any
	push := func(v any) { stack = append(stack, v) }
	pop := func() any {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	popN := func(n int) []any {
		vals := make([]any, n)
		copy(vals, stack[len(stack)-n:])
		stack = stack[:len(stack)-n]
		return vals
	}

	code := mi.Code
	pc := 0
	u2at := func(at int) int { return int(binary.BigEndian.Uint16(code[at:])) }

	for pc < len(code) {
		op := code[pc]
		switch {
		case op == classfile.OpNop:
			pc++

		case op == classfile.OpAconstNull:
			push(nil)
			pc++

		case op >= classfile.OpIconstM1 && op <= classfile.OpIconst5:
			push(int32(op) - classfile.OpIconst0)
			pc++

		case op == classfile.OpBipush:
			push(int32(int8(code[pc+1])))
			pc += 2

		case op == classfile.OpSipush:
			push(int32(int16(binary.BigEndian.Uint16(code[pc+1:]))))
			pc += 3

		case op == classfile.OpLdc:
			v, err := m.constValue(k, int(code[pc+1]))
			if err != nil {
				return nil, err
			}
			push(v)
			pc += 2

		case op == classfile.OpLdcW:
			v, err := m.constValue(k, u2at(pc+1))
			if err != nil {
				return nil, err
			}
			push(v)
			pc += 3

		case op >= classfile.OpIload && op <= classfile.OpAload:
			push(locals[int(code[pc+1])])
			pc += 2

		case op >= classfile.OpIload0 && op < classfile.OpAload0+4:
			push(locals[int(op-classfile.OpIload0)%4])
			pc++

		case op == classfile.OpAstore:
			locals[int(code[pc+1])] = pop()
			pc += 2

		case op >= classfile.OpAstore0 && op < classfile.OpAstore0+4:
			locals[int(op-classfile.OpAstore0)] = pop()
			pc++

		case op == classfile.OpWide:
			inner := code[pc+1]
			idx := u2at(pc + 2)
			switch inner {
			case classfile.OpIload, classfile.OpLload, classfile.OpFload, classfile.OpDload, classfile.OpAload:
				push(locals[idx])
			case classfile.OpAstore:
				locals[idx] = pop()
			default:
				return nil, errors.Errorf("interp: wide form of opcode %#x unsupported", inner)
			}
			pc += 4

		case op == classfile.OpAaload:
			idx := int(pop().(int32))
			arr, ok := pop().([]any)
			if !ok {
				return nil, errors.New("interp: aaload on non-array")
			}
			if idx < 0 || idx >= len(arr) {
				return nil, &Thrown{ClassName: "java/lang/ArrayIndexOutOfBoundsException"}
			}
			push(arr[idx])
			pc++

		case op == classfile.OpAastore:
			v := pop()
			idx := int(pop().(int32))
			arr, ok := pop().([]any)
			if !ok {
				return nil, errors.New("interp: aastore on non-array")
			}
			if idx < 0 || idx >= len(arr) {
				return nil, &Thrown{ClassName: "java/lang/ArrayIndexOutOfBoundsException"}
			}
			arr[idx] = v
			pc++

		case op == classfile.OpAnewarray:
			n := int(pop().(int32))
			push(make([]any, n))
			pc += 3

		case op == classfile.OpDup:
			push(stack[len(stack)-1])
			pc++

		case op == classfile.OpPop:
			pop()
			pc++

		case op == classfile.OpTableswitch:
			base := pc
			pc++
			for pc%4 != 0 {
				pc++
			}
			dflt := int(int32(binary.BigEndian.Uint32(code[pc:])))
			low := int(int32(binary.BigEndian.Uint32(code[pc+4:])))
			high := int(int32(binary.BigEndian.Uint32(code[pc+8:])))
			index := int(pop().(int32))
			if index < low || index > high {
				pc = base + dflt
			} else {
				off := int(int32(binary.BigEndian.Uint32(code[pc+12+4*(index-low):])))
				pc = base + off
			}

		case op == classfile.OpIreturn, op == classfile.OpLreturn, op == classfile.OpFreturn,
			op == classfile.OpDreturn, op == classfile.OpAreturn:
			return pop(), nil

		case op == classfile.OpReturn:
			return nil, nil

		case op == classfile.OpGetfield:
			ref := m.refAt(k, u2at(pc+1))
			o, ok := pop().(*Object)
			if !ok {
				return nil, errors.Errorf("interp: getfield %s on non-object", ref.Name)
			}
			push(o.Fields[ref.Name])
			pc += 3

		case op == classfile.OpPutfield:
			ref := m.refAt(k, u2at(pc+1))
			v := pop()
			o, ok := pop().(*Object)
			if !ok {
				return nil, errors.Errorf("interp: putfield %s on non-object", ref.Name)
			}
			o.Fields[ref.Name] = v
			pc += 3

		case op == classfile.OpGetstatic:
			ref := m.refAt(k, u2at(pc+1))
			owner, err := k.resolveClass(ref.Owner)
			if err != nil {
				return nil, err
			}
			if owner != k {
				if err := owner.ensureInit(); err != nil {
					return nil, err
				}
			}
			push(owner.statics[ref.Name])
			pc += 3

		case op == classfile.OpPutstatic:
			ref := m.refAt(k, u2at(pc+1))
			owner, err := k.resolveClass(ref.Owner)
			if err != nil {
				return nil, err
			}
			owner.statics[ref.Name] = pop()
			pc += 3

		case op == classfile.OpNew:
			cc, _ := k.parsed.Const(u2at(pc + 1)).(classfile.ClassConst)
			obj, err := m.allocate(k, cc.Name)
			if err != nil {
				return nil, err
			}
			push(obj)
			pc += 3

		case op == classfile.OpCheckcast:
			cc, _ := k.parsed.Const(u2at(pc + 1)).(classfile.ClassConst)
			if err := m.checkcast(k, stack[len(stack)-1], cc.Name); err != nil {
				return nil, err
			}
			pc += 3

		case op == classfile.OpInstanceof:
			cc, _ := k.parsed.Const(u2at(pc + 1)).(classfile.ClassConst)
			v := pop()
			if v != nil && m.checkcast(k, v, cc.Name) == nil {
				push(int32(1))
			} else {
				push(int32(0))
			}
			pc += 3

		case op == classfile.OpAthrow:
			v := pop()
			switch t := v.(type) {
			case *Object:
				msg, _ := t.Fields["message"].(string)
				return nil, &Thrown{ClassName: t.class.name, Message: msg, Value: t}
			case error:
				return nil, t
			default:
				return nil, errors.Errorf("interp: athrow of %T", v)
			}

		case op == classfile.OpInvokestatic:
			ref := m.refAt(k, u2at(pc+1))
			params, _, err := classfile.ParseDescriptor(ref.Desc)
			if err != nil {
				return nil, err
			}
			args := popN(len(params))
			v, err := m.invokeStatic(k, ref, args)
			if err != nil {
				return nil, err
			}
			if retOf(ref.Desc) != "V" {
				push(v)
			}
			pc += 3

		case op == classfile.OpInvokevirtual, op == classfile.OpInvokespecial:
			ref := m.refAt(k, u2at(pc+1))
			params, _, err := classfile.ParseDescriptor(ref.Desc)
			if err != nil {
				return nil, err
			}
			args := popN(len(params))
			recv := pop()
			var v any
			if op == classfile.OpInvokespecial {
				v, err = m.invokeSpecial(k, ref, recv, args)
			} else {
				v, err = m.invokeOnValue(recv, ref, args)
			}
			if err != nil {
				return nil, err
			}
			if ref.Name != "<init>" && retOf(ref.Desc) != "V" {
				push(v)
			}
			pc += 3

		case op == classfile.OpInvokeinterface:
			ref := m.refAt(k, u2at(pc+1))
			params, _, err := classfile.ParseDescriptor(ref.Desc)
			if err != nil {
				return nil, err
			}
			args := popN(len(params))
			recv := pop()
			v, err := m.invokeOnValue(recv, ref, args)
			if err != nil {
				return nil, err
			}
			if retOf(ref.Desc) != "V" {
				push(v)
			}
			pc += 5

		case op == classfile.OpInvokedynamic:
			dc, _ := k.parsed.Const(u2at(pc + 1)).(classfile.DynamicConst)
			v, err := m.invokeDynamic(k, dc, &stack)
			if err != nil {
				return nil, err
			}
			push(v)
			pc += 5

		default:
			return nil, errors.Errorf("interp: opcode %#x unsupported in %s.%s", op, k.name, mi.Name)
		}
	}
	return nil, errors.Errorf("interp: fell off code in %s.%s", k.name, mi.Name)
}

func retOf(desc string) string {
	_, ret, err := classfile.ParseDescriptor(desc)
	if err != nil {
		return "V"
	}
	return ret
}

func (m *Machine) refAt(k *Class, idx int) classfile.RefConst {
	ref, _ := k.parsed.Const(idx).(classfile.RefConst)
	return ref
}

// constValue resolves an ldc operand, converting method-handle constants
// into the invoker shapes the drivers consume.
func (m *Machine) constValue(k *Class, idx int) (any, error) {
	switch c := k.parsed.Const(idx).(type) {
	case int32:
		return c, nil
	case classfile.StringConst:
		return c.Value, nil
	case classfile.HandleConst:
		return m.handleValue(k, c)
	default:
		return nil, errors.Errorf("interp: unsupported ldc constant %T", c)
	}
}

// handleValue materialises a method-handle constant. The two shapes the
// generators load are the static trampoline (the raw invoker table under
// anonymous hosting) and the fast-class int constructor (an index-bound
// invoker factory).
func (m *Machine) handleValue(k *Class, h classfile.HandleConst) (any, error) {
	owner, err := k.resolveClass(h.Ref.Owner)
	if err != nil {
		return nil, err
	}
	switch {
	case h.Kind == classfile.RefInvokeStatic && h.Ref.Desc == glue.TrampolineDesc:
		name := h.Ref.Name
		return classdef.Trampoline(func(i int, ctx any, args []any) (any, error) {
			return m.callStatic(owner, name, glue.TrampolineDesc, []any{int32(i), ctx, args})
		}), nil
	case h.Kind == classfile.RefNewInvokeSpecial && h.Ref.Desc == "(I)V":
		return classdef.InvokerTable(func(i int) classdef.Invoker {
			return func(ctx any, args []any) (any, error) {
				obj := &Object{class: owner, Fields: make(map[string]any)}
				ctor := owner.parsed.Method("<init>", "(I)V")
				if ctor == nil {
					return nil, errors.Errorf("interp: %s has no (I)V constructor", owner.name)
				}
				locals := make([]any, ctor.MaxLocals)
				locals[0], locals[1] = obj, int32(i)
				if _, err := m.exec(owner, ctor, locals); err != nil {
					return nil, err
				}
				return m.invokeVirtual(obj, "apply", glue.ApplyDesc)([]any{ctx, args})
			}
		}), nil
	default:
		return nil, errors.Errorf("interp: unsupported method handle kind %d to %s.%s", h.Kind, h.Ref.Owner, h.Ref.Name)
	}
}

// invokeDynamic links a metafactory call site into one of the invoker
// shapes, consuming captured stack arguments.
func (m *Machine) invokeDynamic(k *Class, dc classfile.DynamicConst, stack *[]any) (any, error) {
	if dc.Bootstrap < 0 || dc.Bootstrap >= len(k.parsed.Bootstraps) {
		return nil, errors.Errorf("interp: bad bootstrap index %d", dc.Bootstrap)
	}
	bs := k.parsed.Bootstraps[dc.Bootstrap]
	if bs.Handle.Ref.Owner != glue.Metafactory {
		return nil, errors.Errorf("interp: unsupported bootstrap %s", bs.Handle.Ref.Owner)
	}
	if len(bs.Args) != 3 {
		return nil, errors.New("interp: malformed metafactory arguments")
	}
	impl, ok := bs.Args[1].(classfile.HandleConst)
	if !ok {
		return nil, errors.New("interp: malformed metafactory implementation handle")
	}
	owner, err := k.resolveClass(impl.Ref.Owner)
	if err != nil {
		return nil, err
	}

	switch dc.Desc {
	case "(I)" + glue.BiFunctionDesc:
		// one captured int: a trampoline-backed BiFunction bound to it
		s := *stack
		captured, ok := s[len(s)-1].(int32)
		if !ok {
			return nil, errors.New("interp: expected captured int")
		}
		*stack = s[:len(s)-1]
		name, desc := impl.Ref.Name, impl.Ref.Desc
		return classdef.Invoker(func(ctx any, args []any) (any, error) {
			return m.callStatic(owner, name, desc, []any{captured, ctx, args})
		}), nil

	case "()" + glue.IntFunctionDesc:
		name, desc := impl.Ref.Name, impl.Ref.Desc
		return classdef.InvokerTable(func(i int) classdef.Invoker {
			v, err := m.callStatic(owner, name, desc, []any{int32(i)})
			if err != nil {
				return func(any, []any) (any, error) { return nil, err }
			}
			inv, ok := v.(classdef.Invoker)
			if !ok {
				return func(any, []any) (any, error) {
					return nil, errors.Errorf("interp: bind yielded %T", v)
				}
			}
			return inv
		}), nil

	default:
		return nil, errors.Errorf("interp: unsupported call site %s", dc.Desc)
	}
}
