// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/introspect"
)

// invokeOnValue dispatches invokevirtual/invokeinterface on a runtime
// value: bytecode or model dispatch for instances, the unboxing accessors
// for boxes, and the functional surfaces glue links against.
func (m *Machine) invokeOnValue(recv any, ref classfile.RefConst, args []any) (any, error) {
	switch r := recv.(type) {
	case *Object:
		return m.invokeVirtual(r, ref.Name, ref.Desc)(args)
	case *Box:
		if b, ok := classfile.BoxingOf(r.Kind); ok && ref.Name == b.Unbox {
			return r.V, nil
		}
		return nil, errors.Errorf("interp: %s on %s", ref.Name, r)
	case InvocationHandler:
		if ref.Name == "invoke" {
			arr, _ := args[2].([]any)
			return r.Invoke(args[0], args[1], arr)
		}
		return nil, errors.Errorf("interp: %s on invocation handler", ref.Name)
	case classdef.Invoker:
		if ref.Name == "apply" {
			arr, _ := args[1].([]any)
			return r(args[0], arr)
		}
		return nil, errors.Errorf("interp: %s on invoker", ref.Name)
	case nil:
		return nil, &Thrown{ClassName: "java/lang/NullPointerException"}
	default:
		return nil, errors.Errorf("interp: cannot dispatch %s on %T", ref.Name, recv)
	}
}

// invokeVirtual resolves a (name, desc) pair along the receiver's class
// chain: bytecode overrides shadow model bodies exactly as a JVM's vtable
// would.
func (m *Machine) invokeVirtual(recv *Object, name, desc string) func([]any) (any, error) {
	for c := recv.class; c != nil; c = c.superClass() {
		if c.parsed != nil {
			if mi := c.parsed.Method(name, desc); mi != nil && mi.Access&classfile.AccStatic == 0 {
				cc, mm := c, mi
				return func(args []any) (any, error) {
					return m.execInstance(cc, mm, recv, args)
				}
			}
			continue
		}
		if c.model != nil {
			if impl := m.findImpl(c.model, name, desc); impl != nil {
				return func(args []any) (any, error) { return impl(recv, args) }
			}
		}
	}
	return func([]any) (any, error) {
		return nil, errors.Errorf("interp: no implementation of %s%s on %s", name, desc, recv.class.name)
	}
}

// findImpl looks up a registered Go body along a model class chain,
// interfaces included (default methods).
func (m *Machine) findImpl(c *introspect.Class, name, desc string) Impl {
	m.mu.Lock()
	defer m.mu.Unlock()
	var find func(c *introspect.Class) Impl
	find = func(c *introspect.Class) Impl {
		if c == nil {
			return nil
		}
		if impl, ok := m.impls[implKey{class: c, name: name, desc: desc}]; ok {
			return impl
		}
		if impl := find(c.Superclass()); impl != nil {
			return impl
		}
		for _, i := range c.Interfaces() {
			if impl := find(i); impl != nil {
				return impl
			}
		}
		return nil
	}
	return find(c)
}

// invokeSpecial handles constructor calls and the trampoline's genuine
// super-calls (resolution starts at the named owner, not the receiver's
// dynamic class).
func (m *Machine) invokeSpecial(k *Class, ref classfile.RefConst, recv any, args []any) (any, error) {
	obj, _ := recv.(*Object)
	if obj == nil {
		return nil, &Thrown{ClassName: "java/lang/NullPointerException"}
	}

	if ref.Name == "<init>" {
		owner, err := k.resolveClass(ref.Owner)
		if err != nil {
			if strings.HasPrefix(ref.Owner, "java/") {
				// built-in exception constructors: capture the message
				if len(args) == 1 {
					if s, ok := args[0].(string); ok {
						obj.Fields["message"] = s
					}
				}
				return nil, nil
			}
			return nil, err
		}
		if owner.parsed != nil {
			ctor := owner.parsed.Method("<init>", ref.Desc)
			if ctor == nil {
				return nil, errors.Errorf("interp: no constructor %s on %s", ref.Desc, owner.name)
			}
			return m.execInstance(owner, ctor, obj, args)
		}
		if owner.model != nil {
			m.mu.Lock()
			fn, ok := m.ctors[implKey{class: owner.model, name: "<init>", desc: ref.Desc}]
			m.mu.Unlock()
			if ok {
				return nil, fn(obj, args)
			}
		}
		return nil, nil // constructor with no registered body: no-op
	}

	owner, err := k.resolveClass(ref.Owner)
	if err != nil {
		return nil, err
	}
	return m.invokeFrom(owner, obj, ref.Name, ref.Desc, args)
}

// invokeFrom resolves starting at an explicit class, used for super-calls.
func (m *Machine) invokeFrom(start *Class, recv *Object, name, desc string, args []any) (any, error) {
	for c := start; c != nil; c = c.superClass() {
		if c.parsed != nil {
			if mi := c.parsed.Method(name, desc); mi != nil && mi.Access&classfile.AccStatic == 0 {
				return m.execInstance(c, mi, recv, args)
			}
			continue
		}
		if c.model != nil {
			if impl := m.findImpl(c.model, name, desc); impl != nil {
				return impl(recv, args)
			}
		}
	}
	return nil, errors.Errorf("interp: no implementation of %s%s from %s", name, desc, start.name)
}

// invokeStatic covers the boxing intrinsics and static glue methods.
func (m *Machine) invokeStatic(k *Class, ref classfile.RefConst, args []any) (any, error) {
	if kind, ok := boxKinds[ref.Owner]; ok && ref.Name == "valueOf" {
		return &Box{Kind: kind, V: args[0]}, nil
	}
	owner, err := k.resolveClass(ref.Owner)
	if err != nil {
		return nil, err
	}
	return m.callStatic(owner, ref.Name, ref.Desc, args)
}

func (m *Machine) callStatic(owner *Class, name, desc string, args []any) (any, error) {
	if owner.parsed == nil {
		if owner.model != nil {
			m.mu.Lock()
			impl, ok := m.impls[implKey{class: owner.model, name: name, desc: desc}]
			m.mu.Unlock()
			if ok {
				return impl(nil, args)
			}
		}
		return nil, errors.Errorf("interp: no static bytecode %s on %s", name, owner.name)
	}
	mi := owner.parsed.Method(name, desc)
	if mi == nil || mi.Access&classfile.AccStatic == 0 {
		return nil, errors.Errorf("interp: no static method %s%s on %s", name, desc, owner.name)
	}
	return m.exec(owner, mi, frameLocals(mi, desc, nil, args))
}

func (m *Machine) execInstance(c *Class, mi *classfile.MethodInfo, recv *Object, args []any) (any, error) {
	return m.exec(c, mi, frameLocals(mi, mi.Desc, recv, args))
}

// frameLocals lays arguments into local slots, honouring the two-slot
// width of long and double.
func frameLocals(mi *classfile.MethodInfo, desc string, recv *Object, args []any) []any {
	params, _, _ := classfile.ParseDescriptor(desc)
	size := int(mi.MaxLocals)
	need := len(args) + 2
	for _, p := range params {
		need += classfile.SlotWidth(p[0])
	}
	if size < need {
		size = need
	}
	locals := make([]any, size)
	slot := 0
	if recv != nil {
		locals[0] = recv
		slot = 1
	}
	for i, p := range params {
		if i < len(args) {
			locals[slot] = args[i]
		}
		slot += classfile.SlotWidth(p[0])
	}
	return locals
}

// allocate creates an instance for a new instruction, falling back to
// synthetic built-in classes for platform exception types.
func (m *Machine) allocate(k *Class, name string) (*Object, error) {
	if c, err := k.resolveClass(name); err == nil {
		return &Object{class: c, Fields: make(map[string]any)}, nil
	}
	if strings.HasPrefix(name, "java/") {
		return &Object{class: m.builtin(name), Fields: make(map[string]any)}, nil
	}
	return nil, errors.Errorf("interp: cannot allocate %s", name)
}

func (m *Machine) builtin(name string) *Class {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.builtins[name]; ok {
		return c
	}
	c := &Class{m: m, name: name, loader: m.boot, statics: make(map[string]any)}
	m.builtins[name] = c
	return c
}

// checkcast validates a cast target against a runtime value.
func (m *Machine) checkcast(k *Class, v any, target string) error {
	switch r := v.(type) {
	case nil:
		return nil
	case []any:
		if strings.HasPrefix(target, "[") || target == "java/lang/Object" {
			return nil
		}
	case string:
		if target == "java/lang/String" || target == "java/lang/Object" {
			return nil
		}
	case *Box:
		if target == r.className() || target == "java/lang/Object" || target == "java/lang/Number" {
			return nil
		}
	case *Object:
		if target == "java/lang/Object" {
			return nil
		}
		tc, err := k.resolveClass(target)
		if err != nil {
			return &CastError{Value: v, Target: target}
		}
		if r.class.assignableTo(tc) {
			return nil
		}
	default:
		// functional values (handlers, invokers) pass reference casts
		return nil
	}
	return &CastError{Value: v, Target: target}
}
