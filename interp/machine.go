// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interp links and executes generated glue images in-process.
//
// A Machine is a miniature managed runtime over the introspect class model:
// model classes carry Go method bodies, defined classes carry parsed
// bytecode, and instances of an enhanced class mix both along the
// superclass chain. The machine implements classdef.Platform, so the whole
// generation pipeline (resolve, emit, define, link, read the invoker
// table) runs against it unchanged. It executes exactly the instruction
// subset the generators emit; anything else is a hard error, which keeps
// the interpreter honest as a test oracle for the emitters.
package interp

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/internal/glue"
	"github.com/jvmglue/jvmglue/introspect"
)

// Impl is a Go body for a model method. Primitive arguments arrive
// unboxed (int32, int64, float32, float64); reference arguments as their
// runtime values.
type Impl func(recv *Object, args []any) (any, error)

// CtorImpl is a Go body for a model constructor.
type CtorImpl func(recv *Object, args []any) error

type implKey struct {
	class *introspect.Class
	name  string
	desc  string
}

// Machine is the in-process runtime. The zero value is not usable; call
// New.
type Machine struct {
	mu       sync.Mutex
	boot     *ClassLoader
	models   map[string]*Class // internal name → model-backed class
	builtins map[string]*Class // synthetic java.* classes
	impls    map[implKey]Impl
	ctors    map[implKey]CtorImpl

	// Capability switches for the classdef.Platform surface. All default
	// to enabled.
	Hidden    bool
	Anonymous bool
	Shim      bool
}

// ClassLoader is a loader identity with a name table for defined classes.
type ClassLoader struct {
	m         *Machine
	parent    *ClassLoader
	className string
	classes   map[string]*Class
}

// Class is a runtime class: model-backed (a host class with Go bodies) or
// defined (parsed glue bytecode with a superclass chain ending in a
// model-backed class).
type Class struct {
	m      *Machine
	name   string
	model  *introspect.Class
	parsed *classfile.Parsed
	super  *Class
	loader *ClassLoader

	anonymous bool

	initOnce sync.Once
	initErr  error
	statics  map[string]any
}

var _ classdef.ClassRef = (*Class)(nil)

// New returns a machine with all definition capabilities enabled.
func New() *Machine {
	m := &Machine{
		models:    make(map[string]*Class),
		builtins:  make(map[string]*Class),
		impls:     make(map[implKey]Impl),
		ctors:     make(map[implKey]CtorImpl),
		Hidden:    true,
		Anonymous: true,
		Shim:      true,
	}
	m.boot = &ClassLoader{m: m, className: "java.lang.ClassLoader", classes: make(map[string]*Class)}
	m.Register(introspect.Object, introspect.String, introspect.Throwable)
	return m
}

// BootLoader returns the machine's root loader.
func (m *Machine) BootLoader() *ClassLoader { return m.boot }

// Find resolves a defined class by name through the loader chain, nil when
// the name is not resolvable (hidden and anonymous definitions never are).
func (l *ClassLoader) Find(name string) *Class {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	for cur := l; cur != nil; cur = cur.parent {
		if c, ok := cur.classes[name]; ok {
			return c
		}
	}
	return nil
}

// Register makes model classes (and, transitively, their supertypes and
// member types) resolvable from bytecode.
func (m *Machine) Register(classes ...*introspect.Class) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range classes {
		m.register(c)
	}
}

func (m *Machine) register(c *introspect.Class) {
	if c == nil || c.IsPrimitive() {
		return
	}
	if c.IsArray() {
		m.register(c.Elem())
		return
	}
	name := c.InternalName()
	if _, ok := m.models[name]; ok {
		return
	}
	m.models[name] = &Class{m: m, name: name, model: c, loader: m.boot, statics: make(map[string]any)}
	m.register(c.Superclass())
	for _, i := range c.Interfaces() {
		m.register(i)
	}
	for _, meth := range c.Methods() {
		for _, p := range meth.ParameterTypes() {
			m.register(p)
		}
		m.register(meth.ReturnType())
	}
	for _, ct := range c.Constructors() {
		for _, p := range ct.ParameterTypes() {
			m.register(p)
		}
	}
}

// Implement attaches a Go body to a model method.
func (m *Machine) Implement(meth *introspect.Method, fn Impl) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.register(meth.Declaring())
	m.impls[keyOfMethod(meth)] = fn
}

// ImplementConstructor attaches a Go body to a model constructor.
func (m *Machine) ImplementConstructor(ct *introspect.Constructor, fn CtorImpl) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.register(ct.Declaring())
	m.ctors[keyOfCtor(ct)] = fn
}

func keyOfMethod(meth *introspect.Method) implKey {
	return implKey{
		class: meth.Declaring(),
		name:  meth.Name,
		desc:  glue.MethodDescriptor(meth.ParameterTypes(), voidAsNil(meth.ReturnType())),
	}
}

func keyOfCtor(ct *introspect.Constructor) implKey {
	return implKey{
		class: ct.Declaring(),
		name:  "<init>",
		desc:  glue.MethodDescriptor(ct.ParameterTypes(), nil),
	}
}

func voidAsNil(c *introspect.Class) *introspect.Class {
	if c == introspect.Void {
		return nil
	}
	return c
}

// NewObject allocates an instance of a model class without running a
// constructor.
func (m *Machine) NewObject(c *introspect.Class) *Object {
	m.Register(c)
	m.mu.Lock()
	k := m.models[c.InternalName()]
	m.mu.Unlock()
	return &Object{class: k, Fields: make(map[string]any)}
}

// modelClass returns the runtime class for a registered model class.
func (m *Machine) modelClass(name string) *Class {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.models[name]
}

// CallVirtual dispatches a model method virtually on a receiver, entering
// bytecode overrides when the receiver is an enhanced instance.
func (m *Machine) CallVirtual(recv *Object, meth *introspect.Method, args []any) (any, error) {
	k := keyOfMethod(meth)
	return m.invokeVirtual(recv, k.name, k.desc)(args)
}

// Name implements classdef.ClassRef.
func (k *Class) Name() string { return k.name }

// Static implements classdef.ClassRef: it runs the class initialiser once
// and reads a static field.
func (k *Class) Static(field string) (any, error) {
	if err := k.ensureInit(); err != nil {
		return nil, err
	}
	v, ok := k.statics[field]
	if !ok {
		return nil, errors.Errorf("interp: no static field %s on %s", field, k.name)
	}
	return v, nil
}

func (k *Class) ensureInit() error {
	k.initOnce.Do(func() {
		if k.parsed == nil {
			return
		}
		clinit := k.parsed.Method("<clinit>", "()V")
		if clinit == nil {
			return
		}
		_, k.initErr = k.m.exec(k, clinit, make([]any, clinit.MaxLocals))
	})
	return k.initErr
}

// resolveClass resolves an internal name from the viewpoint of k: itself,
// its loader chain, the model registry, then the built-in platform names.
func (k *Class) resolveClass(name string) (*Class, error) {
	if name == k.name {
		return k, nil
	}
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	for l := k.loader; l != nil; l = l.parent {
		if c, ok := l.classes[name]; ok {
			return c, nil
		}
	}
	if c := k.m.models[name]; c != nil {
		return c, nil
	}
	return nil, errors.Errorf("interp: unresolvable class %s from %s", name, k.name)
}

// assignableTo reports whether an instance of k can stand where target is
// required.
func (k *Class) assignableTo(target *Class) bool {
	for c := k; c != nil; c = c.superClass() {
		if c == target {
			return true
		}
		if c.model != nil && target.model != nil {
			return target.model.AssignableFrom(c.model)
		}
	}
	return false
}

func (k *Class) superClass() *Class {
	if k.super != nil {
		return k.super
	}
	if k.model != nil && k.model.Superclass() != nil {
		return k.m.modelClass(k.model.Superclass().InternalName())
	}
	return nil
}
