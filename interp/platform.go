// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"github.com/pkg/errors"

	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/introspect"
)

// The machine is the class-definition surface the definer strategies probe
// and use.
var _ classdef.Platform = (*Machine)(nil)

// LoaderOf returns the host's loader identity; model classes with no
// explicit loader live in the boot loader.
func (m *Machine) LoaderOf(host *introspect.Class) classdef.Loader {
	if l, ok := host.Loader().(*ClassLoader); ok && l != nil {
		return l
	}
	return m.boot
}

// NewChildLoader creates a loader parented on the given one.
func (m *Machine) NewChildLoader(parent classdef.Loader) (classdef.Loader, error) {
	p, ok := parent.(*ClassLoader)
	if !ok {
		return nil, errors.Errorf("interp: foreign loader %T", parent)
	}
	return &ClassLoader{m: m, parent: p, className: p.className, classes: make(map[string]*Class)}, nil
}

// DefineClass links an image into a loader under its own name.
func (m *Machine) DefineClass(loader classdef.Loader, name string, image []byte) (classdef.ClassRef, error) {
	l, ok := loader.(*ClassLoader)
	if !ok {
		return nil, errors.Errorf("interp: foreign loader %T", loader)
	}
	k, err := m.link(l, image, false)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := l.classes[name]; dup {
		return nil, errors.Errorf("interp: duplicate class %s", name)
	}
	l.classes[name] = k
	return k, nil
}

func (m *Machine) HiddenCapable() bool { return m.Hidden }

// DefineHidden links an image without making it name-resolvable from its
// loader.
func (m *Machine) DefineHidden(host *introspect.Class, image []byte) (classdef.ClassRef, error) {
	if !m.Hidden {
		return nil, errors.New("interp: hidden definition disabled")
	}
	l, _ := m.LoaderOf(host).(*ClassLoader)
	return m.link(l, image, false)
}

func (m *Machine) AnonymousCapable() bool { return m.Anonymous }

// DefineAnonymous links an image anonymously: it is not name-resolvable from
// its loader and is marked anonymous. The interpreter does not check which
// name generated casts target.
func (m *Machine) DefineAnonymous(host *introspect.Class, image []byte) (classdef.ClassRef, error) {
	if !m.Anonymous {
		return nil, errors.New("interp: anonymous definition disabled")
	}
	l, _ := m.LoaderOf(host).(*ClassLoader)
	return m.link(l, image, true)
}

func (m *Machine) ShimCapable() bool { return m.Shim }

// DefineShim links a loader access shim.
func (m *Machine) DefineShim(loader classdef.Loader, image []byte) (classdef.ClassRef, error) {
	if !m.Shim {
		return nil, errors.New("interp: shim definition disabled")
	}
	l, ok := loader.(*ClassLoader)
	if !ok {
		return nil, errors.Errorf("interp: foreign loader %T", loader)
	}
	return m.link(l, image, false)
}

// DefineViaShim forwards a named definition through an installed shim.
func (m *Machine) DefineViaShim(shim classdef.ClassRef, loader classdef.Loader, name string, image []byte) (classdef.ClassRef, error) {
	if _, ok := shim.(*Class); !ok {
		return nil, errors.Errorf("interp: foreign shim %T", shim)
	}
	return m.DefineClass(loader, name, image)
}

// LoaderClassName keys the per-loader-class shim cache.
func (m *Machine) LoaderClassName(l classdef.Loader) string {
	if cl, ok := l.(*ClassLoader); ok {
		return cl.className
	}
	return "java.lang.ClassLoader"
}

// link parses an image and wires its superclass chain. The platform
// reports success only after the super chain resolves, which gives callers
// the required happens-before against later invoker-table reads.
func (m *Machine) link(l *ClassLoader, image []byte, anonymous bool) (*Class, error) {
	parsed, err := classfile.Parse(image)
	if err != nil {
		return nil, errors.Wrap(err, "linking image")
	}
	k := &Class{
		m:         m,
		name:      parsed.ThisClass,
		parsed:    parsed,
		loader:    l,
		anonymous: anonymous,
		statics:   make(map[string]any),
	}
	if parsed.SuperClass != "" && parsed.SuperClass != "java/lang/Object" {
		super, err := k.resolveClass(parsed.SuperClass)
		if err != nil {
			return nil, errors.Wrap(err, "resolving superclass")
		}
		k.super = super
	}
	return k, nil
}
