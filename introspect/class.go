// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package introspect

import (
	"strings"
	"sync"
)

// Class is a handle to a class, interface, primitive, or array type of the
// host runtime. Handles are identity-comparable: two handles describe the
// same runtime type iff they are the same pointer.
type Class struct {
	name string // binary name: "java.lang.String", "int", "[Ljava.lang.String;"
	mod  Mod
	prim bool
	desc string // primitive descriptor char, "" otherwise
	elem *Class // array element type

	super   *Extension
	ifaces  []*Extension
	vars    []string // declared type variables, in order
	methods []*Method
	ctors   []*Constructor
	loader  any // opaque identity of the defining loader

	arrayOnce sync.Once
	array     *Class
}

// Extension records a direct supertype together with the type arguments
// applied to its type variables. Args is nil for a raw extension.
type Extension struct {
	Class *Class
	Args  []Param
}

// NewClass returns a new class handle extending Object. The name is the
// binary name ("com.example.Foo").
func NewClass(name string, mod Mod) *Class {
	return &Class{name: name, mod: mod, super: &Extension{Class: Object}}
}

// NewInterface returns a new interface handle. Interfaces have no
// superclass.
func NewInterface(name string, mod Mod) *Class {
	return &Class{name: name, mod: mod | Interface | Abstract}
}

func newPrimitive(name, desc string) *Class {
	return &Class{name: name, mod: Public | Final, prim: true, desc: desc}
}

// SetSuper replaces the superclass, optionally with type arguments bound to
// super's type variables in declaration order.
func (c *Class) SetSuper(super *Class, args ...Param) *Class {
	c.super = &Extension{Class: super, Args: args}
	return c
}

// AddInterface appends a directly implemented (or, for interfaces, extended)
// interface, optionally with type arguments.
func (c *Class) AddInterface(iface *Class, args ...Param) *Class {
	c.ifaces = append(c.ifaces, &Extension{Class: iface, Args: args})
	return c
}

// TypeVars declares the class's type variables in order.
func (c *Class) TypeVars(names ...string) *Class {
	c.vars = append(c.vars, names...)
	return c
}

// AddMethod appends a declared method and returns it.
func (c *Class) AddMethod(m *Method) *Method {
	m.declaring = c
	c.methods = append(c.methods, m)
	return m
}

// AddConstructor appends a declared constructor and returns it.
func (c *Class) AddConstructor(ct *Constructor) *Constructor {
	ct.declaring = c
	c.ctors = append(c.ctors, ct)
	return ct
}

// SetLoader records the identity of the class's defining loader.
func (c *Class) SetLoader(l any) *Class {
	c.loader = l
	return c
}

func (c *Class) Name() string   { return c.name }
func (c *Class) String() string { return c.name }
func (c *Class) Modifiers() Mod { return c.mod }
func (c *Class) Loader() any    { return c.loader }

func (c *Class) IsInterface() bool { return c.mod&Interface != 0 }
func (c *Class) IsFinal() bool     { return c.mod&Final != 0 }
func (c *Class) IsPublic() bool    { return c.mod&Public != 0 }
func (c *Class) IsPrimitive() bool { return c.prim }
func (c *Class) IsArray() bool     { return c.elem != nil }

// Elem returns the element type of an array class, nil otherwise.
func (c *Class) Elem() *Class { return c.elem }

// Superclass returns the direct superclass, nil for Object, interfaces,
// primitives, and arrays.
func (c *Class) Superclass() *Class {
	if c.super == nil {
		return nil
	}
	return c.super.Class
}

// SuperExtension returns the superclass extension with its type arguments.
func (c *Class) SuperExtension() *Extension { return c.super }

// Interfaces returns the directly implemented interfaces.
func (c *Class) Interfaces() []*Class {
	out := make([]*Class, len(c.ifaces))
	for i, e := range c.ifaces {
		out[i] = e.Class
	}
	return out
}

// InterfaceExtensions returns the direct interface extensions with type
// arguments.
func (c *Class) InterfaceExtensions() []*Extension { return c.ifaces }

// TypeVariables returns the declared type variables.
func (c *Class) TypeVariables() []string { return c.vars }

// Methods returns the declared methods in declaration order.
func (c *Class) Methods() []*Method { return c.methods }

// Constructors returns the declared constructors in declaration order.
func (c *Class) Constructors() []*Constructor { return c.ctors }

// PackageName returns the package component of the binary name, "" for the
// default package, primitives, and arrays.
func (c *Class) PackageName() string {
	if c.prim || c.elem != nil {
		return ""
	}
	if i := strings.LastIndexByte(c.name, '.'); i >= 0 {
		return c.name[:i]
	}
	return ""
}

// InternalName returns the slash-separated internal form of the binary name.
// For arrays this is the descriptor.
func (c *Class) InternalName() string {
	if c.elem != nil {
		return c.Descriptor()
	}
	return strings.ReplaceAll(c.name, ".", "/")
}

// Descriptor returns the field descriptor for the type.
func (c *Class) Descriptor() string {
	switch {
	case c.prim:
		return c.desc
	case c.elem != nil:
		return "[" + c.elem.Descriptor()
	default:
		return "L" + strings.ReplaceAll(c.name, ".", "/") + ";"
	}
}

// ArrayOf returns the array class with element type c. The result is
// memoised so array handles stay identity-comparable.
func ArrayOf(c *Class) *Class {
	c.arrayOnce.Do(func() {
		name := "[" + c.Descriptor()
		// binary names of arrays use dots inside the L form
		name = strings.ReplaceAll(name, "/", ".")
		c.array = &Class{name: name, mod: Public | Final, elem: c}
	})
	return c.array
}

// AssignableFrom reports whether a value of type t can be assigned to a
// variable of type c without conversion: t is c, or a subclass of c, or
// implements c.
func (c *Class) AssignableFrom(t *Class) bool {
	if t == nil {
		return false
	}
	if c == t {
		return true
	}
	if c.prim || t.prim {
		return false // widening conversions are not assignability here
	}
	if c == Object {
		return true
	}
	if c.elem != nil {
		return t.elem != nil && c.elem.AssignableFrom(t.elem)
	}
	if t.elem != nil {
		return false // arrays only assign to Object (handled above)
	}
	for s := t; s != nil; s = s.Superclass() {
		if s == c {
			return true
		}
		if c.IsInterface() && implementsTransitively(s, c) {
			return true
		}
	}
	return false
}

func implementsTransitively(t, iface *Class) bool {
	for _, i := range t.Interfaces() {
		if i == iface || implementsTransitively(i, iface) {
			return true
		}
	}
	return false
}

// SamePackage reports whether a and b share a package and a loader, the
// precondition for package-private access.
func SamePackage(a, b *Class) bool {
	return a.PackageName() == b.PackageName() && a.loader == b.loader
}
