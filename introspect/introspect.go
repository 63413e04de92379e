// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package introspect provides the reflective metadata view the glue
// generators consume: class handles, executable members, modifier flags, and
// generic parameter resolution against a host type.
//
// The package carries a complete in-memory class model. Embedders bridging a
// live JVM populate the model from their own reflective source (JNI, JVMTI, a
// class-file index); the test suite and the bundled interpreter platform
// populate it directly. Either way the rest of the module only sees the
// Introspector interface and *Class handles.
package introspect

// Mod is a set of member or class modifier flags. The flag values match the
// class-file access_flags encoding so images can carry them through
// unchanged.
type Mod uint32

const (
	Public       Mod = 0x0001
	Private      Mod = 0x0002
	Protected    Mod = 0x0004
	Static       Mod = 0x0008
	Final        Mod = 0x0010
	Super        Mod = 0x0020 // class flag; same bit as Synchronized
	Synchronized Mod = 0x0020
	Bridge       Mod = 0x0040
	Varargs      Mod = 0x0080
	Native       Mod = 0x0100
	Interface    Mod = 0x0200
	Abstract     Mod = 0x0400
	Synthetic    Mod = 0x1000
)

// Has reports whether all flags in want are set.
func (m Mod) Has(want Mod) bool { return m&want == want }

// PackagePrivate reports default (package) visibility: none of the three
// explicit access flags.
func (m Mod) PackagePrivate() bool {
	return m&(Public|Private|Protected) == 0
}

// Introspector is the host runtime's reflective surface. Implementations
// must be safe for concurrent use; all methods are read-only queries.
type Introspector interface {
	// DeclaredMethods returns c's declared methods in declaration order,
	// including compiler-synthesised bridges.
	DeclaredMethods(c *Class) []*Method

	// DeclaredConstructors returns c's declared constructors in declaration
	// order.
	DeclaredConstructors(c *Class) []*Constructor

	// Superclass returns c's direct superclass, or nil for the hierarchy
	// root, interfaces, and primitives.
	Superclass(c *Class) *Class

	// Interfaces returns the interfaces c directly implements or extends.
	Interfaces(c *Class) []*Class

	// ResolveParameterTypes resolves m's generic parameter types against
	// host, yielding raw types. For a method declared with concrete types
	// this is m.ParameterTypes unchanged.
	ResolveParameterTypes(host *Class, m *Method) []*Class

	// ResolveReturnType resolves m's generic return type against host.
	ResolveReturnType(host *Class, m *Method) *Class
}

// Member is an executable member of a class: a *Method or a *Constructor.
type Member interface {
	Declaring() *Class
	ParameterTypes() []*Class
	Modifiers() Mod

	member()
}

// Method describes one declared method.
type Method struct {
	Name   string
	Params []Param
	Return Param
	Throws []*Class
	Mod    Mod

	declaring *Class
}

// Param is a declared parameter or return type: the raw (erased) class, plus
// the type-variable name when the declaration is generic.
type Param struct {
	Class *Class
	Var   string // "" when the declaration is concrete
}

// Concrete builds a Param with no type-variable component.
func Concrete(c *Class) Param { return Param{Class: c} }

// TypeVar builds a Param referencing a type variable of the declaring class,
// with the given erasure.
func TypeVar(name string, erasure *Class) Param {
	return Param{Class: erasure, Var: name}
}

func (m *Method) Declaring() *Class { return m.declaring }
func (m *Method) Modifiers() Mod    { return m.Mod }
func (m *Method) member()           {}

// ParameterTypes returns the raw (erased) parameter types.
func (m *Method) ParameterTypes() []*Class {
	out := make([]*Class, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Class
	}
	return out
}

// ReturnType returns the raw (erased) return type; Void for void methods.
func (m *Method) ReturnType() *Class {
	if m.Return.Class == nil {
		return Void
	}
	return m.Return.Class
}

func (m *Method) IsBridge() bool   { return m.Mod&Bridge != 0 }
func (m *Method) IsStatic() bool   { return m.Mod&Static != 0 }
func (m *Method) IsFinal() bool    { return m.Mod&Final != 0 }
func (m *Method) IsPrivate() bool  { return m.Mod&Private != 0 }
func (m *Method) IsAbstract() bool { return m.Mod&Abstract != 0 }

// Constructor describes one declared constructor.
type Constructor struct {
	Params []Param
	Throws []*Class
	Mod    Mod

	declaring *Class
}

func (c *Constructor) Declaring() *Class { return c.declaring }
func (c *Constructor) Modifiers() Mod    { return c.Mod }
func (c *Constructor) member()           {}

// ParameterTypes returns the raw (erased) parameter types.
func (c *Constructor) ParameterTypes() []*Class {
	out := make([]*Class, len(c.Params))
	for i, p := range c.Params {
		out[i] = p.Class
	}
	return out
}
