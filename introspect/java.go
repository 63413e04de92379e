// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package introspect

// Built-in handles for the platform types the generators and resolver refer
// to. Object carries its real declared-method surface so hierarchy
// resolution sees the overridable top-type methods with their true
// modifiers.
var (
	Int    = newPrimitive("int", "I")
	Long   = newPrimitive("long", "J")
	Float  = newPrimitive("float", "F")
	Double = newPrimitive("double", "D")
	Bool   = newPrimitive("boolean", "Z")
	Byte   = newPrimitive("byte", "B")
	Char   = newPrimitive("char", "C")
	Short  = newPrimitive("short", "S")
	Void   = newPrimitive("void", "V")

	Object    = &Class{name: "java.lang.Object", mod: Public}
	String    = &Class{name: "java.lang.String", mod: Public | Final, super: &Extension{Class: Object}}
	Throwable = &Class{name: "java.lang.Throwable", mod: Public, super: &Extension{Class: Object}}
	ClassType = &Class{name: "java.lang.Class", mod: Public | Final, super: &Extension{Class: Object}}
)

func init() {
	for _, m := range []*Method{
		{Name: "getClass", Mod: Public | Final | Native, Return: Concrete(ClassType)},
		{Name: "hashCode", Mod: Public | Native, Return: Concrete(Int)},
		{Name: "equals", Mod: Public, Params: []Param{Concrete(Object)}, Return: Concrete(Bool)},
		{Name: "clone", Mod: Protected | Native, Return: Concrete(Object)},
		{Name: "toString", Mod: Public, Return: Concrete(String)},
		{Name: "notify", Mod: Public | Final | Native},
		{Name: "notifyAll", Mod: Public | Final | Native},
		{Name: "wait", Mod: Public | Final},
		{Name: "wait", Mod: Public | Final | Native, Params: []Param{Concrete(Long)}},
		{Name: "wait", Mod: Public | Final, Params: []Param{Concrete(Long), Concrete(Int)}},
		{Name: "finalize", Mod: Protected},
	} {
		Object.AddMethod(m)
	}
	Object.AddConstructor(&Constructor{Mod: Public})
}
