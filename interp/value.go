// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import "fmt"

// Runtime values are represented as:
//
//	int32           int, short, char, byte, boolean
//	int64           long
//	float32/float64 float, double
//	string          java.lang.String
//	*Box            boxed primitives
//	*Object         class instances (model-backed or defined)
//	[]any           object arrays
//	nil             null
//
// plus the invoker-shaped Go functions produced for method handles and
// metafactory call sites.

// Box is a boxed primitive value. Kind is the primitive descriptor
// character; V holds the matching Go representation.
type Box struct {
	Kind byte
	V    any
}

func (b *Box) String() string { return fmt.Sprintf("box[%c]%v", b.Kind, b.V) }

func (b *Box) className() string {
	return boxClassNames[b.Kind]
}

var boxClassNames = map[byte]string{
	'I': "java/lang/Integer",
	'J': "java/lang/Long",
	'F': "java/lang/Float",
	'D': "java/lang/Double",
	'Z': "java/lang/Boolean",
	'B': "java/lang/Byte",
	'C': "java/lang/Character",
	'S': "java/lang/Short",
}

var boxKinds = func() map[string]byte {
	m := make(map[string]byte, len(boxClassNames))
	for k, v := range boxClassNames {
		m[v] = k
	}
	return m
}()

// Box constructors for test inputs and handler results.
func Int(v int32) *Box     { return &Box{Kind: 'I', V: v} }
func Long(v int64) *Box    { return &Box{Kind: 'J', V: v} }
func Float(v float32) *Box { return &Box{Kind: 'F', V: v} }
func Double(v float64) *Box { return &Box{Kind: 'D', V: v} }
func Boolean(v bool) *Box {
	i := int32(0)
	if v {
		i = 1
	}
	return &Box{Kind: 'Z', V: i}
}
func Byte(v int8) *Box   { return &Box{Kind: 'B', V: int32(v)} }
func Char(v uint16) *Box { return &Box{Kind: 'C', V: int32(v)} }
func Short(v int16) *Box { return &Box{Kind: 'S', V: int32(v)} }

// Object is a class instance. Instances of enhanced classes share the
// fields map with their model-backed superclass state.
type Object struct {
	class  *Class
	Fields map[string]any
}

// Class returns the instance's runtime class.
func (o *Object) Class() *Class { return o.class }

func (o *Object) String() string { return "instance of " + o.class.name }

// InvocationHandler is the handler surface enhanced methods dispatch to:
// the enhanced receiver, a nil method slot the core does not consume, and
// the boxed argument array.
type InvocationHandler interface {
	Invoke(proxy any, method any, args []any) (any, error)
}

// HandlerFunc adapts a function to InvocationHandler.
type HandlerFunc func(proxy any, method any, args []any) (any, error)

func (f HandlerFunc) Invoke(proxy any, method any, args []any) (any, error) {
	return f(proxy, method, args)
}

// Thrown is a platform exception crossing back into Go as an error.
type Thrown struct {
	ClassName string
	Message   string
	Value     any
}

func (t *Thrown) Error() string {
	if t.Message == "" {
		return "interp: thrown " + t.ClassName
	}
	return "interp: thrown " + t.ClassName + ": " + t.Message
}

// CastError is a failed checkcast.
type CastError struct {
	Value  any
	Target string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("interp: cannot cast %v to %s", e.Value, e.Target)
}
