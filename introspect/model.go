// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package introspect

// Model is the Introspector over the in-memory class model. It is stateless;
// the zero value is ready to use.
type Model struct{}

var _ Introspector = Model{}

func (Model) DeclaredMethods(c *Class) []*Method            { return c.Methods() }
func (Model) DeclaredConstructors(c *Class) []*Constructor  { return c.Constructors() }
func (Model) Superclass(c *Class) *Class                    { return c.Superclass() }
func (Model) Interfaces(c *Class) []*Class                  { return c.Interfaces() }

// ResolveParameterTypes resolves m's generic parameter types against host.
// A type variable with no binding reachable from host keeps its erasure.
func (Model) ResolveParameterTypes(host *Class, m *Method) []*Class {
	bind := bindings(host, m.Declaring())
	out := make([]*Class, len(m.Params))
	for i, p := range m.Params {
		out[i] = substitute(p, bind)
	}
	return out
}

// ResolveReturnType resolves m's generic return type against host.
func (Model) ResolveReturnType(host *Class, m *Method) *Class {
	if m.Return.Class == nil {
		return Void
	}
	return substitute(m.Return, bindings(host, m.Declaring()))
}

func substitute(p Param, bind map[string]*Class) *Class {
	if p.Var != "" {
		if c, ok := bind[p.Var]; ok && c != nil {
			return c
		}
	}
	return p.Class
}

// bindings computes the type-variable substitution for declaring's variables
// as instantiated along some extension path from host. Returns nil when
// declaring is unreachable or host extends it raw.
func bindings(host, declaring *Class) map[string]*Class {
	if host == declaring {
		return nil // the host's own variables stay unbound
	}
	return walkBindings(host, declaring, nil)
}

func walkBindings(cur, declaring *Class, bind map[string]*Class) map[string]*Class {
	if cur == nil {
		return nil
	}
	exts := make([]*Extension, 0, 1+len(cur.InterfaceExtensions()))
	if s := cur.SuperExtension(); s != nil {
		exts = append(exts, s)
	}
	exts = append(exts, cur.InterfaceExtensions()...)

	for _, ext := range exts {
		next := instantiate(ext, bind)
		if ext.Class == declaring {
			return next
		}
		if r := walkBindings(ext.Class, declaring, next); r != nil {
			return r
		}
	}
	return nil
}

// instantiate evaluates ext's type arguments under the current substitution
// and binds them to ext.Class's declared variables.
func instantiate(ext *Extension, bind map[string]*Class) map[string]*Class {
	vars := ext.Class.TypeVariables()
	if len(vars) == 0 || len(ext.Args) == 0 {
		return nil // raw extension: variables erase
	}
	next := make(map[string]*Class, len(vars))
	for i, v := range vars {
		if i >= len(ext.Args) {
			break
		}
		arg := ext.Args[i]
		if arg.Var != "" {
			if c, ok := bind[arg.Var]; ok {
				next[v] = c
			} else {
				next[v] = arg.Class // erasure of the forwarded variable
			}
		} else {
			next[v] = arg.Class
		}
	}
	return next
}
