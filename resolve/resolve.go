// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve reproduces the platform's virtual method resolution over
// the introspect view: it walks a host's class and interface hierarchy,
// collapses overrides, pairs compiler-synthesised bridge methods with their
// real delegates, and reports the flat list of enhanceable methods.
package resolve

import (
	"golang.org/x/xerrors"

	"github.com/jvmglue/jvmglue/introspect"
)

// Target is the immutable resolution result for one host.
type Target struct {
	Host *introspect.Class

	// Methods are the enhanceable methods in deterministic traversal order:
	// every entry is a non-final, non-static instance method reachable by a
	// virtual call through the host type.
	Methods []*introspect.Method

	// BridgeDelegates maps each reachable bridge method to the non-bridge
	// method it delegates to. A bridge that is also in Methods is
	// intercepted directly; one that is not must be overridden to dispatch
	// virtually to its delegate.
	BridgeDelegates map[*introspect.Method]*introspect.Method
}

// Enhanceable resolves the host's enhanceable methods. packageAccess widens
// the visibility regime to package-private members declared in the host's
// package (set it from the class-definer's capability).
func Enhanceable(ix introspect.Introspector, host *introspect.Class, packageAccess bool) (*Target, error) {
	switch {
	case host == nil:
		return nil, xerrors.New("resolve: nil host")
	case host.IsPrimitive() || host.IsArray():
		return nil, xerrors.Errorf("resolve: %s is not a class", host.Name())
	case host.IsInterface():
		return nil, xerrors.Errorf("resolve: %s is an interface", host.Name())
	}

	r := &resolver{
		ix:            ix,
		host:          host,
		packageAccess: packageAccess,
		partitions:    make(map[partitionKey]any),
	}
	r.walkHierarchy()

	target := &Target{
		Host:            host,
		BridgeDelegates: make(map[*introspect.Method]*introspect.Method),
	}
	for _, key := range r.order {
		switch v := r.partitions[key].(type) {
		case *introspect.Method:
			if reportable(v) {
				target.Methods = append(target.Methods, v)
			}
		case *partition:
			v.resolve(r.ix, host, target)
		}
	}
	return target, nil
}

// partitionKey buckets methods by simple name and parameter arity.
type partitionKey struct {
	name  string
	arity int
}

type resolver struct {
	ix            introspect.Introspector
	host          *introspect.Class
	packageAccess bool

	partitions map[partitionKey]any // *introspect.Method or *partition
	order      []partitionKey
}

// walkHierarchy visits the host's strict ancestors up to the hierarchy
// root, then the root's overridable methods, then the merged interfaces.
func (r *resolver) walkHierarchy() {
	var ifaces []*introspect.Class

	cls := r.host
	for cls != nil {
		super := r.ix.Superclass(cls)
		if super == nil {
			// hierarchy root: only its overridable, non-finalisation methods
			for _, m := range r.ix.DeclaredMethods(cls) {
				if m.IsFinal() || m.Name == "finalize" {
					continue
				}
				if r.admits(m) {
					r.add(m)
				}
			}
			break
		}
		for _, m := range r.ix.DeclaredMethods(cls) {
			if r.admits(m) {
				r.add(m)
			}
		}
		ifaces = append(ifaces, r.ix.Interfaces(cls)...)
		cls = super
	}

	flat := flattenInterfaces(r.ix, ifaces)
	for _, iface := range flat {
		for _, m := range r.ix.DeclaredMethods(iface) {
			if r.admits(m) {
				r.add(m)
			}
		}
	}
}

// admits applies the visibility regime: public and protected instance
// methods always, package-private ones only with package access and only
// when declared in the host's package. Private and static members never,
// nor the finalisation hook wherever it is declared.
func (r *resolver) admits(m *introspect.Method) bool {
	if m.IsStatic() || m.IsPrivate() {
		return false
	}
	if m.Name == "finalize" && len(m.Params) == 0 {
		return false
	}
	if m.Mod.Has(introspect.Public) || m.Mod.Has(introspect.Protected) {
		return true
	}
	return r.packageAccess && introspect.SamePackage(m.Declaring(), r.host)
}

// add files a method under its partition, inflating the slot on the second
// arrival.
func (r *resolver) add(m *introspect.Method) {
	key := partitionKey{name: m.Name, arity: len(m.Params)}
	switch existing := r.partitions[key].(type) {
	case nil:
		r.partitions[key] = m
		r.order = append(r.order, key)
	case *introspect.Method:
		r.partitions[key] = &partition{members: []*introspect.Method{existing, m}}
	case *partition:
		existing.members = append(existing.members, m)
	}
}

// flattenInterfaces merges the collected direct interface declarations and
// their super-interfaces into a flat sub-before-super order, host-first.
// When an interface arrives after one of its super-interfaces is already in
// the flat list, it is inserted just before that super-interface, which keeps
// the sub-before-super ordering across diamond inheritance.
func flattenInterfaces(ix introspect.Introspector, work []*introspect.Class) []*introspect.Class {
	var flat []*introspect.Class
	for len(work) > 0 {
		iface := work[0]
		work = work[1:]

		if containsClass(flat, iface) {
			continue // already merged, along with its super-interfaces
		}
		inserted := false
		for i, existing := range flat {
			if existing.AssignableFrom(iface) {
				flat = append(flat, nil)
				copy(flat[i+1:], flat[i:])
				flat[i] = iface
				inserted = true
				break
			}
		}
		if !inserted {
			flat = append(flat, iface)
		}
		work = append(work, ix.Interfaces(iface)...)
	}
	return flat
}

func containsClass(list []*introspect.Class, c *introspect.Class) bool {
	for _, e := range list {
		if e == c {
			return true
		}
	}
	return false
}

// reportable applies the terminal filter for a directly reported leaf.
func reportable(m *introspect.Method) bool {
	return !m.IsFinal() && !m.IsBridge()
}
