// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package enhance builds enhancers: generated subclasses of a host class
// whose selected virtual methods dispatch through per-instance invocation
// handlers, while super-calls and construction route through a generated
// trampoline.
package enhance

import (
	"math/big"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jvmglue/jvmglue"
	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/internal/glue"
	"github.com/jvmglue/jvmglue/introspect"
	"github.com/jvmglue/jvmglue/resolve"
	"github.com/jvmglue/jvmglue/sigtrie"
)

var log = logrus.WithField("prefix", "enhance")

// Glue maps a member signature to its invoker. Constructor signatures
// construct the enhanced class: the first packed argument is the
// InvocationHandler array, the rest are the host constructor's arguments.
// Method signatures perform the genuine super-call on an enhanced instance,
// bypassing interceptors. Unknown signatures yield nil.
type Glue func(signature string) classdef.Invoker

// Builder prepares enhancers for one host. Builders are safe for
// concurrent use; builds for identical bit-sets are performed once.
type Builder struct {
	definer *classdef.Definer
	ix      introspect.Introspector
	host    *introspect.Class
	target  *resolve.Target
	ctors   []*introspect.Constructor

	mu    sync.Mutex
	built map[string]Glue
}

// builderCacheSize bounds the per-host builder cache.
const builderCacheSize = 256

var (
	buildersMu sync.Mutex
	builders   *lru.Cache
)

func init() {
	builders, _ = lru.New(builderCacheSize)
}

// BuilderFor returns the (cached) builder for a host.
func BuilderFor(definer *classdef.Definer, ix introspect.Introspector, host *introspect.Class) (*Builder, error) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	if b, ok := builders.Get(host); ok {
		return b.(*Builder), nil
	}
	b, err := NewBuilder(definer, ix, host)
	if err != nil {
		return nil, err
	}
	builders.Add(host, b)
	return b, nil
}

// NewBuilder resolves a host's enhanceable surface. It fails fast for
// hosts that cannot be subclassed and when class defining is unavailable.
func NewBuilder(definer *classdef.Definer, ix introspect.Introspector, host *introspect.Class) (*Builder, error) {
	if definer.Unavailable() {
		return nil, classdef.ErrUnavailable
	}
	if host.IsFinal() {
		return nil, &jvmglue.HostNotEnhanceableError{Host: host.Name(), Reason: jvmglue.HostFinal}
	}
	pkgAccess := definer.HasPackageAccess()
	if host.IsInterface() || host.IsPrimitive() || host.IsArray() ||
		(!host.IsPublic() && !pkgAccess) {
		return nil, &jvmglue.HostNotEnhanceableError{Host: host.Name(), Reason: jvmglue.HostForbidden}
	}

	target, err := resolve.Enhanceable(ix, host, pkgAccess)
	if err != nil {
		return nil, err
	}

	var ctors []*introspect.Constructor
	for _, c := range ix.DeclaredConstructors(host) {
		if c.Mod.Has(introspect.Private) {
			continue
		}
		if !c.Mod.Has(introspect.Public) && !c.Mod.Has(introspect.Protected) &&
			!(pkgAccess && introspect.SamePackage(c.Declaring(), host)) {
			continue
		}
		ctors = append(ctors, c)
	}

	return &Builder{
		definer: definer,
		ix:      ix,
		host:    host,
		target:  target,
		ctors:   ctors,
		built:   make(map[string]Glue),
	}, nil
}

// EnhanceableMethods returns the host's enhanceable methods. The returned
// slice is the index space for Build's bit-set and for the handler arrays
// passed to enhanced constructors (handlers are indexed by a method's
// position among the selected methods, in this order).
func (b *Builder) EnhanceableMethods() []*introspect.Method {
	return b.target.Methods
}

// BridgeDelegates exposes the bridge-to-delegate mapping of the resolved
// host.
func (b *Builder) BridgeDelegates() map[*introspect.Method]*introspect.Method {
	return b.target.BridgeDelegates
}

// Build returns the glue function for the given selection of enhanceable
// methods. Results are cached per bit-set; concurrent calls with an equal
// bit-set observe one build and share one function. Failed builds are not
// cached.
func (b *Builder) Build(selected *big.Int) (Glue, error) {
	key := string(selected.Bytes())

	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.built[key]; ok {
		return g, nil
	}
	g, err := b.build(selected)
	if err != nil {
		return nil, err
	}
	b.built[key] = g
	return g, nil
}

func (b *Builder) build(selected *big.Int) (Glue, error) {
	methods := b.target.Methods
	if selected.Sign() < 0 || selected.BitLen() > len(methods) {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseLayout, Host: b.host.Name(),
			Err: errors.Errorf("selection out of range for %d enhanceable methods", len(methods))}
	}

	l := &layout{
		host:      b.host,
		anonymous: b.definer.IsAnonymousHost(b.host),
		handler:   make(map[*introspect.Method]int),
		bridges:   make(map[*introspect.Method]*introspect.Method),
		ctors:     b.ctors,
	}
	for i, m := range methods {
		if selected.Bit(i) == 1 {
			l.handler[m] = len(l.selected)
			l.selected = append(l.selected, m)
		}
	}
	for bridge, delegate := range b.target.BridgeDelegates {
		if _, isSelected := l.handler[bridge]; !isSelected {
			l.bridges[bridge] = delegate
		}
	}
	l.proxyName = b.host.InternalName() + "$$GlueEnhancer$" +
		glue.ProxyHash(b.host.Name(), selected.Bytes())

	// trampoline index space: selected methods plus constructors, in
	// sorted-signature order
	for _, m := range l.selected {
		l.members = append(l.members, m)
	}
	for _, c := range l.ctors {
		l.members = append(l.members, c)
	}
	signatures := make([]string, len(l.members))
	for i, m := range l.members {
		signatures[i] = introspect.Signature(m)
	}
	sort.Sort(&bySignature{sigs: signatures, members: l.members})

	image, err := emit(l)
	if err != nil {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseEmit, Host: b.host.Name(), Proxy: l.proxyName, Err: err}
	}

	ref, err := b.definer.Define(b.host, image)
	if err != nil {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseVerify, Host: b.host.Name(), Proxy: l.proxyName, Err: err}
	}
	raw, err := ref.Static(glue.InvokersField)
	if err != nil {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseVerify, Host: b.host.Name(), Proxy: l.proxyName,
			Err: errors.Wrap(err, "reading invoker table")}
	}

	var table classdef.InvokerTable
	switch v := raw.(type) {
	case classdef.InvokerTable:
		table = v
	case classdef.Trampoline:
		table = func(i int) classdef.Invoker {
			return func(ctx any, args []any) (any, error) { return v(i, ctx, args) }
		}
	default:
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseVerify, Host: b.host.Name(), Proxy: l.proxyName,
			Err: errors.Errorf("unexpected invoker table shape %T", raw)}
	}

	log.WithFields(logrus.Fields{
		"host":  b.host.Name(),
		"proxy": l.proxyName,
	}).Debug("built enhancer")

	trie := sigtrie.Build(signatures)
	return func(sig string) classdef.Invoker {
		i := trie(sig)
		if i < 0 || i >= len(signatures) || signatures[i] != sig {
			return nil
		}
		return table(i)
	}, nil
}

// bySignature sorts the member list and its signatures in lockstep.
type bySignature struct {
	sigs    []string
	members []introspect.Member
}

func (s *bySignature) Len() int           { return len(s.sigs) }
func (s *bySignature) Less(i, j int) bool { return s.sigs[i] < s.sigs[j] }
func (s *bySignature) Swap(i, j int) {
	s.sigs[i], s.sigs[j] = s.sigs[j], s.sigs[i]
	s.members[i], s.members[j] = s.members[j], s.members[i]
}
