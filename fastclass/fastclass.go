// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fastclass emits glue classes that invoke host constructors and
// methods directly, replacing reflective dispatch with a table-switched
// trampoline behind dense member indexes.
package fastclass

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/jvmglue/jvmglue"
	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/internal/glue"
	"github.com/jvmglue/jvmglue/introspect"
	"github.com/jvmglue/jvmglue/sigtrie"
)

// Table maps a member signature to its direct invoker, nil for signatures
// the host does not expose.
type Table func(signature string) classdef.Invoker

// hostCacheSize bounds the per-host table cache; the runtime has no weak
// references, so eviction stands in for key collection.
const hostCacheSize = 256

var (
	cacheMu sync.Mutex
	cache   *lru.Cache
)

func init() {
	cache, _ = lru.New(hostCacheSize)
}

// Build returns the fast-class table for a host, generating and defining
// the glue class on first use. Concurrent calls for one host observe a
// single build.
func Build(definer *classdef.Definer, ix introspect.Introspector, host *introspect.Class) (Table, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if t, ok := cache.Get(host); ok {
		return t.(Table), nil
	}
	t, err := build(definer, ix, host)
	if err != nil {
		return nil, err // failed builds are not cached
	}
	cache.Add(host, t)
	return t, nil
}

func build(definer *classdef.Definer, ix introspect.Introspector, host *introspect.Class) (Table, error) {
	members := fastMembers(ix, host, definer.HasPackageAccess())
	signatures := make([]string, len(members))
	for i, m := range members {
		signatures[i] = introspect.Signature(m)
	}
	sort.Strings(signatures)
	ordered := make([]introspect.Member, len(members))
	for _, m := range members {
		// reorder members into sorted-signature positions
		ordered[sort.SearchStrings(signatures, introspect.Signature(m))] = m
	}

	proxyName := host.InternalName() + "$$GlueFastClass$" + glue.ProxyHash(host.Name(), nil)
	image, err := emit(host, ordered, proxyName)
	if err != nil {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseEmit, Host: host.Name(), Proxy: proxyName, Err: err}
	}

	ref, err := definer.Define(host, image)
	if err != nil {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseVerify, Host: host.Name(), Proxy: proxyName, Err: err}
	}
	raw, err := ref.Static(glue.InvokersField)
	if err != nil {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseVerify, Host: host.Name(), Proxy: proxyName,
			Err: errors.Wrap(err, "reading invoker table")}
	}
	table, ok := raw.(classdef.InvokerTable)
	if !ok {
		return nil, &jvmglue.GenerationError{Phase: jvmglue.PhaseVerify, Host: host.Name(), Proxy: proxyName,
			Err: errors.Errorf("unexpected invoker table shape %T", raw)}
	}

	trie := sigtrie.Build(signatures)
	return func(sig string) classdef.Invoker {
		i := trie(sig)
		if i < 0 || i >= len(signatures) || signatures[i] != sig {
			return nil
		}
		return table(i)
	}, nil
}

// fastMembers collects the host's directly invocable declared members under
// the visibility regime: constructors and non-abstract, non-bridge methods.
func fastMembers(ix introspect.Introspector, host *introspect.Class, packageAccess bool) []introspect.Member {
	admit := func(mod introspect.Mod, declaring *introspect.Class) bool {
		switch {
		case mod.Has(introspect.Private):
			return false
		case mod.Has(introspect.Public):
			return true
		default:
			return packageAccess && introspect.SamePackage(declaring, host)
		}
	}

	var members []introspect.Member
	for _, c := range ix.DeclaredConstructors(host) {
		if admit(c.Mod, c.Declaring()) {
			members = append(members, c)
		}
	}
	for _, m := range ix.DeclaredMethods(host) {
		if m.IsAbstract() || m.IsBridge() {
			continue
		}
		if admit(m.Mod, m.Declaring()) {
			members = append(members, m)
		}
	}
	return members
}
