// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"strings"

	"github.com/jvmglue/jvmglue/introspect"
)

// partition is the staging bucket for methods sharing (name, arity). It is
// created on the second arrival for a key and discarded after resolution.
type partition struct {
	members []*introspect.Method // traversal order
}

// fingerprint keys a method by its raw parameter types within a partition.
func fingerprint(m *introspect.Method) string {
	var sb strings.Builder
	for _, p := range m.ParameterTypes() {
		sb.WriteString(p.Name())
		sb.WriteByte(',')
	}
	return sb.String()
}

// resolve runs the two-pass leaf/report scheme over the partition and
// appends results to the target.
func (p *partition) resolve(ix introspect.Introspector, host *introspect.Class, target *Target) {
	leaves := make(map[string]*introspect.Method)
	bridgeTargets := make(map[string]*introspect.Method)
	var order []string

	// Pass 1: install leaves in traversal order; remember, per fingerprint,
	// the first non-bridge method shadowed by a bridge leaf (the potential
	// super-target).
	for _, m := range p.members {
		fp := fingerprint(m)
		leaf, seen := leaves[fp]
		if !seen {
			leaves[fp] = m
			order = append(order, fp)
			if m.IsBridge() {
				bridgeTargets[fp] = nil // open slot
			}
			continue
		}
		if leaf.IsBridge() && !m.IsBridge() {
			if t, open := bridgeTargets[fp]; open && t == nil {
				bridgeTargets[fp] = m
			}
		}
	}

	// Pass 2: report.
	reported := make(map[*introspect.Method]bool)
	for _, fp := range order {
		leaf := leaves[fp]
		if leaf.IsFinal() {
			delete(bridgeTargets, fp)
			continue
		}
		if !leaf.IsBridge() {
			if !reported[leaf] {
				reported[leaf] = true
				target.Methods = append(target.Methods, leaf)
			}
			continue
		}
		p.resolveBridge(ix, host, target, leaf, bridgeTargets[fp], leaves, reported)
	}
}

// resolveBridge pairs a bridge leaf with its delegate and decides what, if
// anything, to report for it.
func (p *partition) resolveBridge(
	ix introspect.Introspector,
	host *introspect.Class,
	target *Target,
	bridge *introspect.Method,
	superTarget *introspect.Method,
	leaves map[string]*introspect.Method,
	reported map[*introspect.Method]bool,
) {
	bridgeParams := bridge.ParameterTypes()

	var delegate *introspect.Method
	for _, candidate := range p.members {
		if candidate.IsBridge() {
			continue
		}
		var match bool
		if superTarget == nil {
			// The bridge's raw parameters erase the candidate's generically
			// resolved ones: each must be assignable from its counterpart.
			match = erasureMatch(bridgeParams, ix.ResolveParameterTypes(host, candidate))
		} else {
			match = exactMatch(candidate.ParameterTypes(), ix.ResolveParameterTypes(host, superTarget))
		}
		if match {
			delegate = candidate
			break
		}
	}
	if delegate == nil {
		return // no safe delegate: leave the bridge untouched
	}
	target.BridgeDelegates[bridge] = delegate

	// Prefer reporting a concrete class-declared super-target with the
	// bridge's own raw signature, so point-cut matchers that ignore
	// synthetic methods still see the interception point.
	if superTarget != nil && !superTarget.IsBridge() && !superTarget.Declaring().IsInterface() {
		if !superTarget.IsFinal() && !reported[superTarget] {
			reported[superTarget] = true
			target.Methods = append(target.Methods, superTarget)
		}
		return
	}

	// When the delegate is itself a leaf of another fingerprint it is (or
	// will be) reported on its own; the bridge only needs its dispatch
	// override.
	if leaves[fingerprint(delegate)] == delegate {
		return
	}

	if !bridge.IsFinal() && !reported[bridge] {
		reported[bridge] = true
		target.Methods = append(target.Methods, bridge)
	}
}

func erasureMatch(raw, resolved []*introspect.Class) bool {
	if len(raw) != len(resolved) {
		return false
	}
	for i := range raw {
		if !raw[i].AssignableFrom(resolved[i]) {
			return false
		}
	}
	return true
}

func exactMatch(a, b []*introspect.Class) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
