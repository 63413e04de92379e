// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jvmglue generates enhancer and fast-class glue for classes of a
// JVM-like managed platform.
//
// An enhancer is a generated subclass of a host class whose selected
// virtual methods route through per-instance invocation handlers; a fast
// class replaces reflective construction and dispatch with direct bytecode
// calls behind a dense index. The subpackages form a pipeline: resolve
// discovers enhanceable methods over the introspect view, sigtrie indexes
// member signatures, classfile assembles images, fastclass and enhance emit
// the glue, and classdef installs it. The interp package links emitted
// images in-process for embedders without a live JVM and for the tests.
//
// This package carries the error surface shared by the glue drivers.
package jvmglue

import "fmt"

// Phase locates a glue-generation failure.
type Phase int

const (
	PhaseLayout Phase = iota
	PhaseEmit
	PhaseVerify
)

func (p Phase) String() string {
	switch p {
	case PhaseLayout:
		return "layout"
	case PhaseEmit:
		return "emit"
	case PhaseVerify:
		return "verify"
	}
	return "unknown"
}

// GenerationError reports an aborted glue build with its diagnostic
// context. The drivers convert all platform-level failures emerging from
// class definition or invoker-table lookup into this type; failed keys are
// never cached.
type GenerationError struct {
	Phase Phase
	Host  string
	Proxy string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("jvmglue: %s failed for %s (proxy %s): %v", e.Phase, e.Host, e.Proxy, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// HostReason classifies why a host cannot be enhanced.
type HostReason int

const (
	// HostFinal marks hosts declared final.
	HostFinal HostReason = iota
	// HostForbidden marks hosts invisible under the bound visibility
	// regime or otherwise barred from subclassing.
	HostForbidden
)

func (r HostReason) String() string {
	if r == HostFinal {
		return "final"
	}
	return "forbidden"
}

// HostNotEnhanceableError reports a host that cannot be subclassed.
type HostNotEnhanceableError struct {
	Host   string
	Reason HostReason
}

func (e *HostNotEnhanceableError) Error() string {
	return fmt.Sprintf("jvmglue: host %s not enhanceable: %s", e.Host, e.Reason)
}
