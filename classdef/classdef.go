// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classdef installs generated class images "close to" a host class.
//
// The install path is chosen once, by probing a ladder of strategies against
// the platform: a package-sibling child loader, the privileged hidden-class
// facility with nest-mate linkage, the legacy anonymous-class facility, or a
// generated access shim forwarded through a host loader that exposes
// defineClass. The chosen strategy determines two capabilities the rest of
// the pipeline branches on: whether generated classes share the host's
// package (package-private enhancement) and whether they are hosted
// anonymously (not resolvable by name, which changes how glue bytecode may
// cast).
package classdef

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jvmglue/jvmglue/introspect"
)

var log = logrus.WithField("prefix", "classdef")

// Loader is an opaque, comparable identity of a class loader of the host
// runtime.
type Loader any

// ClassRef is a handle to a linked class returned by a definer.
type ClassRef interface {
	// Name returns the class's internal name.
	Name() string

	// Static reads a public static field after linking (and after the class
	// initialiser has run).
	Static(field string) (any, error)
}

// Platform is the host runtime's low-level class-definition surface.
// Implementations must be safe for concurrent use.
type Platform interface {
	// LoaderOf returns the identity of host's defining loader.
	LoaderOf(host *introspect.Class) Loader

	// NewChildLoader creates a loader whose parent is the given loader.
	NewChildLoader(parent Loader) (Loader, error)

	// DefineClass defines a named class into a loader.
	DefineClass(loader Loader, name string, image []byte) (ClassRef, error)

	// HiddenCapable reports whether the privileged hidden-class facility is
	// available.
	HiddenCapable() bool

	// DefineHidden defines a hidden class with nest-mate linkage to host.
	DefineHidden(host *introspect.Class, image []byte) (ClassRef, error)

	// AnonymousCapable reports whether the legacy anonymous-class facility
	// is available.
	AnonymousCapable() bool

	// DefineAnonymous defines an anonymous class relative to host.
	DefineAnonymous(host *introspect.Class, image []byte) (ClassRef, error)

	// ShimCapable reports whether host loaders expose a forwardable
	// defineClass.
	ShimCapable() bool

	// DefineShim installs a generated access shim for a loader.
	DefineShim(loader Loader, image []byte) (ClassRef, error)

	// DefineViaShim defines a named class into a loader by forwarding
	// through a previously installed shim.
	DefineViaShim(shim ClassRef, loader Loader, name string, image []byte) (ClassRef, error)

	// LoaderClassName returns the runtime class name of a loader, keying
	// the per-loader-class shim cache.
	LoaderClassName(l Loader) string
}

// Definer installs class images under the strategy bound at first use.
type Definer struct {
	platform Platform
	strategy Strategy

	once sync.Once
	impl definerImpl
	err  error
}

// definerImpl is one bound strategy.
type definerImpl interface {
	define(host *introspect.Class, image []byte) (ClassRef, error)
	hasPackageAccess() bool
	anonymousHost() bool
}

// New returns a definer for the platform under the given strategy. The
// strategy binds on first use and never rebinds.
func New(p Platform, s Strategy) *Definer {
	return &Definer{platform: p, strategy: s}
}

// NewFromEnv returns a definer bound per the GLUE_CUSTOM_CLASS_LOADING
// environment knob.
func NewFromEnv(p Platform) *Definer {
	return New(p, StrategyFromEnv())
}

func (d *Definer) bind() {
	d.once.Do(func() {
		d.impl, d.err = selectStrategy(d.platform, d.strategy)
		if d.err == nil {
			log.WithField("strategy", d.impl.(interface{ name() string }).name()).
				Debug("bound class-definition strategy")
		}
	})
}

// Define installs an image relative to host. The image is structurally
// verified first; verifier rejections and definition failures surface as
// *DefineError.
func (d *Definer) Define(host *introspect.Class, image []byte) (ClassRef, error) {
	d.bind()
	if d.err != nil {
		return nil, d.err
	}
	if err := verifyImage(image); err != nil {
		return nil, &DefineError{Reason: VerifierRejected, Host: host.Name(), Err: err}
	}
	ref, err := d.impl.define(host, image)
	if err != nil {
		if de, ok := err.(*DefineError); ok {
			return nil, de
		}
		return nil, &DefineError{Reason: CannotDefine, Host: host.Name(), Err: err}
	}
	return ref, nil
}

// HasPackageAccess reports whether defined classes share the host's package
// namespace, enabling package-private enhancement and fast invocation of
// non-public members.
func (d *Definer) HasPackageAccess() bool {
	d.bind()
	return d.err == nil && d.impl.hasPackageAccess()
}

// IsAnonymousHost reports whether classes defined for host are hosted
// anonymously (not resolvable by name). Glue emitted for anonymous hosting
// must cast through the host's name rather than its own.
func (d *Definer) IsAnonymousHost(host *introspect.Class) bool {
	d.bind()
	return d.err == nil && d.impl.anonymousHost()
}

// Unavailable reports whether the definer bound to "off" (or failed every
// strategy); all builds fail fast in that case.
func (d *Definer) Unavailable() bool {
	d.bind()
	return d.err != nil
}
