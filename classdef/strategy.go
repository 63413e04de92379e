// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classdef

import (
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/introspect"
)

// Strategy is the discrete class-definition knob.
type Strategy int

const (
	// TryUnsafeOrChild probes hidden, anonymous, then shim definition, and
	// falls back to child loaders. The default.
	TryUnsafeOrChild Strategy = iota
	// ChildLoader always defines into package-sibling child loaders.
	ChildLoader
	// TryUnsafeAnonymous probes hidden, anonymous, then shim definition,
	// with no child-loader fallback.
	TryUnsafeAnonymous
	// Off disables class definition entirely.
	Off
)

// StrategyFromEnv reads the GLUE_CUSTOM_CLASS_LOADING knob: "CHILD",
// "ANONYMOUS", "OFF", or unset for the default.
func StrategyFromEnv() Strategy {
	switch os.Getenv("GLUE_CUSTOM_CLASS_LOADING") {
	case "CHILD":
		return ChildLoader
	case "ANONYMOUS":
		return TryUnsafeAnonymous
	case "OFF":
		return Off
	default:
		return TryUnsafeOrChild
	}
}

// loaderCacheSize bounds the per-parent child-loader and per-loader-class
// shim caches. The runtime offers no weak references, so a bounded cache
// stands in for the source's weak-keyed maps; evicted entries simply
// rebuild.
const loaderCacheSize = 64

// selectStrategy probes the ladder for the configured strategy. Probe
// failures demote to the next rung; an empty ladder binds to unavailable.
func selectStrategy(p Platform, s Strategy) (definerImpl, error) {
	var ladder []definerImpl
	child, childErr := newChildDefiner(p)

	appendChild := func() {
		if childErr == nil {
			ladder = append(ladder, child)
		}
	}
	appendUnsafe := func() {
		if p.HiddenCapable() {
			ladder = append(ladder, &hiddenDefiner{p: p})
		}
		if p.AnonymousCapable() {
			ladder = append(ladder, &anonymousDefiner{p: p})
		}
		if shim, err := newShimDefiner(p); err == nil && p.ShimCapable() {
			ladder = append(ladder, shim)
		}
	}

	switch s {
	case ChildLoader:
		appendChild()
	case TryUnsafeOrChild:
		appendUnsafe()
		appendChild()
	case TryUnsafeAnonymous:
		appendUnsafe()
	case Off:
	}

	if len(ladder) == 0 {
		return nil, ErrUnavailable
	}
	return ladder[0], nil
}

// childDefiner defines into a fresh loader parented on the host's loader.
// Children are cached per parent and reused across definitions. Classes
// land in a sibling of the host's package, so package-private access is
// lost.
type childDefiner struct {
	p     Platform
	cache *lru.Cache // Loader → Loader
}

func newChildDefiner(p Platform) (*childDefiner, error) {
	cache, err := lru.New(loaderCacheSize)
	if err != nil {
		return nil, err
	}
	return &childDefiner{p: p, cache: cache}, nil
}

func (d *childDefiner) name() string { return "child-loader" }

func (d *childDefiner) define(host *introspect.Class, image []byte) (ClassRef, error) {
	parent := d.p.LoaderOf(host)
	child, ok := d.cache.Get(parent)
	if !ok {
		created, err := d.p.NewChildLoader(parent)
		if err != nil {
			return nil, errors.Wrap(err, "creating child loader")
		}
		d.cache.Add(parent, created)
		child = created
	}
	name, err := imageName(image)
	if err != nil {
		return nil, err
	}
	return d.p.DefineClass(child, name, image)
}

func (d *childDefiner) hasPackageAccess() bool { return false }
func (d *childDefiner) anonymousHost() bool    { return false }

// hiddenDefiner uses the privileged hidden-class facility with nest-mate
// linkage: full access to the host, but classes stay name-addressable to
// the glue they carry.
type hiddenDefiner struct {
	p Platform
}

func (d *hiddenDefiner) name() string { return "hidden" }

func (d *hiddenDefiner) define(host *introspect.Class, image []byte) (ClassRef, error) {
	return d.p.DefineHidden(host, image)
}

func (d *hiddenDefiner) hasPackageAccess() bool { return true }
func (d *hiddenDefiner) anonymousHost() bool    { return false }

// anonymousDefiner uses the legacy anonymous-class facility. Defined
// classes are not resolvable by name, which the generators must honour in
// their cast targets.
type anonymousDefiner struct {
	p Platform
}

func (d *anonymousDefiner) name() string { return "anonymous" }

func (d *anonymousDefiner) define(host *introspect.Class, image []byte) (ClassRef, error) {
	return d.p.DefineAnonymous(host, image)
}

func (d *anonymousDefiner) hasPackageAccess() bool { return true }
func (d *anonymousDefiner) anonymousHost() bool    { return true }

// shimDefiner forwards definitions through a generated access shim
// installed once per loader class.
type shimDefiner struct {
	p     Platform
	cache *lru.Cache // loader class name → ClassRef
}

func newShimDefiner(p Platform) (*shimDefiner, error) {
	cache, err := lru.New(loaderCacheSize)
	if err != nil {
		return nil, err
	}
	return &shimDefiner{p: p, cache: cache}, nil
}

func (d *shimDefiner) name() string { return "shim" }

func (d *shimDefiner) define(host *introspect.Class, image []byte) (ClassRef, error) {
	loader := d.p.LoaderOf(host)
	key := d.p.LoaderClassName(loader)

	shim, ok := d.cache.Get(key)
	if !ok {
		installed, err := d.p.DefineShim(loader, shimImage(key))
		if err != nil {
			return nil, errors.Wrap(err, "installing define shim")
		}
		d.cache.Add(key, installed)
		shim = installed
	}
	name, err := imageName(image)
	if err != nil {
		return nil, err
	}
	return d.p.DefineViaShim(shim.(ClassRef), loader, name, image)
}

func (d *shimDefiner) hasPackageAccess() bool { return true }
func (d *shimDefiner) anonymousHost() bool    { return false }

// shimImage emits the minimal access-shim class installed next to a loader
// class.
func shimImage(loaderClass string) []byte {
	internal := strings.ReplaceAll(loaderClass, ".", "/")
	f := classfile.New(classfile.AccFinal|classfile.AccSynthetic,
		internal+"$GlueDefineAccess", "java/lang/Object")
	image, err := f.Bytes()
	if err != nil {
		// the shim image is constant-shaped; emission cannot fail
		panic(err)
	}
	return image
}

// imageName extracts the defined name from an image for the strategies that
// define by name.
func imageName(image []byte) (string, error) {
	parsed, err := classfile.Parse(image)
	if err != nil {
		return "", errors.Wrap(err, "reading image name")
	}
	return parsed.ThisClass, nil
}

// verifyImage is the structural pre-define check.
func verifyImage(image []byte) error {
	_, err := classfile.Parse(image)
	return err
}
