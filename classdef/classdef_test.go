// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classdef_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmglue/jvmglue/classdef"
	"github.com/jvmglue/jvmglue/classfile"
	"github.com/jvmglue/jvmglue/interp"
	"github.com/jvmglue/jvmglue/introspect"
)

func testImage(t *testing.T, name string) []byte {
	t.Helper()
	f := classfile.New(classfile.AccPublic|classfile.AccSuper, name, "java/lang/Object")
	image, err := f.Bytes()
	require.NoError(t, err)
	return image
}

func newHost(m *interp.Machine, name string) *introspect.Class {
	host := introspect.NewClass(name, introspect.Public)
	m.Register(host)
	return host
}

func TestDefaultStrategyUsesHidden(t *testing.T) {
	m := interp.New()
	host := newHost(m, "com.example.H1")
	d := classdef.New(m, classdef.TryUnsafeOrChild)

	ref, err := d.Define(host, testImage(t, "com/example/H1$$Glue"))
	require.NoError(t, err)
	assert.Equal(t, "com/example/H1$$Glue", ref.Name())

	assert.True(t, d.HasPackageAccess())
	assert.False(t, d.IsAnonymousHost(host))
	// hidden classes are not resolvable by name
	assert.Nil(t, m.BootLoader().Find("com/example/H1$$Glue"))
}

func TestChildLoaderStrategy(t *testing.T) {
	m := interp.New()
	host := newHost(m, "com.example.H2")
	d := classdef.New(m, classdef.ChildLoader)

	ref, err := d.Define(host, testImage(t, "com/example/H2$$Glue"))
	require.NoError(t, err)
	assert.Equal(t, "com/example/H2$$Glue", ref.Name())

	assert.False(t, d.HasPackageAccess())
	assert.False(t, d.IsAnonymousHost(host))
}

func TestAnonymousStrategy(t *testing.T) {
	m := interp.New()
	m.Hidden = false
	host := newHost(m, "com.example.H3")
	d := classdef.New(m, classdef.TryUnsafeAnonymous)

	_, err := d.Define(host, testImage(t, "com/example/H3$$Glue"))
	require.NoError(t, err)
	assert.True(t, d.HasPackageAccess())
	assert.True(t, d.IsAnonymousHost(host))
	assert.Nil(t, m.BootLoader().Find("com/example/H3$$Glue"))
}

func TestShimStrategy(t *testing.T) {
	m := interp.New()
	m.Hidden = false
	m.Anonymous = false
	host := newHost(m, "com.example.H4")
	d := classdef.New(m, classdef.TryUnsafeAnonymous)

	ref, err := d.Define(host, testImage(t, "com/example/H4$$Glue"))
	require.NoError(t, err)
	assert.Equal(t, "com/example/H4$$Glue", ref.Name())
	assert.True(t, d.HasPackageAccess())
	assert.False(t, d.IsAnonymousHost(host))
	// shim-forwarded definitions are name-resolvable
	assert.NotNil(t, m.BootLoader().Find("com/example/H4$$Glue"))
}

func TestOffStrategy(t *testing.T) {
	m := interp.New()
	host := newHost(m, "com.example.H5")
	d := classdef.New(m, classdef.Off)

	_, err := d.Define(host, testImage(t, "com/example/H5$$Glue"))
	require.ErrorIs(t, err, classdef.ErrUnavailable)
	assert.True(t, d.Unavailable())
}

func TestNoViableStrategy(t *testing.T) {
	m := interp.New()
	m.Hidden = false
	m.Anonymous = false
	m.Shim = false
	host := newHost(m, "com.example.H6")
	d := classdef.New(m, classdef.TryUnsafeAnonymous)

	_, err := d.Define(host, testImage(t, "com/example/H6$$Glue"))
	require.ErrorIs(t, err, classdef.ErrUnavailable)
}

func TestVerifierRejection(t *testing.T) {
	m := interp.New()
	host := newHost(m, "com.example.H7")
	d := classdef.New(m, classdef.TryUnsafeOrChild)

	_, err := d.Define(host, []byte{1, 2, 3})
	require.Error(t, err)
	var de *classdef.DefineError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, classdef.VerifierRejected, de.Reason)
	assert.Equal(t, "com.example.H7", de.Host)
}

func TestStrategyFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want classdef.Strategy
	}{
		{"", classdef.TryUnsafeOrChild},
		{"CHILD", classdef.ChildLoader},
		{"ANONYMOUS", classdef.TryUnsafeAnonymous},
		{"OFF", classdef.Off},
		{"bogus", classdef.TryUnsafeOrChild},
	}
	for _, tt := range tests {
		t.Setenv("GLUE_CUSTOM_CLASS_LOADING", tt.env)
		assert.Equal(t, tt.want, classdef.StrategyFromEnv(), "env %q", tt.env)
	}
}
