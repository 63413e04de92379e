// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classdef

// Invoker is the two-argument invoker shape glue classes expose: a context
// (the receiver, or nil for constructors and statics) and the packed
// argument array. Thrown platform exceptions surface as the error.
type Invoker func(ctx any, args []any) (any, error)

// InvokerTable is the first invoker-table shape: an index-to-invoker
// function, produced by fast classes (a handle on their int constructor) and
// by enhancers under named hosting (a lambda-metafactory wrap of the
// trampoline).
type InvokerTable func(index int) Invoker

// Trampoline is the second invoker-table shape: the raw trampoline handle
// itself, produced under anonymous hosting where metafactory glue cannot
// link by name.
type Trampoline func(index int, ctx any, args []any) (any, error)
