// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classdef

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnavailable reports that no class-definition strategy was viable. Once
// a definer binds to this state every subsequent build fails with it.
var ErrUnavailable = errors.New("classdef: class defining unavailable")

// FailureReason classifies a failed define call.
type FailureReason int

const (
	// CannotDefine covers platform rejections of the define call itself.
	CannotDefine FailureReason = iota
	// VerifierRejected covers structurally invalid images.
	VerifierRejected
	// HostUnmodifiable covers hosts whose runtime representation does not
	// admit companion classes.
	HostUnmodifiable
)

func (r FailureReason) String() string {
	switch r {
	case CannotDefine:
		return "cannot define"
	case VerifierRejected:
		return "verifier rejected"
	case HostUnmodifiable:
		return "host unmodifiable"
	}
	return "unknown"
}

// DefineError is a failed define call under a bound strategy.
type DefineError struct {
	Reason FailureReason
	Host   string
	Err    error
}

func (e *DefineError) Error() string {
	return fmt.Sprintf("classdef: %s defining class near %s: %v", e.Reason, e.Host, e.Err)
}

func (e *DefineError) Unwrap() error { return e.Err }
