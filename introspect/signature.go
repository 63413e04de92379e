// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package introspect

import "strings"

// ConstructorName is the name constructors carry in member signatures.
const ConstructorName = "<init>"

// Signature returns the canonical external key for a member:
//
//	name;param1;param2;…
//
// with "<init>" for constructors and binary type names for parameters. The
// same string is used as a map key, as trie input, and as the lookup key of
// the functions the drivers return, so the ';' delimiter must never vary.
func Signature(m Member) string {
	var sb strings.Builder
	if _, ok := m.(*Constructor); ok {
		sb.WriteString(ConstructorName)
	} else {
		sb.WriteString(m.(*Method).Name)
	}
	for _, p := range m.ParameterTypes() {
		sb.WriteByte(';')
		sb.WriteString(p.Name())
	}
	if len(m.ParameterTypes()) == 0 {
		sb.WriteByte(';')
	}
	return sb.String()
}
