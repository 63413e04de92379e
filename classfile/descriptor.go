// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import "golang.org/x/xerrors"

// ParseDescriptor splits a method descriptor into its parameter field
// descriptors and return descriptor.
func ParseDescriptor(desc string) (params []string, ret string, err error) {
	if len(desc) < 3 || desc[0] != '(' {
		return nil, "", xerrors.Errorf("classfile: bad descriptor %q", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i >= len(desc) {
			return nil, "", xerrors.Errorf("classfile: bad descriptor %q", desc)
		}
		if desc[i] == 'L' {
			for i < len(desc) && desc[i] != ';' {
				i++
			}
		}
		if i >= len(desc) {
			return nil, "", xerrors.Errorf("classfile: bad descriptor %q", desc)
		}
		i++
		params = append(params, desc[start:i])
	}
	if i >= len(desc) || desc[i] != ')' {
		return nil, "", xerrors.Errorf("classfile: bad descriptor %q", desc)
	}
	return params, desc[i+1:], nil
}
