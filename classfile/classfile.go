// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classfile writes and reads JVM class-file images.
//
// The writer is deliberately small: a deduplicating constant pool, a
// per-method code buffer with two-pass branch resolution (labels are laid
// out during emission, branch offsets resolved at assembly), and stack-map
// emission restricted to the frame shapes the glue generators produce
// (empty stack, entry locals). Callers state max stack and locals
// explicitly.
//
// The reader parses the structural skeleton of an image (constant pool,
// members, code, bootstrap methods) and is used by the definer's verify
// phase, by the bundled interpreter platform, and by tests.
package classfile

// Magic is the class-file magic number.
const Magic = 0xCAFEBABE

// MajorJava8 is the lowest class-file major version the generators emit.
const MajorJava8 = 52

// Constant-pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagInvokeDynamic      = 18
)

// Method-handle reference kinds.
const (
	RefGetField         = 1
	RefGetStatic        = 2
	RefPutField         = 3
	RefPutStatic        = 4
	RefInvokeVirtual    = 5
	RefInvokeStatic     = 6
	RefInvokeSpecial    = 7
	RefNewInvokeSpecial = 8
	RefInvokeInterface  = 9
)

// Class and member access flags, as written into images.
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccBridge     = 0x0040
	AccVarargs    = 0x0080
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
)

// The opcodes the generators emit and the interpreter executes.
const (
	OpNop         = 0x00
	OpAconstNull  = 0x01
	OpIconstM1    = 0x02
	OpIconst0     = 0x03
	OpIconst5     = 0x08
	OpBipush      = 0x10
	OpSipush      = 0x11
	OpLdc         = 0x12
	OpLdcW        = 0x13
	OpIload       = 0x15
	OpLload       = 0x16
	OpFload       = 0x17
	OpDload       = 0x18
	OpAload       = 0x19
	OpIload0      = 0x1a
	OpLload0      = 0x1e
	OpFload0      = 0x22
	OpDload0      = 0x26
	OpAload0      = 0x2a
	OpAaload      = 0x32
	OpAstore      = 0x3a
	OpAstore0     = 0x4b
	OpAastore     = 0x53
	OpPop         = 0x57
	OpDup         = 0x59
	OpGoto        = 0xa7
	OpTableswitch = 0xaa
	OpIreturn     = 0xac
	OpLreturn     = 0xad
	OpFreturn     = 0xae
	OpDreturn     = 0xaf
	OpAreturn     = 0xb0
	OpReturn      = 0xb1
	OpGetstatic   = 0xb2
	OpPutstatic   = 0xb3
	OpGetfield    = 0xb4
	OpPutfield    = 0xb5
	OpInvokevirtual   = 0xb6
	OpInvokespecial   = 0xb7
	OpInvokestatic    = 0xb8
	OpInvokeinterface = 0xb9
	OpInvokedynamic   = 0xba
	OpNew         = 0xbb
	OpAnewarray   = 0xbd
	OpAthrow      = 0xbf
	OpCheckcast   = 0xc0
	OpInstanceof  = 0xc1
	OpWide        = 0xc4
)
