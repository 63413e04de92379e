// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"encoding/binary"
	"sort"

	"golang.org/x/xerrors"
)

// Method assembles the body of one method. Emission is two-pass: labels are
// laid out while instructions stream into the code buffer, branch offsets
// are resolved when the class assembles.
type Method struct {
	file   *File
	access uint16
	name   string
	desc   string

	code      []byte
	maxStack  uint16
	maxLocals uint16
	fixups    []fixup
	frames    []*Label
}

// Label marks a code position. A label may be referenced by branches before
// it is bound.
type Label struct {
	pc    int
	bound bool
}

// fixup records a 4-byte branch offset cell to resolve against a label,
// relative to the owning instruction's pc.
type fixup struct {
	at     int
	base   int
	target *Label
}

// NewLabel returns a fresh unbound label.
func (m *Method) NewLabel() *Label { return &Label{} }

// Bind fixes l to the current code position.
func (m *Method) Bind(l *Label) {
	l.pc = len(m.code)
	l.bound = true
}

// Frame records that a stack-map entry is required at l. The generators
// only need frames whose stack is empty and whose locals are the method's
// entry locals, so the entry encodes as same_frame (same_frame_extended when
// the offset delta exceeds 63).
func (m *Method) Frame(l *Label) {
	m.frames = append(m.frames, l)
}

// SetMaxs states the operand stack and local variable sizes. The builder
// does not infer them.
func (m *Method) SetMaxs(stack, locals int) {
	m.maxStack = uint16(stack)
	m.maxLocals = uint16(locals)
}

func (m *Method) u1(v uint8)  { m.code = append(m.code, v) }
func (m *Method) u2(v uint16) { m.code = append(m.code, byte(v>>8), byte(v)) }
func (m *Method) u4(v uint32) {
	m.code = append(m.code, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Op emits a bare opcode.
func (m *Method) Op(op byte) { m.u1(op) }

// Var emits a local-variable instruction (iload family, astore family),
// choosing the compact 0-3 form, the one-byte index form, or wide.
func (m *Method) Var(op byte, idx int) {
	var short byte
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload:
		short = OpIload0 + (op-OpIload)*4
	case OpAstore:
		short = OpAstore0
	}
	switch {
	case short != 0 && idx <= 3:
		m.u1(short + byte(idx))
	case idx <= 0xff:
		m.u1(op)
		m.u1(byte(idx))
	default:
		m.u1(OpWide)
		m.u1(op)
		m.u2(uint16(idx))
	}
}

// Type emits new, checkcast, instanceof, or anewarray against an internal
// name (which may be an array descriptor for checkcast).
func (m *Method) Type(op byte, internal string) {
	m.u1(op)
	m.u2(m.file.cp.Class(internal))
}

// Field emits a field access instruction.
func (m *Method) Field(op byte, owner, name, desc string) {
	m.u1(op)
	m.u2(m.file.cp.FieldRef(owner, name, desc))
}

// Invoke emits an invocation instruction. iface selects the
// interface-methodref constant form; invokeinterface carries its count
// operand per the format.
func (m *Method) Invoke(op byte, owner, name, desc string, iface bool) {
	m.u1(op)
	m.u2(m.file.cp.MethodRef(owner, name, desc, iface))
	if op == OpInvokeinterface {
		m.u1(byte(1 + slotCount(desc)))
		m.u1(0)
	}
}

// InvokeDynamic emits an invokedynamic instruction against a bootstrap
// method registered on the file.
func (m *Method) InvokeDynamic(name, desc string, bootstrap int) {
	m.u1(OpInvokedynamic)
	m.u2(m.file.cp.InvokeDynamic(uint16(bootstrap), name, desc))
	m.u1(0)
	m.u1(0)
}

// Ldc emits ldc or ldc_w for a pool index.
func (m *Method) Ldc(cpIndex uint16) {
	if cpIndex <= 0xff {
		m.u1(OpLdc)
		m.u1(byte(cpIndex))
	} else {
		m.u1(OpLdcW)
		m.u2(cpIndex)
	}
}

// PushInt emits the shortest instruction pushing v: iconst, bipush, sipush,
// or an integer constant load.
func (m *Method) PushInt(v int) {
	switch {
	case v >= -1 && v <= 5:
		m.u1(byte(OpIconst0 + v))
	case v >= -128 && v <= 127:
		m.u1(OpBipush)
		m.u1(byte(int8(v)))
	case v >= -32768 && v <= 32767:
		m.u1(OpSipush)
		m.u2(uint16(int16(v)))
	default:
		m.Ldc(m.file.cp.Integer(int32(v)))
	}
}

// TableSwitch emits a dense table switch over [0, len(targets)). Target and
// default offsets are fixed up at assembly.
func (m *Method) TableSwitch(dflt *Label, targets []*Label) {
	base := len(m.code)
	m.u1(OpTableswitch)
	for len(m.code)%4 != 0 {
		m.u1(0)
	}
	m.fixups = append(m.fixups, fixup{at: len(m.code), base: base, target: dflt})
	m.u4(0)
	m.u4(0)                          // low
	m.u4(uint32(len(targets) - 1))   // high
	for _, t := range targets {
		m.fixups = append(m.fixups, fixup{at: len(m.code), base: base, target: t})
		m.u4(0)
	}
}

// resolve patches recorded branch cells. All referenced labels must be
// bound.
func (m *Method) resolve() error {
	for _, f := range m.fixups {
		if !f.target.bound {
			return xerrors.Errorf("classfile: unbound label in %s%s", m.name, m.desc)
		}
		binary.BigEndian.PutUint32(m.code[f.at:], uint32(int32(f.target.pc-f.base)))
	}
	return nil
}

// stackMap serialises the StackMapTable attribute body (entry count plus
// entries), or nil when the method records no frames.
func (m *Method) stackMap() []byte {
	if len(m.frames) == 0 {
		return nil
	}
	pcs := make([]int, len(m.frames))
	for i, l := range m.frames {
		pcs[i] = l.pc
	}
	sort.Ints(pcs)

	var out []byte
	u2 := func(v uint16) { out = append(out, byte(v>>8), byte(v)) }
	u2(uint16(len(pcs)))
	prev := -1
	for _, pc := range pcs {
		delta := pc - prev - 1
		if delta <= 63 {
			out = append(out, byte(delta)) // same_frame
		} else {
			out = append(out, 251) // same_frame_extended
			u2(uint16(delta))
		}
		prev = pc
	}
	return out
}

// slotCount returns the number of argument slots a method descriptor
// consumes, counting long and double as two.
func slotCount(desc string) int {
	n := 0
	i := 1 // skip '('
	for desc[i] != ')' {
		switch desc[i] {
		case 'J', 'D':
			n += 2
			i++
		case 'L':
			n++
			for desc[i] != ';' {
				i++
			}
			i++
		case '[':
			n++
			for desc[i] == '[' {
				i++
			}
			if desc[i] == 'L' {
				for desc[i] != ';' {
					i++
				}
			}
			i++
		default:
			n++
			i++
		}
	}
	return n
}
