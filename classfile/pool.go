// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Pool is a deduplicating constant pool under construction. Entries are
// serialised as they are interned; indexes are 1-based per the class-file
// format.
type Pool struct {
	buf   bytes.Buffer
	next  uint16
	dedup map[string]uint16
}

func newPool() *Pool {
	return &Pool{next: 1, dedup: make(map[string]uint16)}
}

func (p *Pool) intern(key string, write func()) uint16 {
	if idx, ok := p.dedup[key]; ok {
		return idx
	}
	idx := p.next
	p.next++
	p.dedup[key] = idx
	write()
	return idx
}

func (p *Pool) u1(v uint8)  { p.buf.WriteByte(v) }
func (p *Pool) u2(v uint16) { _ = binary.Write(&p.buf, binary.BigEndian, v) }
func (p *Pool) u4(v uint32) { _ = binary.Write(&p.buf, binary.BigEndian, v) }

// Utf8 interns a CONSTANT_Utf8 entry. Signatures and names here are ASCII;
// the modified-UTF8 subtleties around supplementary characters do not arise
// for generated glue.
func (p *Pool) Utf8(s string) uint16 {
	return p.intern("u:"+s, func() {
		p.u1(tagUtf8)
		p.u2(uint16(len(s)))
		p.buf.WriteString(s)
	})
}

// Class interns a CONSTANT_Class entry for an internal name.
func (p *Pool) Class(internal string) uint16 {
	name := p.Utf8(internal)
	return p.intern("c:"+internal, func() {
		p.u1(tagClass)
		p.u2(name)
	})
}

// Integer interns a CONSTANT_Integer entry.
func (p *Pool) Integer(v int32) uint16 {
	return p.intern(fmt.Sprintf("i:%d", v), func() {
		p.u1(tagInteger)
		p.u4(uint32(v))
	})
}

// String interns a CONSTANT_String entry.
func (p *Pool) String(s string) uint16 {
	utf := p.Utf8(s)
	return p.intern("s:"+s, func() {
		p.u1(tagString)
		p.u2(utf)
	})
}

// NameAndType interns a CONSTANT_NameAndType entry.
func (p *Pool) NameAndType(name, desc string) uint16 {
	n, d := p.Utf8(name), p.Utf8(desc)
	return p.intern("n:"+name+":"+desc, func() {
		p.u1(tagNameAndType)
		p.u2(n)
		p.u2(d)
	})
}

// FieldRef interns a CONSTANT_Fieldref entry.
func (p *Pool) FieldRef(owner, name, desc string) uint16 {
	c, nt := p.Class(owner), p.NameAndType(name, desc)
	return p.intern("f:"+owner+"."+name+":"+desc, func() {
		p.u1(tagFieldref)
		p.u2(c)
		p.u2(nt)
	})
}

// MethodRef interns a CONSTANT_Methodref or CONSTANT_InterfaceMethodref
// entry depending on iface.
func (p *Pool) MethodRef(owner, name, desc string, iface bool) uint16 {
	c, nt := p.Class(owner), p.NameAndType(name, desc)
	tag := uint8(tagMethodref)
	key := "m:"
	if iface {
		tag = tagInterfaceMethodref
		key = "im:"
	}
	return p.intern(key+owner+"."+name+":"+desc, func() {
		p.u1(tag)
		p.u2(c)
		p.u2(nt)
	})
}

// MethodHandle interns a CONSTANT_MethodHandle entry.
func (p *Pool) MethodHandle(kind uint8, ref uint16) uint16 {
	return p.intern(fmt.Sprintf("h:%d:%d", kind, ref), func() {
		p.u1(tagMethodHandle)
		p.u1(kind)
		p.u2(ref)
	})
}

// MethodType interns a CONSTANT_MethodType entry.
func (p *Pool) MethodType(desc string) uint16 {
	d := p.Utf8(desc)
	return p.intern("t:"+desc, func() {
		p.u1(tagMethodType)
		p.u2(d)
	})
}

// InvokeDynamic interns a CONSTANT_InvokeDynamic entry against a
// bootstrap-method index.
func (p *Pool) InvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	nt := p.NameAndType(name, desc)
	return p.intern(fmt.Sprintf("d:%d:%s:%s", bootstrap, name, desc), func() {
		p.u1(tagInvokeDynamic)
		p.u2(bootstrap)
		p.u2(nt)
	})
}

// count returns the constant_pool_count value (entries + 1).
func (p *Pool) count() uint16 { return p.next }
