// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// Parsed is the structural view of a class-file image.
type Parsed struct {
	Minor, Major uint16
	Access       uint16
	ThisClass    string
	SuperClass   string
	Interfaces   []string
	Fields       []MemberInfo
	Methods      []MethodInfo
	Bootstraps   []Bootstrap

	consts []any // 1-based, nil holes for wide entries
}

// MemberInfo is one field or method header.
type MemberInfo struct {
	Access uint16
	Name   string
	Desc   string
}

// MethodInfo is a method header plus its Code attribute.
type MethodInfo struct {
	MemberInfo
	MaxStack  uint16
	MaxLocals uint16
	Code      []byte
}

// Bootstrap is one BootstrapMethods entry with resolved arguments.
type Bootstrap struct {
	Handle HandleConst
	Args   []any
}

// Resolved constant forms, as returned by Const.
type (
	ClassConst      struct{ Name string }
	StringConst     struct{ Value string }
	MethodTypeConst struct{ Desc string }
	DynamicConst    struct {
		Bootstrap int
		Name      string
		Desc      string
	}
	RefConst struct {
		Owner string
		Name  string
		Desc  string
		Iface bool
		Field bool
	}
	HandleConst struct {
		Kind uint8
		Ref  RefConst
	}
)

type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) u1() uint8 {
	if r.err != nil || r.off+1 > len(r.b) {
		r.fail()
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if r.err != nil || r.off+2 > len(r.b) {
		r.fail()
		return 0
	}
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if r.err != nil || r.off+4 > len(r.b) {
		r.fail()
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || n < 0 || r.off+n > len(r.b) {
		r.fail()
		return nil
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = xerrors.New("classfile: truncated image")
	}
}

// rawConst is an unresolved pool entry.
type rawConst struct {
	tag uint8
	a   uint16
	b   uint16
	s   string
	i   int32
}

// Parse reads the structural skeleton of an image. It rejects images with a
// bad magic number or a pre-8 major version.
func Parse(image []byte) (*Parsed, error) {
	r := &reader{b: image}
	if r.u4() != Magic {
		return nil, xerrors.New("classfile: bad magic")
	}
	p := &Parsed{}
	p.Minor = r.u2()
	p.Major = r.u2()
	if p.Major < MajorJava8 && r.err == nil {
		return nil, xerrors.Errorf("classfile: unsupported major version %d", p.Major)
	}

	count := int(r.u2())
	raw := make([]rawConst, count) // 1-based
	for i := 1; i < count && r.err == nil; i++ {
		tag := r.u1()
		rc := rawConst{tag: tag}
		switch tag {
		case tagUtf8:
			rc.s = string(r.bytes(int(r.u2())))
		case tagInteger, tagFloat:
			rc.i = int32(r.u4())
		case tagLong, tagDouble:
			r.u4()
			r.u4()
			raw[i] = rc
			i++ // wide entries take two slots
			continue
		case tagClass, tagString, tagMethodType:
			rc.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagInvokeDynamic:
			rc.a = r.u2()
			rc.b = r.u2()
		case tagMethodHandle:
			rc.a = uint16(r.u1())
			rc.b = r.u2()
		default:
			return nil, xerrors.Errorf("classfile: unknown constant tag %d", tag)
		}
		raw[i] = rc
	}
	if r.err != nil {
		return nil, r.err
	}

	utf8At := func(i uint16) string {
		if int(i) < len(raw) && raw[i].tag == tagUtf8 {
			return raw[i].s
		}
		return ""
	}
	classAt := func(i uint16) string {
		if int(i) < len(raw) && raw[i].tag == tagClass {
			return utf8At(raw[i].a)
		}
		return ""
	}
	refAt := func(i uint16) RefConst {
		if int(i) >= len(raw) {
			return RefConst{}
		}
		rc := raw[i]
		if int(rc.b) >= len(raw) {
			return RefConst{}
		}
		nt := raw[rc.b]
		return RefConst{
			Owner: classAt(rc.a),
			Name:  utf8At(nt.a),
			Desc:  utf8At(nt.b),
			Iface: rc.tag == tagInterfaceMethodref,
			Field: rc.tag == tagFieldref,
		}
	}

	p.consts = make([]any, count)
	for i := 1; i < count; i++ {
		switch raw[i].tag {
		case tagUtf8:
			p.consts[i] = raw[i].s
		case tagInteger:
			p.consts[i] = raw[i].i
		case tagClass:
			p.consts[i] = ClassConst{Name: utf8At(raw[i].a)}
		case tagString:
			p.consts[i] = StringConst{Value: utf8At(raw[i].a)}
		case tagMethodType:
			p.consts[i] = MethodTypeConst{Desc: utf8At(raw[i].a)}
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			p.consts[i] = refAt(uint16(i))
		case tagMethodHandle:
			p.consts[i] = HandleConst{Kind: uint8(raw[i].a), Ref: refAt(raw[i].b)}
		case tagInvokeDynamic:
			if int(raw[i].b) >= len(raw) {
				continue
			}
			nt := raw[raw[i].b]
			p.consts[i] = DynamicConst{
				Bootstrap: int(raw[i].a),
				Name:      utf8At(nt.a),
				Desc:      utf8At(nt.b),
			}
		}
	}

	p.Access = r.u2()
	p.ThisClass = classAt(r.u2())
	p.SuperClass = classAt(r.u2())
	for n := int(r.u2()); n > 0 && r.err == nil; n-- {
		p.Interfaces = append(p.Interfaces, classAt(r.u2()))
	}

	for n := int(r.u2()); n > 0 && r.err == nil; n-- {
		f := MemberInfo{Access: r.u2(), Name: utf8At(r.u2()), Desc: utf8At(r.u2())}
		skipAttrs(r, int(r.u2()))
		p.Fields = append(p.Fields, f)
	}

	for n := int(r.u2()); n > 0 && r.err == nil; n-- {
		m := MethodInfo{MemberInfo: MemberInfo{Access: r.u2(), Name: utf8At(r.u2()), Desc: utf8At(r.u2())}}
		for a := int(r.u2()); a > 0 && r.err == nil; a-- {
			name := utf8At(r.u2())
			length := int(r.u4())
			if name != "Code" {
				r.bytes(length)
				continue
			}
			m.MaxStack = r.u2()
			m.MaxLocals = r.u2()
			m.Code = r.bytes(int(r.u4()))
			skipExceptionTable(r)
			skipAttrs(r, int(r.u2()))
		}
		p.Methods = append(p.Methods, m)
	}

	for a := int(r.u2()); a > 0 && r.err == nil; a-- {
		name := utf8At(r.u2())
		length := int(r.u4())
		if name != "BootstrapMethods" {
			r.bytes(length)
			continue
		}
		for n := int(r.u2()); n > 0 && r.err == nil; n-- {
			h, _ := p.Const(int(r.u2())).(HandleConst)
			bs := Bootstrap{Handle: h}
			for c := int(r.u2()); c > 0 && r.err == nil; c-- {
				bs.Args = append(bs.Args, p.Const(int(r.u2())))
			}
			p.Bootstraps = append(p.Bootstraps, bs)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func skipAttrs(r *reader, n int) {
	for ; n > 0 && r.err == nil; n-- {
		r.u2()
		r.bytes(int(r.u4()))
	}
}

func skipExceptionTable(r *reader) {
	n := int(r.u2())
	r.bytes(8 * n)
}

// Const returns the resolved constant at a 1-based pool index, or nil.
func (p *Parsed) Const(i int) any {
	if i <= 0 || i >= len(p.consts) {
		return nil
	}
	return p.consts[i]
}

// Method returns the first method matching name and descriptor, or nil.
func (p *Parsed) Method(name, desc string) *MethodInfo {
	for i := range p.Methods {
		m := &p.Methods[i]
		if m.Name == name && (desc == "" || m.Desc == desc) {
			return m
		}
	}
	return nil
}

// Field returns the field with the given name, or nil.
func (p *Parsed) Field(name string) *MemberInfo {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i]
		}
	}
	return nil
}
