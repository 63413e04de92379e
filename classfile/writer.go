// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"bytes"
	"encoding/binary"
)

// File is a class-file image under construction.
type File struct {
	cp         *Pool
	access     uint16
	thisName   string
	thisIdx    uint16
	superIdx   uint16
	interfaces []uint16
	fields     []fieldInfo
	methods    []*Method
	bootstraps []bootstrapInfo
}

type fieldInfo struct {
	access     uint16
	name, desc string
}

type bootstrapInfo struct {
	handle uint16
	args   []uint16
}

// New starts an image for a class with the given internal name, superclass,
// and directly implemented interfaces.
func New(access uint16, name, superName string, ifaces ...string) *File {
	f := &File{cp: newPool(), access: access, thisName: name}
	f.thisIdx = f.cp.Class(name)
	f.superIdx = f.cp.Class(superName)
	for _, i := range ifaces {
		f.interfaces = append(f.interfaces, f.cp.Class(i))
	}
	return f
}

// ThisName returns the internal name the image was started with.
func (f *File) ThisName() string { return f.thisName }

// Pool exposes the constant pool for constant loads that need explicit
// indexes (ldc of method handles).
func (f *File) Pool() *Pool { return f.cp }

// AddField appends a field with no attributes.
func (f *File) AddField(access uint16, name, desc string) {
	f.fields = append(f.fields, fieldInfo{access, name, desc})
}

// NewMethod starts a method body. Methods assemble in creation order.
func (f *File) NewMethod(access uint16, name, desc string) *Method {
	m := &Method{file: f, access: access, name: name, desc: desc}
	f.methods = append(f.methods, m)
	return m
}

// AddBootstrap registers a bootstrap method and returns its index for
// invokedynamic constants.
func (f *File) AddBootstrap(handle uint16, args ...uint16) int {
	f.bootstraps = append(f.bootstraps, bootstrapInfo{handle: handle, args: args})
	return len(f.bootstraps) - 1
}

// Bytes assembles the image: branch fixups resolve, attribute names intern,
// and the pool serialises ahead of the members that reference it.
func (f *File) Bytes() ([]byte, error) {
	type methodBlob struct {
		m        *Method
		stackMap []byte
	}
	blobs := make([]methodBlob, 0, len(f.methods))
	for _, m := range f.methods {
		if err := m.resolve(); err != nil {
			return nil, err
		}
		blobs = append(blobs, methodBlob{m: m, stackMap: m.stackMap()})
	}

	// Attribute names must hit the pool before it serialises.
	codeAttr := f.cp.Utf8("Code")
	var stackMapAttr, bootstrapAttr uint16
	for _, b := range blobs {
		if b.stackMap != nil {
			stackMapAttr = f.cp.Utf8("StackMapTable")
			break
		}
	}
	if len(f.bootstraps) > 0 {
		bootstrapAttr = f.cp.Utf8("BootstrapMethods")
	}
	for _, m := range f.methods {
		f.cp.Utf8(m.name)
		f.cp.Utf8(m.desc)
	}
	for _, fd := range f.fields {
		f.cp.Utf8(fd.name)
		f.cp.Utf8(fd.desc)
	}

	var out bytes.Buffer
	u2 := func(v uint16) { _ = binary.Write(&out, binary.BigEndian, v) }
	u4 := func(v uint32) { _ = binary.Write(&out, binary.BigEndian, v) }

	u4(Magic)
	u2(0) // minor
	u2(MajorJava8)
	u2(f.cp.count())
	out.Write(f.cp.buf.Bytes())
	u2(f.access)
	u2(f.thisIdx)
	u2(f.superIdx)
	u2(uint16(len(f.interfaces)))
	for _, i := range f.interfaces {
		u2(i)
	}

	u2(uint16(len(f.fields)))
	for _, fd := range f.fields {
		u2(fd.access)
		u2(f.cp.Utf8(fd.name))
		u2(f.cp.Utf8(fd.desc))
		u2(0) // attributes
	}

	u2(uint16(len(f.methods)))
	for _, b := range blobs {
		m := b.m
		u2(m.access)
		u2(f.cp.Utf8(m.name))
		u2(f.cp.Utf8(m.desc))
		u2(1) // the Code attribute

		attrLen := 2 + 2 + 4 + len(m.code) + 2 + 2
		if b.stackMap != nil {
			attrLen += 6 + len(b.stackMap)
		}
		u2(codeAttr)
		u4(uint32(attrLen))
		u2(m.maxStack)
		u2(m.maxLocals)
		u4(uint32(len(m.code)))
		out.Write(m.code)
		u2(0) // exception table
		if b.stackMap != nil {
			u2(1)
			u2(stackMapAttr)
			u4(uint32(len(b.stackMap)))
			out.Write(b.stackMap)
		} else {
			u2(0)
		}
	}

	if len(f.bootstraps) == 0 {
		u2(0)
		return out.Bytes(), nil
	}
	u2(1)
	u2(bootstrapAttr)
	bsLen := 2
	for _, bs := range f.bootstraps {
		bsLen += 4 + 2*len(bs.args)
	}
	u4(uint32(bsLen))
	u2(uint16(len(f.bootstraps)))
	for _, bs := range f.bootstraps {
		u2(bs.handle)
		u2(uint16(len(bs.args)))
		for _, a := range bs.args {
			u2(a)
		}
	}
	return out.Bytes(), nil
}
