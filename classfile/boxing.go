// Copyright 2026 The JVMGlue Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

// Boxing describes the standard valueOf/xValue pair for one primitive.
type Boxing struct {
	Box         string // internal name of the box class
	ValueOfDesc string // descriptor of the static valueOf method
	Unbox       string // name of the accessor (intValue, longValue, …)
	UnboxDesc   string // descriptor of the accessor
}

var boxings = map[byte]Boxing{
	'I': {"java/lang/Integer", "(I)Ljava/lang/Integer;", "intValue", "()I"},
	'J': {"java/lang/Long", "(J)Ljava/lang/Long;", "longValue", "()J"},
	'F': {"java/lang/Float", "(F)Ljava/lang/Float;", "floatValue", "()F"},
	'D': {"java/lang/Double", "(D)Ljava/lang/Double;", "doubleValue", "()D"},
	'Z': {"java/lang/Boolean", "(Z)Ljava/lang/Boolean;", "booleanValue", "()Z"},
	'B': {"java/lang/Byte", "(B)Ljava/lang/Byte;", "byteValue", "()B"},
	'C': {"java/lang/Character", "(C)Ljava/lang/Character;", "charValue", "()C"},
	'S': {"java/lang/Short", "(S)Ljava/lang/Short;", "shortValue", "()S"},
}

// BoxingOf returns the boxing pair for a primitive descriptor character.
func BoxingOf(desc byte) (Boxing, bool) {
	b, ok := boxings[desc]
	return b, ok
}

// LoadOp returns the load opcode for a descriptor's leading character.
func LoadOp(desc byte) byte {
	switch desc {
	case 'I', 'Z', 'B', 'C', 'S':
		return OpIload
	case 'J':
		return OpLload
	case 'F':
		return OpFload
	case 'D':
		return OpDload
	default:
		return OpAload
	}
}

// ReturnOp returns the return opcode for a descriptor's leading character.
func ReturnOp(desc byte) byte {
	switch desc {
	case 'I', 'Z', 'B', 'C', 'S':
		return OpIreturn
	case 'J':
		return OpLreturn
	case 'F':
		return OpFreturn
	case 'D':
		return OpDreturn
	case 'V':
		return OpReturn
	default:
		return OpAreturn
	}
}

// SlotWidth returns the local-variable slots a descriptor consumes.
func SlotWidth(desc byte) int {
	if desc == 'J' || desc == 'D' {
		return 2
	}
	return 1
}
