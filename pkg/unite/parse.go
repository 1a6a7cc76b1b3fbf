// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import (
	"encoding/binary"
	"math"
)

// Bit is one bit read from the device.
type Bit struct {
	Address uint16
	Value   bool
	Forced  bool // always false for system bits
}

// BitGroup is the aligned block of eight bits a single-bit read returns.
// Base is a multiple of 8.
type BitGroup struct {
	Base       uint16
	Values     byte // bit i is address Base+i
	Forcing    byte
	HasForcing bool
}

// Contains reports whether addr falls inside the group.
func (g BitGroup) Contains(addr uint16) bool {
	return addr >= g.Base && addr-g.Base < 8
}

// Value returns the value of addr. ok is false outside the group.
func (g BitGroup) Value(addr uint16) (value, ok bool) {
	if !g.Contains(addr) {
		return false, false
	}
	return g.Values&(1<<(addr-g.Base)) != 0, true
}

// Forced reports whether addr is forced.
func (g BitGroup) Forced(addr uint16) bool {
	if !g.HasForcing || !g.Contains(addr) {
		return false
	}
	return g.Forcing&(1<<(addr-g.Base)) != 0
}

// Bits expands the group in address order.
func (g BitGroup) Bits() []Bit {
	bits := make([]Bit, 8)
	for i := range bits {
		addr := g.Base + uint16(i)
		v, _ := g.Value(addr)
		bits[i] = Bit{Address: addr, Value: v, Forced: g.Forced(addr)}
	}
	return bits
}

// Value is one numeric object with the address it was read from.
type Value[T int16 | int32 | float32] struct {
	Address uint16
	Value   T
}

// alignBit returns the first address of the 8-bit block holding addr.
func alignBit(addr uint16) uint16 {
	return addr &^ 7
}

// ParseBitGroup decodes a single-bit read response (without the response
// code): the value byte, then the forcing byte for internal bits.
func ParseBitGroup(addr uint16, data []byte, hasForcing bool) (BitGroup, error) {
	want := 1
	if hasForcing {
		want = 2
	}
	if len(data) < want {
		return BitGroup{}, shortResponse(want, len(data))
	}

	g := BitGroup{Base: alignBit(addr), Values: data[0], HasForcing: hasForcing}
	if hasForcing {
		g.Forcing = data[1]
	}
	return g, nil
}

// ParseBits decodes a multi-bit object read (without the response code):
// the object type echo, count/8 value bytes and, with forcing, count/8
// forcing bytes. The first bit is start, not an aligned address.
func ParseBits(objType byte, start uint16, count int, data []byte, hasForcing bool) ([]Bit, error) {
	if err := checkType(objType, data); err != nil {
		return nil, err
	}
	data = data[1:]

	n := count / 8
	want := n
	if hasForcing {
		want = 2 * n
	}
	if len(data) < want {
		return nil, shortResponse(want+1, len(data)+1)
	}

	bits := make([]Bit, count)
	for i := 0; i < count; i++ {
		mask := byte(1) << (i % 8)
		bits[i] = Bit{
			Address: start + uint16(i),
			Value:   data[i/8]&mask != 0,
		}
		if hasForcing {
			bits[i].Forced = data[n+i/8]&mask != 0
		}
	}
	return bits, nil
}

// ParseWord decodes a signed little-endian word.
func ParseWord(data []byte) (int16, error) {
	if len(data) < 2 {
		return 0, shortResponse(2, len(data))
	}
	return int16(binary.LittleEndian.Uint16(data)), nil
}

// ParseDword decodes a signed little-endian double word.
func ParseDword(data []byte) (int32, error) {
	if len(data) < 4 {
		return 0, shortResponse(4, len(data))
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}

// ParseWords decodes a word object read (without the response code).
func ParseWords(start uint16, count int, data []byte) ([]Value[int16], error) {
	body, err := objectBody(TypeWord, count*2, data)
	if err != nil {
		return nil, err
	}
	values := make([]Value[int16], count)
	for i := range values {
		values[i] = Value[int16]{
			Address: start + uint16(i),
			Value:   int16(binary.LittleEndian.Uint16(body[2*i:])),
		}
	}
	return values, nil
}

// ParseDwords decodes a double word object read. Double words occupy two
// word addresses, so the address advances by 2 per element.
func ParseDwords(start uint16, count int, data []byte) ([]Value[int32], error) {
	body, err := objectBody(TypeDword, count*4, data)
	if err != nil {
		return nil, err
	}
	values := make([]Value[int32], count)
	for i := range values {
		values[i] = Value[int32]{
			Address: start + uint16(2*i),
			Value:   int32(binary.LittleEndian.Uint32(body[4*i:])),
		}
	}
	return values, nil
}

// ParseFloats decodes an IEEE 754 single precision object read. Like
// double words, floats advance the address by 2 per element.
func ParseFloats(start uint16, count int, data []byte) ([]Value[float32], error) {
	body, err := objectBody(TypeFloat, count*4, data)
	if err != nil {
		return nil, err
	}
	values := make([]Value[float32], count)
	for i := range values {
		values[i] = Value[float32]{
			Address: start + uint16(2*i),
			Value:   math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:])),
		}
	}
	return values, nil
}

func checkType(objType byte, data []byte) error {
	if len(data) < 1 {
		return shortResponse(1, 0)
	}
	if data[0] != objType {
		return &UnexpectedResponseError{Expected: objType, Actual: data[0], ObjectType: true}
	}
	return nil
}

// objectBody checks the type echo and returns the size bytes after it.
func objectBody(objType byte, size int, data []byte) ([]byte, error) {
	if err := checkType(objType, data); err != nil {
		return nil, err
	}
	if len(data)-1 < size {
		return nil, shortResponse(size+1, len(data))
	}
	return data[1 : 1+size], nil
}

// putWords encodes words for an object write.
func putWords(values []int16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

// putDwords encodes double words for an object write.
func putDwords(values []int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}
