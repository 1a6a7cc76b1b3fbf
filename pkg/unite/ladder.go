// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import (
	"fmt"
	"strconv"
	"strings"
)

// symbolBounds holds the last valid byte offset of each ladder symbol.
var symbolBounds = map[string]uint16{
	"%M": 0x77FF,
	"%V": 0x7FFF,
	"%I": 0x6F3F,
	"%Q": 0x6F3F,
	"%R": 0x0F7F,
	"%W": 0x0F7F,
	"%S": 0x3F7F,
}

// ladderSizes maps a size suffix to its width in bytes. & is a 4-byte
// address.
var ladderSizes = map[byte]int{
	'B': 1,
	'W': 2,
	'L': 4,
	'&': 4,
}

// LadderAddress is a byte-level ladder variable address such as %M1F.W:
// symbol, hexadecimal byte offset and size suffix.
type LadderAddress struct {
	Symbol string
	Offset uint16
	Suffix byte
	Size   int
}

// String formats the address in the form ParseLadderAddress accepts.
func (a LadderAddress) String() string {
	return fmt.Sprintf("%s%X.%c", a.Symbol, a.Offset, a.Suffix)
}

// ParseLadderAddress parses %<symbol><hex offset>[.<B|W|L|&>]. The size
// defaults to B. The whole variable must fit below the symbol bound.
func ParseLadderAddress(s string) (LadderAddress, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 3 || s[0] != '%' {
		return LadderAddress{}, invalidParam("ladder address %q", s)
	}

	symbol := s[:2]
	bound, ok := symbolBounds[symbol]
	if !ok {
		return LadderAddress{}, invalidParam("unknown ladder symbol %q", symbol)
	}

	rest := s[2:]
	suffix := byte('B')
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		if len(rest) != i+2 {
			return LadderAddress{}, invalidParam("ladder size in %q", s)
		}
		suffix = rest[i+1]
		rest = rest[:i]
	}
	size, ok := ladderSizes[suffix]
	if !ok {
		return LadderAddress{}, invalidParam("ladder size %q", suffix)
	}

	offset, err := strconv.ParseUint(rest, 16, 16)
	if err != nil {
		return LadderAddress{}, invalidParam("ladder offset %q", rest)
	}
	if offset+uint64(size)-1 > uint64(bound) {
		return LadderAddress{}, invalidParam("%s%X.%c beyond %s bound 0x%X", symbol, offset, suffix, symbol, bound)
	}

	return LadderAddress{
		Symbol: symbol,
		Offset: uint16(offset),
		Suffix: suffix,
		Size:   size,
	}, nil
}
