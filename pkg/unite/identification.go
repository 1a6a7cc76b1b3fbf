// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import (
	"fmt"
	"strings"
)

// ProductUnknown is the name of a product type missing from the table.
const ProductUnknown = "UNKNOWN"

// productNames maps the identification product type byte to a name.
var productNames = map[byte]string{
	0x01: "NUM 1020",
	0x02: "NUM 1040",
	0x03: "NUM 1060",
	0x04: "NUM 1050",
	0x05: "NUM 760",
	0x06: "NUM 750",
	0x07: "NUM 720",
	0x17: "TSX 7",
}

// ProductName returns the name of a product type, or ProductUnknown.
func ProductName(productType byte) string {
	if name, ok := productNames[productType]; ok {
		return name
	}
	return ProductUnknown
}

// UnitIdentification is the decoded identification response.
type UnitIdentification struct {
	ProductType byte
	ProductName string
	Subtype     byte // ASCII letter
	Version     byte
	Text        string
}

// Known reports whether the product type is in the table.
func (u UnitIdentification) Known() bool {
	return u.ProductName != ProductUnknown
}

// String formats the identification on one line.
func (u UnitIdentification) String() string {
	return fmt.Sprintf("%s (type 0x%02X) subtype %c version %d %q",
		u.ProductName, u.ProductType, u.Subtype, u.Version, u.Text)
}

// ParseIdentification decodes an identification response (without the
// response code): product type, subtype, version, then free text.
func ParseIdentification(data []byte) (UnitIdentification, error) {
	if len(data) < 3 {
		return UnitIdentification{}, shortResponse(4, len(data)+1)
	}

	return UnitIdentification{
		ProductType: data[0],
		ProductName: ProductName(data[0]),
		Subtype:     data[1],
		Version:     data[2],
		Text:        strings.TrimRight(string(data[3:]), "\x00 "),
	}, nil
}
