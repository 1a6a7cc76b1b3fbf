// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import "fmt"

// XwayAddress is the X-WAY routing header that precedes every UNI-TE
// payload. It is fixed for the lifetime of a session.
type XwayAddress struct {
	Type    byte // XwayStandard unless the device expects otherwise
	Network byte
	Station byte
	Gate    byte
	Ext1    byte
	Ext2    byte
}

// NewXwayAddress returns a standard X-WAY address.
func NewXwayAddress(network, station, gate, ext1, ext2 byte) XwayAddress {
	return XwayAddress{
		Type:    XwayStandard,
		Network: network,
		Station: station,
		Gate:    gate,
		Ext1:    ext1,
		Ext2:    ext2,
	}
}

// Bytes returns the header as it appears on the wire.
func (a XwayAddress) Bytes() [XwayHeaderSize]byte {
	return [XwayHeaderSize]byte{a.Type, a.Network, a.Station, a.Gate, a.Ext1, a.Ext2}
}

// String formats the address for logs.
func (a XwayAddress) String() string {
	return fmt.Sprintf("%02X:%d.%d gate %d ext %d/%d", a.Type, a.Network, a.Station, a.Gate, a.Ext1, a.Ext2)
}

// Wrap prepends the X-WAY header to a UNI-TE payload.
func Wrap(payload []byte, addr XwayAddress) []byte {
	header := addr.Bytes()
	xway := make([]byte, 0, XwayHeaderSize+len(payload))
	xway = append(xway, header[:]...)
	return append(xway, payload...)
}

// Unwrap strips the X-WAY header and returns the UNI-TE payload.
func Unwrap(xway []byte) ([]byte, error) {
	if len(xway) > 0 && xway[0] == XwayRefused {
		return nil, ErrRoutingRefused
	}
	if len(xway) < XwayHeaderSize {
		return nil, fmt.Errorf("%w: X-WAY header needs %d bytes, got %d", ErrShortFrame, XwayHeaderSize, len(xway))
	}
	return xway[XwayHeaderSize:], nil
}

// DecodeResponse turns a raw response frame into its UNI-TE payload:
// checksum, de-stuffing, X-WAY unwrap, then the UNI-TE failure check.
func DecodeResponse(raw []byte) ([]byte, error) {
	frame, err := ParseFrame(raw)
	if err != nil {
		return nil, err
	}

	payload, err := Unwrap(frame.Payload)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 && payload[0] == UniteFailure {
		return nil, ErrRequestFailed
	}

	return payload, nil
}
