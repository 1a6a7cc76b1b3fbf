// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import "fmt"

// Frame is a checksum-verified, de-stuffed UNI-TELWAY frame.
type Frame struct {
	Start    byte // always DLE on the wire
	Marker   byte // STX for data, ACK for acknowledgements
	Station  byte
	Length   byte   // unstuffed payload length
	Payload  []byte // X-WAY envelope for data frames
	Checksum byte
}

// Unstuff is the inverse of Stuff. A DLE is dropped only when the previous
// output byte is a DLE that has not already absorbed its partner, so a run
// of 2n DLEs yields n. A DLE followed by any other byte is kept as is; that
// can only come from a sender that did not stuff correctly.
func Unstuff(data []byte) []byte {
	result := make([]byte, 0, len(data))
	pending := false

	for _, b := range data {
		if b == DLE {
			if pending {
				pending = false
				continue
			}
			result = append(result, b)
			pending = true
			continue
		}
		result = append(result, b)
		pending = false
	}

	return result
}

// FrameLength reports how many raw bytes at the head of raw make up one
// complete frame. It returns false while the frame is still incomplete.
// raw must start at the start marker.
func FrameLength(raw []byte) (int, bool) {
	if len(raw) < frameHeader {
		return 0, false
	}

	i := 3
	length := raw[i]
	i++
	if length == DLE {
		if len(raw) <= i {
			return 0, false
		}
		if raw[i] == DLE {
			i++
		}
	}

	for count := 0; count < int(length); count++ {
		if i >= len(raw) {
			return 0, false
		}
		if raw[i] == DLE {
			if i+1 >= len(raw) {
				return 0, false
			}
			if raw[i+1] == DLE {
				i++
			}
		}
		i++
	}

	// BCC
	if i >= len(raw) {
		return 0, false
	}
	return i + 1, true
}

// ParseFrame verifies and de-stuffs the frame at the head of raw. Bytes
// after the end of the frame are ignored.
func ParseFrame(raw []byte) (Frame, error) {
	n, ok := FrameLength(raw)
	if !ok {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(raw))
	}
	raw = raw[:n]

	if !VerifyChecksum(raw) {
		return Frame{}, &ChecksumError{
			Expected: Checksum(raw[:n-1]),
			Actual:   raw[n-1],
		}
	}

	// length byte and data, without the header and the BCC
	body := Unstuff(raw[3 : n-1])
	length := int(body[0])
	if len(body)-1 < length {
		return Frame{}, fmt.Errorf("%w: length %d, got %d data bytes", ErrShortFrame, length, len(body)-1)
	}

	payload := make([]byte, length)
	copy(payload, body[1:1+length])

	return Frame{
		Start:    raw[0],
		Marker:   raw[1],
		Station:  raw[2],
		Length:   body[0],
		Payload:  payload,
		Checksum: raw[n-1],
	}, nil
}
