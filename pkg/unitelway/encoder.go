// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import "fmt"

// BuildFrame creates a complete wire-formatted UNI-TELWAY frame:
//
//	start marker station [DLE] length stuffed-payload... BCC
//
// The length byte is the unstuffed payload length. When it equals DLE it is
// preceded by an extra DLE. The BCC covers every byte actually sent,
// stuffing included, and is not itself stuffed.
func BuildFrame(start, marker, station byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, frameHeader+2*len(payload)+2)
	frame = append(frame, start, marker, station)

	length := byte(len(payload))
	if length == DLE {
		frame = append(frame, DLE)
	}
	frame = append(frame, length)
	frame = append(frame, Stuff(payload)...)

	return append(frame, Checksum(frame)), nil
}

// EncodeRequest wraps a UNI-TE payload in the X-WAY envelope for addr and
// frames it as a data frame from station.
func EncodeRequest(station byte, addr XwayAddress, payload []byte) ([]byte, error) {
	return BuildFrame(DLE, STX, station, Wrap(payload, addr))
}

// EncodeAck builds the acknowledgement a slave sends after accepting a
// response: an empty frame whose marker is ACK.
func EncodeAck(station byte) []byte {
	frame, _ := BuildFrame(DLE, ACK, station, nil)
	return frame
}

// Stuff doubles every DLE so the receiver can tell data from link control.
func Stuff(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)

	for _, b := range data {
		if b == DLE {
			result = append(result, DLE, DLE)
		} else {
			result = append(result, b)
		}
	}

	return result
}
