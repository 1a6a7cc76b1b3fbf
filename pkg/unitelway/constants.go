// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package unitelway implements the UNI-TELWAY link layer used to reach
// UNI-TE devices (NUM CNCs, TSX PLCs) over a polled master/slave bus.
//
// UNI-TELWAY is half duplex: the bus master polls each slave with
// DLE ENQ <address> and a slave may only transmit inside that window.
// Frames are DLE STX <address> <length> <data> <BCC>, with every DLE in
// the data doubled. The data of a request frame is an X-WAY envelope
// around a UNI-TE payload.
package unitelway

import "time"

// Link control bytes
const (
	DLE = 0x10
	STX = 0x02
	ENQ = 0x05
	ACK = 0x06
	NAK = 0x15
)

// Envelope sentinels
const (
	// XwayStandard is the X-WAY type byte of an ordinary routed message.
	XwayStandard = 0x20
	// XwayRefused is the X-WAY type byte of a message refused by the bus.
	XwayRefused = 0x22
	// UniteFailure is the UNI-TE response code of a rejected request.
	UniteFailure = 0xFD
)

// Sizes
const (
	XwayHeaderSize = 6
	frameHeader    = 4 // DLE STX <address> <length>
	MaxTail        = 256
	scanChunk      = 3
	MaxPayloadSize = 255
)

// Timing
const (
	DefaultTimeout = 2 * time.Second

	// pollSlice bounds a single blocking read so cancellation is noticed
	// on transports that support read deadlines.
	pollSlice = 100 * time.Millisecond
)

// Reader states
const (
	stateScanning = iota
	stateFoundStart
	stateComplete
	stateTimedOut
	stateNacked
)

// Passive decoder states (internal)
const (
	decIdle = iota
	decControl
	decAddress
	decLength
	decLengthDLE
	decData
	decDataDLE
	decChecksum
)
