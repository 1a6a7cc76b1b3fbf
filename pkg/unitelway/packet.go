// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import "time"

// EventKind classifies what the passive decoder saw on the bus.
type EventKind uint8

const (
	EventPoll  EventKind = iota // DLE ENQ <address> from the master
	EventFrame                  // DLE STX data frame
	EventAck                    // DLE ACK acknowledgement frame
	EventNak                    // bare NAK byte
)

// String returns the event name used in logs and the monitor.
func (k EventKind) String() string {
	switch k {
	case EventPoll:
		return "POLL"
	case EventFrame:
		return "FRAME"
	case EventAck:
		return "ACK"
	case EventNak:
		return "NAK"
	default:
		return "UNKNOWN"
	}
}

// Event is one decoded bus exchange.
type Event struct {
	kind      EventKind
	station   byte
	frame     Frame
	raw       []byte
	timestamp time.Time

	// Cached envelope split (lazy parsing)
	xway     XwayAddress
	unite    []byte
	parsed   bool
	parseErr error
}

func newEvent(kind EventKind, station byte, raw []byte) *Event {
	r := make([]byte, len(raw))
	copy(r, raw)
	return &Event{
		kind:      kind,
		station:   station,
		raw:       r,
		timestamp: time.Now(),
	}
}

// ensureParsed splits the frame payload into header and UNI-TE payload
func (e *Event) ensureParsed() {
	if e.parsed {
		return
	}
	e.parsed = true
	if e.kind != EventFrame {
		return
	}

	p := e.frame.Payload
	e.unite, e.parseErr = Unwrap(p)
	if e.parseErr == nil {
		e.xway = XwayAddress{Type: p[0], Network: p[1], Station: p[2], Gate: p[3], Ext1: p[4], Ext2: p[5]}
	}
}

// Kind returns the event kind
func (e *Event) Kind() EventKind {
	return e.kind
}

// Station returns the link address carried by the event. NAKs carry none.
func (e *Event) Station() byte {
	return e.station
}

// Frame returns the decoded frame of a FRAME or ACK event
func (e *Event) Frame() Frame {
	return e.frame
}

// Raw returns the bytes as they were seen on the bus
func (e *Event) Raw() []byte {
	return e.raw
}

// Timestamp returns when the event was completed
func (e *Event) Timestamp() time.Time {
	return e.timestamp
}

// Xway returns the X-WAY header of a data frame.
func (e *Event) Xway() (XwayAddress, error) {
	e.ensureParsed()
	return e.xway, e.parseErr
}

// Unite returns the UNI-TE payload of a data frame.
func (e *Event) Unite() ([]byte, error) {
	e.ensureParsed()
	return e.unite, e.parseErr
}

// Code returns the UNI-TE request or response code of a data frame.
func (e *Event) Code() (byte, bool) {
	u, err := e.Unite()
	if err != nil || len(u) == 0 {
		return 0, false
	}
	return u[0], true
}
