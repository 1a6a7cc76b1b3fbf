// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import "fmt"

// Decoder turns a sniffed UNI-TELWAY byte stream into events. It follows
// the whole bus, not a single station, so it never answers anything.
type Decoder struct {
	state   int
	marker  byte
	station byte
	length  int
	payload []byte
	raw     []byte // everything since the opening DLE
}

// NewDecoder creates a new bus decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:   decIdle,
		payload: make([]byte, 0, MaxPayloadSize),
		raw:     make([]byte, 0, 2*MaxPayloadSize+frameHeader+2),
	}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = decIdle
	d.marker = 0
	d.station = 0
	d.length = 0
	d.payload = d.payload[:0]
	d.raw = d.raw[:0]
}

// GetRawBytes returns the bytes of the sequence being decoded
func (d *Decoder) GetRawBytes() []byte {
	return d.raw
}

// DecodeByte processes a single byte through the decoder state machine.
// It returns an event once one is complete and nil otherwise. A frame
// whose BCC does not match yields a *ChecksumError.
func (d *Decoder) DecodeByte(b byte) (*Event, error) {
	if d.state != decIdle {
		d.raw = append(d.raw, b)
	}

	switch d.state {
	case decIdle:
		switch b {
		case DLE:
			d.raw = append(d.raw[:0], b)
			d.state = decControl
		case NAK:
			return newEvent(EventNak, 0, []byte{b}), nil
		}
		return nil, nil

	case decControl:
		switch b {
		case ENQ, STX, ACK:
			d.marker = b
			d.state = decAddress
		case DLE:
			// the previous DLE was noise; this one may open a sequence
			d.raw = append(d.raw[:0], b)
		default:
			d.Reset()
		}
		return nil, nil

	case decAddress:
		d.station = b
		if d.marker == ENQ {
			ev := newEvent(EventPoll, b, d.raw)
			d.Reset()
			return ev, nil
		}
		d.state = decLength
		return nil, nil

	case decLength:
		if b == DLE {
			d.state = decLengthDLE
			return nil, nil
		}
		d.startData(int(b))
		return nil, nil

	case decLengthDLE:
		d.startData(DLE)
		if b == DLE {
			return nil, nil
		}
		// undoubled length byte: b already belongs to the data
		d.dataByte(b)
		return nil, nil

	case decData:
		d.dataByte(b)
		return nil, nil

	case decDataDLE:
		d.appendData(DLE)
		if b == DLE {
			return nil, nil
		}
		// lone DLE, kept as data like Unstuff does
		if d.state == decChecksum {
			return d.checksum(b)
		}
		d.dataByte(b)
		return nil, nil

	case decChecksum:
		return d.checksum(b)

	default:
		d.Reset()
		return nil, fmt.Errorf("unitelway: invalid decoder state %d", d.state)
	}
}

// Decode feeds a whole buffer through the decoder and collects the
// resulting events and errors in stream order.
func (d *Decoder) Decode(data []byte) ([]*Event, []error) {
	var events []*Event
	var errs []error
	for _, b := range data {
		ev, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, errs
}

func (d *Decoder) startData(length int) {
	d.length = length
	d.payload = d.payload[:0]
	if length == 0 {
		d.state = decChecksum
	} else {
		d.state = decData
	}
}

// dataByte handles one raw byte inside the data section.
func (d *Decoder) dataByte(b byte) {
	if b == DLE {
		d.state = decDataDLE
		return
	}
	d.appendData(b)
}

func (d *Decoder) appendData(b byte) {
	d.payload = append(d.payload, b)
	if len(d.payload) >= d.length {
		d.state = decChecksum
	} else {
		d.state = decData
	}
}

// checksum completes the frame with its BCC byte.
// d.raw already ends with b.
func (d *Decoder) checksum(b byte) (*Event, error) {
	expected := Checksum(d.raw[:len(d.raw)-1])
	if expected != b {
		err := &ChecksumError{Expected: expected, Actual: b}
		d.Reset()
		return nil, err
	}

	kind := EventFrame
	if d.marker == ACK {
		kind = EventAck
	}

	ev := newEvent(kind, d.station, d.raw)
	payload := make([]byte, len(d.payload))
	copy(payload, d.payload)
	ev.frame = Frame{
		Start:    d.raw[0],
		Marker:   d.marker,
		Station:  d.station,
		Length:   byte(d.length),
		Payload:  payload,
		Checksum: b,
	}

	d.Reset()
	return ev, nil
}
