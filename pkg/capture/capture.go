// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records UNI-TELWAY frames to a CBOR sequence and reads
// them back for replay.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/fxamacker/cbor/v2"
)

// Record is one captured frame.
type Record struct {
	Time      time.Time
	Direction unitelway.Direction
	Station   byte
	Frame     []byte
}

// IsResponse reports whether the record is an inbound data frame, the kind
// that carries a UNI-TE response.
func (r Record) IsResponse() bool {
	return r.Direction == unitelway.Inbound &&
		len(r.Frame) > 1 && r.Frame[1] == unitelway.STX
}

// Decode returns the UNI-TE payload of the frame.
func (r Record) Decode() ([]byte, error) {
	if r.Direction == unitelway.Inbound {
		return unitelway.DecodeResponse(r.Frame)
	}
	f, err := unitelway.ParseFrame(r.Frame)
	if err != nil {
		return nil, err
	}
	return unitelway.Unwrap(f.Payload)
}

// wireRecord is the on-disk form: a 4-element array with the time in
// nanoseconds since the epoch.
type wireRecord struct {
	_         struct{} `cbor:",toarray"`
	Time      int64
	Direction uint8
	Station   uint8
	Frame     []byte
}

// Recorder writes frames to w. Its Hook method is a unitelway.FrameHook.
type Recorder struct {
	mu    sync.Mutex
	enc   *cbor.Encoder
	count int
	err   error
	now   func() time.Time
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: cbor.NewEncoder(w), now: time.Now}
}

// Hook records one frame. A write error stops the recording; Err
// reports it.
func (r *Recorder) Hook(dir unitelway.Direction, station byte, frame []byte) {
	r.Write(Record{Time: r.now(), Direction: dir, Station: station, Frame: frame})
}

// Write records rec.
func (r *Recorder) Write(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	err := r.enc.Encode(wireRecord{
		Time:      rec.Time.UnixNano(),
		Direction: uint8(rec.Direction),
		Station:   rec.Station,
		Frame:     rec.Frame,
	})
	if err != nil {
		r.err = fmt.Errorf("capture: write: %w", err)
		return r.err
	}
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Reader reads records written by a Recorder.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a reader over rd.
func NewReader(rd io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(rd)}
}

// Next returns the next record, or io.EOF at the end of the capture.
func (r *Reader) Next() (Record, error) {
	var w wireRecord
	if err := r.dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: read: %w", err)
	}

	return Record{
		Time:      time.Unix(0, w.Time),
		Direction: unitelway.Direction(w.Direction),
		Station:   w.Station,
		Frame:     w.Frame,
	}, nil
}

// ReadAll calls fn for every record until the end of the capture or the
// first error.
func (r *Reader) ReadAll(fn func(Record) error) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
