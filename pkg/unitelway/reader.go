// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// deadliner is implemented by transports that can bound a blocking read,
// such as net.Conn.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

var (
	enquiryMarker = []byte{DLE, ENQ}
	startMarker   = []byte{DLE, STX}
)

// StripEnquiries removes every complete DLE ENQ <address> poll from buf,
// including polls that only appear once an earlier one is removed. A
// trailing DLE ENQ without its address byte is left in place. The result
// never shares memory with buf.
func StripEnquiries(buf []byte) []byte {
	out := stripOnce(buf)
	for len(out) != len(buf) {
		buf = out
		out = stripOnce(buf)
	}
	return out
}

func stripOnce(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for {
		idx := bytes.Index(buf, enquiryMarker)
		if idx < 0 || idx+2 >= len(buf) {
			return append(out, buf...)
		}
		out = append(out, buf[:idx]...)
		buf = buf[idx+3:]
	}
}

// scanStart drops polls in front of the first start marker. The returned
// buffer starts at the marker when found is true. Otherwise it holds only
// the bytes that may still begin a marker or a poll.
func scanStart(buf []byte) ([]byte, bool) {
	for {
		idx := bytes.Index(buf, startMarker)
		if idx < 0 {
			return pendingControl(StripEnquiries(buf)), false
		}

		head := StripEnquiries(buf[:idx])
		if len(head) == idx {
			return buf[idx:], true
		}
		// removing a poll may join bytes into an earlier marker
		buf = append(head, buf[idx:]...)
	}
}

// pendingControl keeps the tail of a marker-free buffer that a later read
// could complete into DLE STX or DLE ENQ <address>.
func pendingControl(buf []byte) []byte {
	n := len(buf)
	switch {
	case n >= 2 && buf[n-2] == DLE && buf[n-1] == ENQ:
		return buf[n-2:]
	case n >= 1 && buf[n-1] == DLE:
		return buf[n-1:]
	default:
		return buf[:0]
	}
}

// isTimeout reports whether err is a read deadline expiring.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// read fills part of p from the transport. It gives up with errTimedOut at
// deadline (zero means never) and with ctx.Err() on cancellation. Reads
// that time out or return nothing count as silence on the bus.
func (s *Session) read(ctx context.Context, p []byte, deadline time.Time) (int, error) {
	d, canDeadline := s.conn.(deadliner)

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if s.closed.Load() {
			return 0, ErrClosed
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return 0, errTimedOut
		}

		if canDeadline {
			slice := time.Now().Add(pollSlice)
			if !deadline.IsZero() && deadline.Before(slice) {
				slice = deadline
			}
			if err := d.SetReadDeadline(slice); err != nil {
				return 0, err
			}
		}

		n, err := s.conn.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !isTimeout(err) {
			if s.closed.Load() {
				return 0, ErrClosed
			}
			return 0, err
		}
	}
}

// readFrame waits for one complete frame addressed to this station and
// returns exactly its bytes, starting at the DLE STX marker.
func (s *Session) readFrame(ctx context.Context) ([]byte, error) {
	var deadline time.Time
	if s.cfg.Timeout > 0 {
		deadline = time.Now().Add(s.cfg.Timeout)
	}

	state := stateScanning
	skipping := false
	var buf []byte
	chunk := make([]byte, scanChunk)
	tail := make([]byte, MaxTail)
	tailRead := 0

	for {
		switch state {
		case stateScanning:
			n, err := s.read(ctx, chunk, deadline)
			if errors.Is(err, errTimedOut) {
				state = stateTimedOut
				continue
			}
			if err != nil {
				return nil, err
			}
			if len(buf) == 0 && chunk[0] == NAK {
				state = stateNacked
				continue
			}
			buf = append(buf, chunk[:n]...)

			for {
				if skipping {
					// a foreign frame is dropped whole so its data
					// cannot be mistaken for a start marker
					end, ok := FrameLength(buf)
					if !ok {
						break
					}
					buf = buf[end:]
					skipping = false
				}

				var found bool
				buf, found = scanStart(buf)
				if !found || len(buf) < 3 {
					break
				}
				if buf[2] == s.cfg.Station {
					state = stateFoundStart
					break
				}
				s.log.Trace().
					Hex("station", buf[2:3]).
					Msg("skipping frame for another station")
				skipping = true
			}

		case stateFoundStart:
			if n, ok := FrameLength(buf); ok {
				buf = buf[:n]
				state = stateComplete
				continue
			}
			if tailRead >= MaxTail {
				// let ParseFrame report what is wrong with it
				state = stateComplete
				continue
			}
			n, err := s.read(ctx, tail[:MaxTail-tailRead], deadline)
			if errors.Is(err, errTimedOut) {
				s.log.Debug().Hex("partial", buf).Msg("response cut short")
				state = stateTimedOut
				continue
			}
			if err != nil {
				return nil, err
			}
			tailRead += n
			buf = append(buf, tail[:n]...)

		case stateComplete:
			return buf, nil

		case stateTimedOut:
			return nil, errTimedOut

		case stateNacked:
			return nil, ErrNack
		}
	}
}
