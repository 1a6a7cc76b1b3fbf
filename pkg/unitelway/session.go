// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Direction tells a FrameHook which way a frame travelled.
type Direction uint8

const (
	Outbound Direction = iota
	Inbound
)

// String returns "tx" or "rx".
func (d Direction) String() string {
	if d == Inbound {
		return "rx"
	}
	return "tx"
}

// FrameHook observes every raw frame a session sends or accepts. It runs
// with the session lock held and must not call back into the session.
type FrameHook func(dir Direction, station byte, frame []byte)

// Config holds the per-session settings. They are fixed once the session
// is created.
type Config struct {
	Station  byte // our UNI-TELWAY link address
	Category byte // UNI-TE category code, 0-7
	Address  XwayAddress

	// VPN sends without waiting for a poll and skips the ACK; used when a
	// gateway handles the bus discipline for us.
	VPN bool

	// Timeout bounds the wait for a response before the request is sent
	// again. Zero waits forever.
	Timeout time.Duration

	// MaxAttempts caps the number of sends per transaction. Zero retries
	// until a response arrives.
	MaxAttempts int

	Logger  *zerolog.Logger // nil disables logging
	OnFrame FrameHook
}

// DefaultConfig returns the settings of a standalone slave at link
// address 1 with the standard response timeout.
func DefaultConfig() Config {
	return Config{
		Station:  1,
		Category: 0,
		Address:  NewXwayAddress(0, 0, 0, 0, 0),
		Timeout:  DefaultTimeout,
	}
}

// Validate checks the ranges the wire format cannot express.
func (c Config) Validate() error {
	if c.Category > 7 {
		return fmt.Errorf("unitelway: category %d out of range 0-7", c.Category)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("unitelway: negative timeout %s", c.Timeout)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("unitelway: negative attempt limit %d", c.MaxAttempts)
	}
	return nil
}

// Session is one UNI-TELWAY slave on a shared transport. Transactions are
// serialized: only one request may be outstanding on the bus.
type Session struct {
	mu     sync.Mutex
	conn   io.ReadWriter
	cfg    Config
	log    zerolog.Logger
	closed atomic.Bool
}

// New creates a session over conn. If conn also implements
// SetReadDeadline, blocked reads notice context cancellation; otherwise
// closing the transport is the only way to interrupt them.
func New(conn io.ReadWriter, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Session{
		conn: conn,
		cfg:  cfg,
		log: logger.With().
			Str("component", "unitelway").
			Uint8("station", cfg.Station).
			Logger(),
	}, nil
}

// Config returns the session settings.
func (s *Session) Config() Config {
	return s.cfg
}

// Category returns the UNI-TE category code carried in every request.
func (s *Session) Category() byte {
	return s.cfg.Category
}

// AwaitTurn blocks until the bus master polls this station with
// DLE ENQ <station>. There is no timeout; use ctx to give up.
func (s *Session) AwaitTurn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.awaitTurn(ctx)
}

func (s *Session) awaitTurn(ctx context.Context) error {
	want := []byte{DLE, ENQ, s.cfg.Station}
	chunk := make([]byte, scanChunk)
	var buf []byte

	for {
		n, err := s.read(ctx, chunk, time.Time{})
		if err != nil {
			return err
		}
		buf = append(buf, chunk[:n]...)

		if bytes.Contains(buf, want) {
			s.log.Trace().Msg("polled")
			return nil
		}
		// keep what could still be the start of our poll
		if len(buf) > len(want)-1 {
			buf = buf[len(buf)-(len(want)-1):]
		}
	}
}

// Transact sends a UNI-TE request and returns the UNI-TE response.
//
// Only a missing response is retried, by sending the identical request
// again. In VPN mode the request is sent straight away; otherwise every
// send waits for a poll and an accepted response is acknowledged. A NAK,
// a bad checksum, a refused route and a failed request all end the
// transaction at once.
func (s *Session) Transact(ctx context.Context, payload []byte) ([]byte, error) {
	frame, err := EncodeRequest(s.cfg.Station, s.cfg.Address, payload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if s.closed.Load() {
			return nil, ErrClosed
		}
		if s.cfg.MaxAttempts > 0 && attempt > s.cfg.MaxAttempts {
			return nil, fmt.Errorf("%w (%d)", ErrAttemptsExhausted, s.cfg.MaxAttempts)
		}

		if !s.cfg.VPN {
			if err := s.awaitTurn(ctx); err != nil {
				return nil, err
			}
		}

		if err := s.send(frame); err != nil {
			return nil, err
		}

		raw, err := s.readFrame(ctx)
		if errors.Is(err, errTimedOut) {
			s.log.Debug().Int("attempt", attempt).Msg("no response, resending")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Debug().Hex("frame", raw).Msg("received")
		if s.cfg.OnFrame != nil {
			s.cfg.OnFrame(Inbound, s.cfg.Station, raw)
		}

		resp, err := DecodeResponse(raw)
		if err != nil {
			return nil, err
		}

		if !s.cfg.VPN {
			if err := s.send(EncodeAck(s.cfg.Station)); err != nil {
				return nil, err
			}
		}

		return resp, nil
	}
}

func (s *Session) send(frame []byte) error {
	s.log.Debug().Hex("frame", frame).Msg("sending")
	if s.cfg.OnFrame != nil {
		s.cfg.OnFrame(Outbound, s.cfg.Station, frame)
	}

	if _, err := s.conn.Write(frame); err != nil {
		if s.closed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("unitelway: write: %w", err)
	}
	return nil
}

// Close marks the session closed and closes the transport when it is an
// io.Closer. It may be called while a transaction is blocked; that
// transaction then fails with ErrClosed.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if c, ok := s.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
