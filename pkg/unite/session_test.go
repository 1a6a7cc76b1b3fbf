// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const station = 5

// device plays a slave's partner at the other end of a pipe: it reads one
// frame at a time and answers UNI-TE requests with handle.
type device struct {
	conn   net.Conn
	addr   unitelway.XwayAddress
	handle func(req []byte) []byte
}

func (d *device) readFrame() (unitelway.Frame, error) {
	var buf []byte
	chunk := make([]byte, 64)
	for {
		n, err := d.conn.Read(chunk)
		if err != nil {
			return unitelway.Frame{}, err
		}
		buf = append(buf, chunk[:n]...)
		if size, ok := unitelway.FrameLength(buf); ok {
			return unitelway.ParseFrame(buf[:size])
		}
	}
}

func (d *device) answer() error {
	f, err := d.readFrame()
	if err != nil {
		return err
	}
	if f.Station != station {
		return fmt.Errorf("request from station %d", f.Station)
	}

	req, err := unitelway.Unwrap(f.Payload)
	if err != nil {
		return err
	}

	frame, err := unitelway.BuildFrame(unitelway.DLE, unitelway.STX, station,
		unitelway.Wrap(d.handle(req), d.addr))
	if err != nil {
		return err
	}
	_, err = d.conn.Write(frame)
	return err
}

// serve runs fn on its own goroutine and returns its result channel.
func serve(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return done
}

func pipeSession(t *testing.T, vpn bool) (*unite.Client, *device) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { remote.Close() })

	cfg := unitelway.DefaultConfig()
	cfg.Station = station
	cfg.Category = 7
	cfg.VPN = vpn
	cfg.Timeout = time.Second
	cfg.MaxAttempts = 3

	s, err := unitelway.New(local, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return unite.NewClient(s), &device{conn: remote, addr: cfg.Address}
}

func TestSessionMirrorVPN(t *testing.T) {
	c, dev := pipeSession(t, true)
	dev.handle = func(req []byte) []byte {
		return append([]byte{unite.RespMirror}, req[2:]...)
	}

	// 0x10 in the data exercises stuffing both ways
	data := []byte{0x10, 0x42, 0x10, 0x10}
	done := serve(dev.answer)

	ok, err := c.Mirror(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, <-done)
}

func TestSessionPolledReadWords(t *testing.T) {
	c, dev := pipeSession(t, false)
	var code byte
	dev.handle = func(req []byte) []byte {
		code = req[0]
		return []byte{0x66, unite.TypeWord, 0x2A, 0x00, 0x10, 0x00}
	}

	done := serve(func() error {
		// a poll for another station comes first
		poll := []byte{unitelway.DLE, unitelway.ENQ, 3, unitelway.DLE, unitelway.ENQ, station}
		if _, err := dev.conn.Write(poll); err != nil {
			return err
		}
		if err := dev.answer(); err != nil {
			return err
		}

		ack, err := dev.readFrame()
		if err != nil {
			return err
		}
		if ack.Marker != unitelway.ACK || len(ack.Payload) != 0 {
			return fmt.Errorf("expected empty ACK frame, got marker 0x%02X", ack.Marker)
		}
		return nil
	})

	words, err := c.ReadInternalWords(context.Background(), 100, 2)
	require.NoError(t, err)
	assert.Equal(t, []unite.Value[int16]{{Address: 100, Value: 42}, {Address: 101, Value: 16}}, words)
	require.NoError(t, <-done)
	assert.Equal(t, byte(unite.ReqReadObjects), code)
}

func TestSessionRequestFailed(t *testing.T) {
	c, dev := pipeSession(t, true)
	dev.handle = func([]byte) []byte { return []byte{unite.RespFailure} }

	done := serve(dev.answer)

	err := c.WriteInternalWord(context.Background(), 1, 1)
	assert.ErrorIs(t, err, unitelway.ErrRequestFailed)
	require.NoError(t, <-done)
}
