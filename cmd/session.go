// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Thermoquad/unitelway/pkg/capture"
	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/Thermoquad/unitelway/pkg/unitelway"
)

// sessionConfig builds the session settings from the persistent flags.
func sessionConfig() unitelway.Config {
	cfg := unitelway.DefaultConfig()
	cfg.Station = station
	cfg.Category = category
	cfg.Address = unitelway.NewXwayAddress(xwayNetwork, xwayStation, xwayGate, xwayExt1, xwayExt2)
	cfg.VPN = vpnMode
	cfg.Timeout = timeout
	cfg.MaxAttempts = maxAttempts
	cfg.Logger = &logger
	return cfg
}

// clientSession is an open connection with a UNI-TE client on top.
type clientSession struct {
	client  *unite.Client
	session *unitelway.Session
	info    string

	conn     Connection
	recorder *capture.Recorder
	capture  *os.File
}

// openClient opens the connection, the session and the optional capture
// file.
func openClient() (*clientSession, error) {
	conn, info, err := OpenConnection()
	if err != nil {
		return nil, err
	}

	cs := &clientSession{conn: conn, info: info}
	cfg := sessionConfig()

	if recordPath != "" {
		f, err := os.Create(recordPath)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create capture file: %w", err)
		}
		cs.capture = f
		cs.recorder = capture.NewRecorder(f)
		cfg.OnFrame = cs.recorder.Hook
	}

	cs.session, err = unitelway.New(conn, cfg)
	if err != nil {
		cs.Close()
		return nil, err
	}
	cs.client = unite.NewClient(cs.session).WithLogger(logger)

	logger.Info().
		Str("connection", info).
		Uint8("station", cfg.Station).
		Bool("vpn", cfg.VPN).
		Dur("timeout", cfg.Timeout).
		Msg("session open")
	return cs, nil
}

// Close closes the session and flushes the capture file.
func (cs *clientSession) Close() error {
	var err error
	if cs.session != nil {
		err = cs.session.Close()
	} else {
		err = cs.conn.Close()
	}

	if cs.capture != nil {
		if rerr := cs.recorder.Err(); rerr != nil {
			logger.Error().Err(rerr).Msg("capture incomplete")
		}
		logger.Info().Int("frames", cs.recorder.Count()).Str("file", recordPath).Msg("capture written")
		if cerr := cs.capture.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// withClient runs fn with an open client and a context cancelled by
// Ctrl+C.
func withClient(fn func(ctx context.Context, c *unite.Client) error) error {
	cs, err := openClient()
	if err != nil {
		return err
	}
	defer cs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return fn(ctx, cs.client)
}
