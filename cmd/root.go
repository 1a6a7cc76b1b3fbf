// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/spf13/cobra"
)

var (
	// TCP connection flags
	tcpAddr string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Session flags
	station     uint8
	category    uint8
	xwayNetwork uint8
	xwayStation uint8
	xwayGate    uint8
	xwayExt1    uint8
	xwayExt2    uint8
	vpnMode     bool
	timeout     time.Duration
	maxAttempts int

	configPath string
	logLevel   string
	recordPath string
)

var rootCmd = &cobra.Command{
	Use:   "unitelway",
	Short: "UNI-TELWAY / UNI-TE client and bus analyzer",
	Long: `unitelway - A CLI tool for talking to NUM CNCs and Telemecanique PLCs over
UNI-TELWAY, and for watching the traffic on the bus.

Connection modes:
  TCP:       --tcp host:port          (serial server or VPN gateway)
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

On a real bus the master polls every slave and we may only send when polled.
Use --vpn when a gateway does that for us: requests are then sent straight
away and resent after every --timeout without an answer.

Settings can also come from a profile file (--config file.toml or .yaml).
Flags given on the command line always win over the profile.

For WebSocket authentication, the password is read from the UNITELWAY_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()

	// TCP connection flags
	pf.StringVar(&tcpAddr, "tcp", "", "TCP address of a serial server or gateway (host:port)")

	// Serial connection flags
	pf.StringVarP(&portName, "port", "p", "", "Serial port device")
	pf.IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Session flags
	def := unitelway.DefaultConfig()
	pf.Uint8Var(&station, "station", def.Station, "Our UNI-TELWAY link address")
	pf.Uint8Var(&category, "category", def.Category, "UNI-TE category code (0-7)")
	pf.Uint8Var(&xwayNetwork, "network", 0, "X-WAY destination network")
	pf.Uint8Var(&xwayStation, "xway-station", 0, "X-WAY destination station")
	pf.Uint8Var(&xwayGate, "gate", 0, "X-WAY destination gate")
	pf.Uint8Var(&xwayExt1, "ext1", 0, "X-WAY extension byte 1")
	pf.Uint8Var(&xwayExt2, "ext2", 0, "X-WAY extension byte 2")
	pf.BoolVar(&vpnMode, "vpn", false, "Send without waiting for a poll (gateway mode)")
	pf.DurationVar(&timeout, "timeout", def.Timeout, "Response timeout before resending (0 waits forever)")
	pf.IntVar(&maxAttempts, "attempts", 0, "Give up after this many sends (0 retries forever)")

	pf.StringVar(&configPath, "config", "", "Profile file (.toml, .yaml or .yml)")
	pf.StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error, disabled)")
	pf.StringVar(&recordPath, "record", "", "Record every frame to a CBOR capture file")
}

// setup loads the profile and configures logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		settings, err := loadProfile(configPath)
		if err != nil {
			return err
		}
		if err := applyProfile(cmd.Flags(), settings); err != nil {
			return err
		}
	}

	return setupLogging(logLevel)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
