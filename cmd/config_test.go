// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/unitelway/pkg/capture"
	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ============================================================
// Profile files
// ============================================================

func TestLoadProfileTOML(t *testing.T) {
	path := writeFile(t, "bench.toml", `
tcp = "10.0.0.5:4001"
station = 4
vpn = true
timeout = "1s"
`)

	settings, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"tcp":     "10.0.0.5:4001",
		"station": "4",
		"vpn":     "true",
		"timeout": "1s",
	}, settings)
}

func TestLoadProfileTOMLFalseIsDefined(t *testing.T) {
	path := writeFile(t, "p.toml", "vpn = false\nattempts = 0\n")

	settings, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vpn": "false", "attempts": "0"}, settings)
}

func TestLoadProfileTOMLUnknownKey(t *testing.T) {
	path := writeFile(t, "p.toml", "stations = 4\n")

	_, err := loadProfile(path)
	assert.ErrorContains(t, err, "stations")
}

func TestLoadProfileTOMLOutOfRange(t *testing.T) {
	path := writeFile(t, "p.toml", "station = 300\n")

	_, err := loadProfile(path)
	assert.Error(t, err)
}

func TestLoadProfileYAML(t *testing.T) {
	path := writeFile(t, "bench.yaml", `
port: /dev/ttyUSB0
baud: 19200
category: 7
xway_station: 12
log_level: debug
`)

	settings, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"port":         "/dev/ttyUSB0",
		"baud":         "19200",
		"category":     "7",
		"xway_station": "12",
		"log_level":    "debug",
	}, settings)
}

func TestLoadProfileYAMLUnknownKey(t *testing.T) {
	path := writeFile(t, "p.yml", "bogus: 1\n")

	_, err := loadProfile(path)
	assert.Error(t, err)
}

func TestLoadProfileYAMLEmpty(t *testing.T) {
	path := writeFile(t, "p.yaml", "")

	settings, err := loadProfile(path)
	require.NoError(t, err)
	assert.Empty(t, settings)
}

func TestLoadProfileUnsupported(t *testing.T) {
	path := writeFile(t, "p.json", "{}")

	_, err := loadProfile(path)
	assert.ErrorContains(t, err, "unsupported")
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Uint8("station", 1, "")
	fs.Duration("timeout", 2*time.Second, "")
	fs.Bool("vpn", false, "")
	fs.String("log-level", "warn", "")
	fs.String("xway-station", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestApplyProfileFlagsWin(t *testing.T) {
	fs := testFlags(t, "--station", "9")

	err := applyProfile(fs, map[string]string{
		"station":      "3",
		"timeout":      "500ms",
		"vpn":          "true",
		"xway_station": "12",
	})
	require.NoError(t, err)

	st, _ := fs.GetUint8("station")
	assert.Equal(t, uint8(9), st)
	to, _ := fs.GetDuration("timeout")
	assert.Equal(t, 500*time.Millisecond, to)
	vpn, _ := fs.GetBool("vpn")
	assert.True(t, vpn)
	xs, _ := fs.GetString("xway-station")
	assert.Equal(t, "12", xs)
}

func TestApplyProfileErrors(t *testing.T) {
	assert.Error(t, applyProfile(testFlags(t), map[string]string{"bogus": "1"}))
	assert.Error(t, applyProfile(testFlags(t), map[string]string{"timeout": "soon"}))
}

// ============================================================
// Logging
// ============================================================

func TestParseLogLevel(t *testing.T) {
	t.Setenv(logLevelEnv, "")

	lvl, err := parseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	lvl, err = parseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)

	lvl, err = parseLogLevel("disabled")
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, lvl)

	_, err = parseLogLevel("loud")
	assert.Error(t, err)
}

func TestParseLogLevelEnvOverride(t *testing.T) {
	t.Setenv(logLevelEnv, "ERROR")

	lvl, err := parseLogLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, lvl)
}

// ============================================================
// Argument parsing
// ============================================================

func TestParseHexBytes(t *testing.T) {
	data, err := parseHexBytes("01 02 ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF}, data)

	data, err = parseHexBytes("0102FF")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF}, data)

	_, err = parseHexBytes("0g")
	assert.Error(t, err)
}

func TestParseModeArg(t *testing.T) {
	m, err := parseModeArg("manual")
	require.NoError(t, err)
	assert.Equal(t, unite.ModeManual, m)

	m, err = parseModeArg("0x0D")
	require.NoError(t, err)
	assert.Equal(t, unite.ModeLoad, m)

	_, err = parseModeArg("0x0B")
	assert.Error(t, err)
	_, err = parseModeArg("FAST")
	assert.Error(t, err)
}

func TestParseValues(t *testing.T) {
	addr, err := parseAddress("0x1F")
	require.NoError(t, err)
	assert.Equal(t, uint16(31), addr)
	_, err = parseAddress("70000")
	assert.Error(t, err)

	_, err = parseCount("0")
	assert.Error(t, err)

	words, err := parseWords([]string{"-1", "0x10"})
	require.NoError(t, err)
	assert.Equal(t, []int16{-1, 16}, words)
	_, err = parseWords([]string{"40000"})
	assert.Error(t, err)

	on, err := parseBit("on")
	require.NoError(t, err)
	assert.True(t, on)
	_, err = parseBit("2")
	assert.Error(t, err)
}

// ============================================================
// Session settings and replay output
// ============================================================

func TestSessionConfigFromFlags(t *testing.T) {
	station, category, vpnMode = 4, 7, true
	xwayNetwork, xwayStation, xwayGate = 1, 2, 3
	timeout, maxAttempts = time.Second, 5
	t.Cleanup(func() {
		station, category, vpnMode = 1, 0, false
		xwayNetwork, xwayStation, xwayGate = 0, 0, 0
		timeout, maxAttempts = unitelway.DefaultTimeout, 0
	})

	cfg := sessionConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, byte(4), cfg.Station)
	assert.Equal(t, byte(7), cfg.Category)
	assert.True(t, cfg.VPN)
	assert.Equal(t, unitelway.NewXwayAddress(1, 2, 3, 0, 0), cfg.Address)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Logger)
}

func TestFormatRecord(t *testing.T) {
	addr := unitelway.NewXwayAddress(0, 0, 0, 0, 0)
	frame, err := unitelway.EncodeRequest(5, addr, []byte{0xFB, 0x00})
	require.NoError(t, err)

	out := formatRecord(capture.Record{Direction: unitelway.Inbound, Station: 5, Frame: frame})
	assert.Contains(t, out, "rx station=5")
	assert.Contains(t, out, "UNI-TE: code=0xFB 00")

	out = formatRecord(capture.Record{Direction: unitelway.Outbound, Station: 5, Frame: unitelway.EncodeAck(5)})
	assert.Contains(t, out, "tx station=5")
	assert.Contains(t, out, "ACK")

	failed, err := unitelway.EncodeRequest(5, addr, []byte{unitelway.UniteFailure})
	require.NoError(t, err)
	out = formatRecord(capture.Record{Direction: unitelway.Inbound, Station: 5, Frame: failed})
	assert.Contains(t, out, "ERROR")
}

func TestFormatLadder(t *testing.T) {
	out, err := formatLadder("%m1f.w")
	require.NoError(t, err)
	assert.Contains(t, out, "%M1F.W")
	assert.Contains(t, out, "offset=0x001F size=2 bytes=0x001F-0x0020")

	out, err = formatLadder("%S20")
	require.NoError(t, err)
	assert.Contains(t, out, "size=1")
	assert.NotContains(t, out, "bytes=")

	_, err = formatLadder("%M77FF.W")
	assert.ErrorIs(t, err, unite.ErrInvalidParameter)
	_, err = formatLadder("%X10")
	assert.Error(t, err)
}
