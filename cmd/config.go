// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// profile is the content of a --config file. Keys are the persistent flag
// names with underscores.
type profile struct {
	TCP         string `toml:"tcp" yaml:"tcp"`
	Port        string `toml:"port" yaml:"port"`
	Baud        int    `toml:"baud" yaml:"baud"`
	URL         string `toml:"url" yaml:"url"`
	Username    string `toml:"username" yaml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify" yaml:"no_ssl_verify"`

	Station     uint8  `toml:"station" yaml:"station"`
	Category    uint8  `toml:"category" yaml:"category"`
	Network     uint8  `toml:"network" yaml:"network"`
	XwayStation uint8  `toml:"xway_station" yaml:"xway_station"`
	Gate        uint8  `toml:"gate" yaml:"gate"`
	Ext1        uint8  `toml:"ext1" yaml:"ext1"`
	Ext2        uint8  `toml:"ext2" yaml:"ext2"`
	VPN         bool   `toml:"vpn" yaml:"vpn"`
	Timeout     string `toml:"timeout" yaml:"timeout"`
	Attempts    int    `toml:"attempts" yaml:"attempts"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
	Record   string `toml:"record" yaml:"record"`
}

// settings returns the defined keys as flag values.
func (p *profile) settings(defined func(key string) bool) map[string]string {
	out := make(map[string]string)
	add := func(key string, v any) {
		if defined(key) {
			out[key] = fmt.Sprint(v)
		}
	}

	add("tcp", p.TCP)
	add("port", p.Port)
	add("baud", p.Baud)
	add("url", p.URL)
	add("username", p.Username)
	add("no_ssl_verify", p.NoSSLVerify)
	add("station", p.Station)
	add("category", p.Category)
	add("network", p.Network)
	add("xway_station", p.XwayStation)
	add("gate", p.Gate)
	add("ext1", p.Ext1)
	add("ext2", p.Ext2)
	add("vpn", p.VPN)
	add("timeout", p.Timeout)
	add("attempts", p.Attempts)
	add("log_level", p.LogLevel)
	add("record", p.Record)

	return out
}

// loadProfile reads a profile file and returns the settings it defines,
// keyed by profile key.
func loadProfile(path string) (map[string]string, error) {
	var p profile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &p)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("load profile: unknown key %q", undecoded[0].String())
		}
		return p.settings(func(key string) bool { return meta.IsDefined(key) }), nil

	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		var keys map[string]any
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		return p.settings(func(key string) bool {
			_, ok := keys[key]
			return ok
		}), nil

	default:
		return nil, fmt.Errorf("load profile: unsupported file type %q", filepath.Ext(path))
	}
}

// applyProfile sets every flag the command line left alone from settings.
func applyProfile(fs *pflag.FlagSet, settings map[string]string) error {
	for key, value := range settings {
		name := strings.ReplaceAll(key, "_", "-")
		if fs.Lookup(name) == nil {
			return fmt.Errorf("profile key %q has no flag", key)
		}
		if fs.Changed(name) {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("profile key %q: %w", key, err)
		}
	}
	return nil
}
