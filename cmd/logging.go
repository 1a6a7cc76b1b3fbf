// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// logLevelEnv overrides --log-level when set.
const logLevelEnv = "UNITELWAY_LOG_LEVEL"

// logger is the CLI logger. Sessions get it through their Config.
var logger = zerolog.Nop()

func parseLogLevel(level string) (zerolog.Level, error) {
	if env := os.Getenv(logLevelEnv); env != "" {
		level = env
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return lvl, nil
}

// setupLogging points logger at stderr, leaving stdout for command output.
func setupLogging(level string) error {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return err
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger = zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "unitelway").Logger()
	return nil
}
