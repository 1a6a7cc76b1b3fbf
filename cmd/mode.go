// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:   "mode [get|set <mode>]",
	Short: "Read or select the NC operating mode",
	Long: `Read or select the NC operating mode.

Modes: AUTO, SINGLE_STEP, MDI, DRYRUN, SEQUENCE_NUMBER_SEARCH, EDIT, TEST,
MANUAL, HOMING, SHIFT, TOOL_SET, LOAD, UNLOAD. A numeric code is accepted
too.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

// parseModeArg accepts a mode name or its numeric code.
func parseModeArg(s string) (unite.Mode, error) {
	if m, ok := unite.ParseMode(strings.ToUpper(s)); ok {
		return m, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil || !unite.Mode(v).Valid() {
		return 0, fmt.Errorf("unknown mode %q", s)
	}
	return unite.Mode(v), nil
}

func runMode(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "get" {
		return withClient(func(ctx context.Context, c *unite.Client) error {
			m, err := c.ReadMode(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Mode: %s (0x%02X)\n", m, uint16(m))
			return nil
		})
	}

	if args[0] != "set" || len(args) != 2 {
		return fmt.Errorf("usage: %s", cmd.Use)
	}
	m, err := parseModeArg(args[1])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		if err := c.WriteMode(ctx, m); err != nil {
			return err
		}
		fmt.Printf("Mode set to %s\n", m)
		return nil
	})
}
