// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/spf13/cobra"
)

var ladderCmd = &cobra.Command{
	Use:   "ladder <address>...",
	Short: "Check ladder variable addresses",
	Long: `Parse byte-level ladder addresses such as %M1F.W and show the byte range
each one covers.

The address is a symbol (%M, %V, %I, %Q, %R, %W or %S), a hexadecimal
byte offset and an optional size suffix: .B (1 byte, the default), .W (2),
.L or .& (4). Every address is checked against the bound of its symbol.

This command does not open a connection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLadder,
}

func init() {
	rootCmd.AddCommand(ladderCmd)
}

func runLadder(cmd *cobra.Command, args []string) error {
	var failed int
	for _, arg := range args {
		line, err := formatLadder(arg)
		if err != nil {
			fmt.Printf("%-12s  %v\n", arg, err)
			failed++
			continue
		}
		fmt.Print(line)
	}
	if failed > 0 {
		return fmt.Errorf("%d invalid ladder address(es)", failed)
	}
	return nil
}

// formatLadder parses one address and describes the bytes it covers.
func formatLadder(arg string) (string, error) {
	a, err := unite.ParseLadderAddress(arg)
	if err != nil {
		return "", err
	}

	var s strings.Builder
	fmt.Fprintf(&s, "%-12s  symbol=%s offset=0x%04X size=%d", a, a.Symbol, a.Offset, a.Size)
	if a.Size > 1 {
		fmt.Fprintf(&s, " bytes=0x%04X-0x%04X", a.Offset, int(a.Offset)+a.Size-1)
	}
	s.WriteString("\n")
	return s.String(), nil
}
