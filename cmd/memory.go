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

// Memory spaces
const (
	spaceInternal = "internal"
	spaceSystem   = "system"
	spaceConstant = "constant"
)

var memorySpace string

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read bits, words, double words or floats",
	Long: `Read objects from the device memory.

Addresses are decimal or 0x-prefixed hex. --space selects internal (%M, %MW,
%MD), system (%S, %SW) or constant (%KW, %KD) memory where the object kind
exists there.`,
}

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write bits, words or double words",
}

func init() {
	rootCmd.AddCommand(readCmd, writeCmd)
	readCmd.PersistentFlags().StringVar(&memorySpace, "space", spaceInternal, "Memory space (internal, system, constant)")
	writeCmd.PersistentFlags().StringVar(&memorySpace, "space", spaceInternal, "Memory space (internal, system)")

	readCmd.AddCommand(
		&cobra.Command{Use: "bit <addr>", Short: "Read one bit and its aligned group", Args: cobra.ExactArgs(1), RunE: runReadBit},
		&cobra.Command{Use: "word <addr>", Short: "Read one word", Args: cobra.ExactArgs(1), RunE: runReadWord},
		&cobra.Command{Use: "dword <addr>", Short: "Read one double word", Args: cobra.ExactArgs(1), RunE: runReadDword},
		&cobra.Command{Use: "bits <start> <count>", Short: "Read a multiple of 8 bits", Args: cobra.ExactArgs(2), RunE: runReadBits},
		&cobra.Command{Use: "words <start> <count>", Short: "Read consecutive words", Args: cobra.ExactArgs(2), RunE: runReadWords},
		&cobra.Command{Use: "dwords <start> <count>", Short: "Read consecutive double words", Args: cobra.ExactArgs(2), RunE: runReadDwords},
		&cobra.Command{Use: "floats <start> <count>", Short: "Read consecutive internal floats", Args: cobra.ExactArgs(2), RunE: runReadFloats},
	)

	writeCmd.AddCommand(
		&cobra.Command{Use: "bit <addr> <0|1>", Short: "Write one bit", Args: cobra.ExactArgs(2), RunE: runWriteBit},
		&cobra.Command{Use: "word <addr> <value>", Short: "Write one word", Args: cobra.ExactArgs(2), RunE: runWriteWord},
		&cobra.Command{Use: "dword <addr> <value>", Short: "Write one internal double word", Args: cobra.ExactArgs(2), RunE: runWriteDword},
		&cobra.Command{Use: "words <start> <value>...", Short: "Write consecutive words", Args: cobra.MinimumNArgs(2), RunE: runWriteWords},
		&cobra.Command{Use: "dwords <start> <value>...", Short: "Write consecutive internal double words", Args: cobra.MinimumNArgs(2), RunE: runWriteDwords},
	)
}

func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return v, nil
}

func parseRange(args []string) (uint16, int, error) {
	start, err := parseAddress(args[0])
	if err != nil {
		return 0, 0, err
	}
	count, err := parseCount(args[1])
	return start, count, err
}

func unsupportedSpace(kind string) error {
	return fmt.Errorf("%s objects are not available in %s memory", kind, memorySpace)
}

// ============================================================
// Reads
// ============================================================

func runReadBit(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		var g unite.BitGroup
		switch memorySpace {
		case spaceInternal:
			g, err = c.ReadInternalBit(ctx, addr)
		case spaceSystem:
			g, err = c.ReadSystemBit(ctx, addr)
		default:
			return unsupportedSpace("bit")
		}
		if err != nil {
			return err
		}
		printBits(g.Bits(), g.HasForcing, addr)
		return nil
	})
}

func runReadWord(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		var v int16
		switch memorySpace {
		case spaceInternal:
			v, err = c.ReadInternalWord(ctx, addr)
		case spaceSystem:
			v, err = c.ReadSystemWord(ctx, addr)
		case spaceConstant:
			v, err = c.ReadConstantWord(ctx, addr)
		default:
			return unsupportedSpace("word")
		}
		if err != nil {
			return err
		}
		fmt.Printf("%5d  %d (0x%04X)\n", addr, v, uint16(v))
		return nil
	})
}

func runReadDword(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		var v int32
		switch memorySpace {
		case spaceInternal:
			v, err = c.ReadInternalDword(ctx, addr)
		case spaceConstant:
			v, err = c.ReadConstantDword(ctx, addr)
		default:
			return unsupportedSpace("double word")
		}
		if err != nil {
			return err
		}
		fmt.Printf("%5d  %d (0x%08X)\n", addr, v, uint32(v))
		return nil
	})
}

func runReadBits(cmd *cobra.Command, args []string) error {
	start, count, err := parseRange(args)
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		var bits []unite.Bit
		forcing := true
		switch memorySpace {
		case spaceInternal:
			bits, err = c.ReadInternalBits(ctx, start, count)
		case spaceSystem:
			bits, err = c.ReadSystemBits(ctx, start, count)
			forcing = false
		default:
			return unsupportedSpace("bit")
		}
		if err != nil {
			return err
		}
		printBits(bits, forcing, start)
		return nil
	})
}

func runReadWords(cmd *cobra.Command, args []string) error {
	start, count, err := parseRange(args)
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		var words []unite.Value[int16]
		switch memorySpace {
		case spaceInternal:
			words, err = c.ReadInternalWords(ctx, start, count)
		case spaceSystem:
			words, err = c.ReadSystemWords(ctx, start, count)
		case spaceConstant:
			words, err = c.ReadConstantWords(ctx, start, count)
		default:
			return unsupportedSpace("word")
		}
		if err != nil {
			return err
		}
		for _, w := range words {
			fmt.Printf("%5d  %d (0x%04X)\n", w.Address, w.Value, uint16(w.Value))
		}
		return nil
	})
}

func runReadDwords(cmd *cobra.Command, args []string) error {
	start, count, err := parseRange(args)
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		var dwords []unite.Value[int32]
		switch memorySpace {
		case spaceInternal:
			dwords, err = c.ReadInternalDwords(ctx, start, count)
		case spaceConstant:
			dwords, err = c.ReadConstantDwords(ctx, start, count)
		default:
			return unsupportedSpace("double word")
		}
		if err != nil {
			return err
		}
		for _, d := range dwords {
			fmt.Printf("%5d  %d (0x%08X)\n", d.Address, d.Value, uint32(d.Value))
		}
		return nil
	})
}

func runReadFloats(cmd *cobra.Command, args []string) error {
	start, count, err := parseRange(args)
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		floats, err := c.ReadFloats(ctx, start, count)
		if err != nil {
			return err
		}
		for _, f := range floats {
			fmt.Printf("%5d  %g\n", f.Address, f.Value)
		}
		return nil
	})
}

func printBits(bits []unite.Bit, forcing bool, requested uint16) {
	for _, b := range bits {
		marker := " "
		if b.Address == requested {
			marker = ">"
		}
		line := fmt.Sprintf("%s%5d  %d", marker, b.Address, bitValue(b.Value))
		if forcing && b.Forced {
			line += "  forced"
		}
		fmt.Println(line)
	}
}

func bitValue(v bool) int {
	if v {
		return 1
	}
	return 0
}

// ============================================================
// Writes
// ============================================================

func parseBit(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "on", "true":
		return true, nil
	case "0", "off", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid bit value %q", s)
}

func parseWords(args []string) ([]int16, error) {
	values := make([]int16, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid word %q", a)
		}
		values[i] = int16(v)
	}
	return values, nil
}

func parseDwords(args []string) ([]int32, error) {
	values := make([]int32, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid double word %q", a)
		}
		values[i] = int32(v)
	}
	return values, nil
}

func runWriteBit(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	value, err := parseBit(args[1])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		switch memorySpace {
		case spaceInternal:
			err = c.WriteInternalBit(ctx, addr, value)
		case spaceSystem:
			err = c.WriteSystemBit(ctx, addr, value)
		default:
			return unsupportedSpace("bit")
		}
		if err != nil {
			return err
		}
		fmt.Println("Write OK")
		return nil
	})
}

func runWriteWord(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	values, err := parseWords(args[1:])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		switch memorySpace {
		case spaceInternal:
			err = c.WriteInternalWord(ctx, addr, values[0])
		case spaceSystem:
			err = c.WriteSystemWord(ctx, addr, values[0])
		default:
			return unsupportedSpace("word")
		}
		if err != nil {
			return err
		}
		fmt.Println("Write OK")
		return nil
	})
}

func runWriteDword(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	values, err := parseDwords(args[1:])
	if err != nil {
		return err
	}
	if memorySpace != spaceInternal {
		return unsupportedSpace("double word")
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		if err := c.WriteInternalDword(ctx, addr, values[0]); err != nil {
			return err
		}
		fmt.Println("Write OK")
		return nil
	})
}

func runWriteWords(cmd *cobra.Command, args []string) error {
	start, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	values, err := parseWords(args[1:])
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		switch memorySpace {
		case spaceInternal:
			err = c.WriteInternalWords(ctx, start, values)
		case spaceSystem:
			err = c.WriteSystemWords(ctx, start, values)
		default:
			return unsupportedSpace("word")
		}
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d words\n", len(values))
		return nil
	})
}

func runWriteDwords(cmd *cobra.Command, args []string) error {
	start, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	values, err := parseDwords(args[1:])
	if err != nil {
		return err
	}
	if memorySpace != spaceInternal {
		return unsupportedSpace("double word")
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		if err := c.WriteInternalDwords(ctx, start, values); err != nil {
			return err
		}
		fmt.Printf("Wrote %d double words\n", len(values))
		return nil
	})
}
