// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/spf13/cobra"
)

var statusAxisGroup uint8

var mirrorCmd = &cobra.Command{
	Use:   "mirror [hex bytes]",
	Short: "Check the link with a mirror request",
	Long: `Send a mirror request and check that the device echoes the data back.

The data is given as hex, e.g. "01 02 ff" or "0102ff". It defaults to a
single 00 byte.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMirror,
}

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Read the product identification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *unite.Client) error {
			id, err := c.Identification(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Product:  %s (0x%02X)\n", id.ProductName, id.ProductType)
			fmt.Printf("Subtype:  %c\n", id.Subtype)
			fmt.Printf("Version:  %d\n", id.Version)
			if id.Text != "" {
				fmt.Printf("Text:     %s\n", id.Text)
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read the status of an axis group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *unite.Client) error {
			st, err := c.Status(ctx, statusAxisGroup)
			if err != nil {
				return err
			}
			fmt.Print(formatStatus(st))
			return nil
		})
	},
}

var ramCmd = &cobra.Command{
	Use:   "ram",
	Short: "Show the free programme RAM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *unite.Client) error {
			n, err := c.AvailableRAM(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Available RAM: %d bytes\n", n)
			return nil
		})
	},
}

var faultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "Read the NC fault history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *unite.Client) error {
			h, err := c.FaultHistory(ctx)
			if err != nil {
				return err
			}
			if len(h.Faults) == 0 {
				fmt.Println("No faults")
				return nil
			}
			for i, f := range h.Faults {
				state := "logged"
				if f.Active {
					state = "ACTIVE"
				}
				fmt.Printf("%3d  code=%-5d axis=%d  %s\n", i+1, f.Code, f.Axis, state)
			}
			return nil
		})
	},
}

var messageCmd = &cobra.Command{
	Use:   "message <text>",
	Short: "Show a message on the NC screen",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withClient(func(ctx context.Context, c *unite.Client) error {
			if err := c.SendSupervisorMessage(ctx, text); err != nil {
				return err
			}
			fmt.Println("Message sent")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd, identifyCmd, statusCmd, ramCmd, faultsCmd, messageCmd)
	statusCmd.Flags().Uint8Var(&statusAxisGroup, "axis-group", 0, "Axis group to query")
}

// parseHexBytes accepts hex with or without separating spaces.
func parseHexBytes(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

func runMirror(cmd *cobra.Command, args []string) error {
	data := []byte{0x00}
	if len(args) == 1 {
		var err error
		if data, err = parseHexBytes(args[0]); err != nil {
			return err
		}
	}

	return withClient(func(ctx context.Context, c *unite.Client) error {
		ok, err := c.Mirror(ctx, data)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("mirror mismatch: sent %s", unitelway.FormatHex(data))
		}
		fmt.Printf("Mirror OK: %s\n", unitelway.FormatHex(data))
		return nil
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatStatus(st unite.UnitStatus) string {
	var s strings.Builder

	fmt.Fprintf(&s, "Axis group:      %d\n", st.AxisGroup)
	fmt.Fprintf(&s, "Mode:            %s\n", st.Mode)
	fmt.Fprintf(&s, "Programme:       %d  block %d\n", st.ProgrammeNumber, st.BlockNumber)
	fmt.Fprintf(&s, "Feed override:   %d%%\n", st.Override)
	fmt.Fprintf(&s, "Alarms:          %d\n", st.AlarmCount)
	fmt.Fprintln(&s)

	flags := []struct {
		name string
		set  bool
	}{
		{"NC ready", st.NCReady},
		{"Cycle on", st.CycleOn},
		{"Feed hold", st.FeedHold},
		{"Reset", st.Reset},
		{"Emergency stop", st.EmergencyStop},
		{"Axis moving", st.AxisMoving},
		{"Spindle on", st.SpindleOn},
		{"Alarm", st.Alarm},
		{"Programme loaded", st.ProgrammeLoaded},
		{"M00 stop", st.M00Stop},
		{"M01 stop", st.M01Stop},
		{"Block by block", st.BlockByBlock},
		{"Dry run", st.DryRun},
		{"Tool change", st.ToolChange},
		{"Homing done", st.HomingDone},
		{"Machine lock", st.MachineLock},
	}
	for _, f := range flags {
		fmt.Fprintf(&s, "  %-18s %s\n", f.name+":", yesNo(f.set))
	}
	fmt.Fprintln(&s)

	fmt.Fprintf(&s, "G functions:     %s\n", strings.Join(st.GFunctions.List(), " "))

	pending := st.Pending.List()
	if len(pending) == 0 {
		pending = []string{"none"}
	}
	fmt.Fprintf(&s, "Pending:         %s\n", strings.Join(pending, " "))
	fmt.Fprintf(&s, "Memory:          %s\n", unitelway.FormatHex(st.Memory[:]))

	return s.String()
}
