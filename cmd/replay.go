// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/unitelway/pkg/capture"
	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.cbor>",
	Short: "Decode a capture written with --record",
	Long: `Print every frame of a capture file written with --record.

Requests are shown with their UNI-TE payload. Responses are checked again
the way the session checked them when they arrived, so refused routes and
failed requests stand out.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var total, problems int
	err = capture.NewReader(f).ReadAll(func(rec capture.Record) error {
		total++
		fmt.Print(formatRecord(rec))
		if rec.IsResponse() {
			if _, err := rec.Decode(); err != nil {
				problems++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n%d frames, %d bad responses\n", total, problems)
	return nil
}

// formatRecord renders one capture record.
func formatRecord(rec capture.Record) string {
	timestamp := rec.Time.Format("15:04:05.000")
	head := fmt.Sprintf("[%s] %s station=%d  %s\n", timestamp, rec.Direction, rec.Station, unitelway.FormatHex(rec.Frame))

	if len(rec.Frame) > 1 && rec.Frame[1] == unitelway.ACK {
		return head + "  ACK\n"
	}

	payload, err := rec.Decode()
	if err != nil {
		return head + fmt.Sprintf("  ERROR: %v\n", err)
	}
	if len(payload) == 0 {
		return head
	}
	return head + fmt.Sprintf("  UNI-TE: code=0x%02X %s\n", payload[0], unitelway.FormatHex(payload[1:]))
}
