// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/spf13/cobra"
)

var packetTestWait time.Duration

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid UNI-TELWAY frame",
	Long: `Wait for a valid UNI-TELWAY data frame on the connection until timeout.

This command listens on the connection and waits for any complete data frame
that passes the BCC check. Polls and acknowledgements are counted but do not
end the wait, and invalid bytes are skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking the wiring to a bus or a serial server.`,
	Args: cobra.NoArgs,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().DurationVar(&packetTestWait, "wait", 10*time.Second, "How long to wait for a frame")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("unitelway - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %s\n", packetTestWait)
	fmt.Printf("Waiting for valid UNI-TELWAY frame...\n\n")

	decoder := unitelway.NewDecoder()
	buf := make([]byte, 128)

	frameChan := make(chan *unitelway.Event, 1)
	errChan := make(chan error, 1)

	go func() {
		invalid := 0
		polls := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				ev, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					invalid++
					continue
				}
				if ev == nil {
					continue
				}
				if ev.Kind() != unitelway.EventFrame {
					polls++
					continue
				}
				if invalid > 0 || polls > 0 {
					fmt.Printf("(skipped %d invalid frames and %d polls/acks before sync)\n", invalid, polls)
				}
				frameChan <- ev
				return
			}
		}
	}()

	select {
	case ev := <-frameChan:
		f := ev.Frame()
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Station: %d\n", ev.Station())
		fmt.Printf("  Length:  %d bytes\n", f.Length)
		fmt.Printf("  BCC:     0x%02X\n", f.Checksum)
		if code, ok := ev.Code(); ok {
			fmt.Printf("  UNI-TE:  code 0x%02X\n", code)
		}
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(packetTestWait):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %s\n", packetTestWait)
		os.Exit(1)
	}

	return nil
}
