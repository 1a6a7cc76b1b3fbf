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

var scanDuration time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the stations the bus master polls",
	Long: `Listen to the bus and report every link address the master polls,
together with whether the station answered with frames or acknowledgements.

This command only listens; it never transmits.

Examples:
  unitelway scan --port /dev/ttyUSB0 --duration 10s

Exit codes:
  0 - At least one station found
  1 - No stations seen
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().DurationVar(&scanDuration, "duration", 5*time.Second, "How long to listen")
}

func runScan(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("unitelway - Station Scan\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Listening for %v\n\n", scanDuration)

	stations := scanBus(conn, scanDuration)

	fmt.Printf("--- Scan summary ---\n")
	fmt.Print(formatStations(stations))

	if stations.Len() == 0 {
		fmt.Printf("No stations seen. Check wiring, baud rate and that a master is polling.\n")
		os.Exit(1)
	}
	return nil
}

// scanBus collects station activity until d elapses, then closes conn.
func scanBus(conn Connection, d time.Duration) *unitelway.StationTable {
	stations := unitelway.NewStationTable()
	results := make(chan busResult, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		readBus(conn, func(r busResult) { results <- r }, func(int) {})
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case r := <-results:
			if r.err != nil {
				continue
			}
			if _, seen := stations.Lookup(r.event.Station()); !seen {
				fmt.Printf("Station %d seen (%s)\n", r.event.Station(), r.event.Kind())
			}
			stations.Update(r.event)
		case <-timer.C:
			conn.Close()
		case <-done:
			return stations
		}
	}
}
