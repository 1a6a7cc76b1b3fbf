// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch bus traffic with statistics and a station table",
	Long: `Track bus traffic, checksum errors and station activity.

This command decodes every byte on the bus and reports:
  - BCC errors and decode failures
  - Refused routes and failed UNI-TE requests
  - Which stations the master polls and which of them answer
  - Statistics and trends (event rate, error rate)

By default only errors are displayed. Use --show-all to display every frame.

This command only listens; it never transmits.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// busResult is one decoder result: an event or a decode error.
type busResult struct {
	event *unitelway.Event
	err   error
}

// readBus decodes conn until it fails and hands every result to emit.
// Decode errors before the first valid event are only counted, since the
// monitor usually starts in the middle of a frame.
func readBus(conn Connection, emit func(busResult), synced func(invalid int)) {
	decoder := unitelway.NewDecoder()
	synchronized := false
	invalidBeforeSync := 0
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if isClosed(err) {
				logger.Info().Msg("connection closed")
				return
			}
			logger.Warn().Err(err).Msg("read error")
			continue
		}

		for i := 0; i < n; i++ {
			ev, decodeErr := decoder.DecodeByte(buf[i])

			if decodeErr != nil {
				if synchronized {
					emit(busResult{err: decodeErr})
				} else {
					invalidBeforeSync++
				}
				continue
			}
			if ev == nil {
				continue
			}

			if !synchronized {
				synchronized = true
				synced(invalidBeforeSync)
			}
			emit(busResult{event: ev})
		}
	}
}

// frameProblem describes a frame that decoded but carries an error
// envelope, or "" for a normal frame.
func frameProblem(ev *unitelway.Event) string {
	if ev.Kind() != unitelway.EventFrame {
		return ""
	}
	if _, err := ev.Xway(); err != nil {
		return err.Error()
	}
	if code, ok := ev.Code(); ok && code == unitelway.UniteFailure {
		return "UNI-TE request failed"
	}
	return ""
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> FRAME DROPPED <<<\n\n")
}

// printFrameProblem prints a frame that carries an error envelope
func printFrameProblem(ev *unitelway.Event, problem string) {
	fmt.Printf("\033[1;33m%s\033[0m", unitelway.FormatEvent(ev))
	fmt.Printf("  Issue: \033[1;31m%s\033[0m\n\n", problem)
}

// formatStations renders the station table for text mode.
func formatStations(table *unitelway.StationTable) string {
	var s strings.Builder
	s.WriteString("Stations:\n")
	if table.Len() == 0 {
		s.WriteString("  (none seen yet)\n")
		return s.String()
	}

	s.WriteString("  Addr    Polls   Frames     Acks  Last code  Last seen\n")
	for _, info := range table.Stations() {
		code := "-"
		if info.HasCode {
			code = fmt.Sprintf("0x%02X", info.LastCode)
		}
		fmt.Fprintf(&s, "  %4d %8d %8d %8d  %9s  %s\n",
			info.Station, info.Polls, info.Frames, info.Acks, code,
			info.LastSeen.Format("15:04:05.000"))
	}
	return s.String()
}

// runTUIMode runs the monitor in TUI mode
func runTUIMode(conn Connection, connInfo string) error {
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	go readBus(conn,
		func(r busResult) { p.Send(busDataMsg(r)) },
		func(invalid int) { p.Send(syncMsg{invalidBytes: invalid}) },
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runTextMode runs the monitor in text mode
func runTextMode(conn Connection, connInfo string) error {
	fmt.Printf("unitelway - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := unitelway.NewStatistics()
	stations := unitelway.NewStationTable()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	results := make(chan busResult, 64)
	syncs := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		readBus(conn,
			func(r busResult) { results <- r },
			func(invalid int) { syncs <- invalid },
		)
	}()

	for {
		select {
		case r := <-results:
			stats.Update(r.event, r.err)
			if r.err != nil {
				printDecodeError(r.err)
				continue
			}

			stations.Update(r.event)
			if problem := frameProblem(r.event); problem != "" {
				printFrameProblem(r.event, problem)
			} else if showAll && r.event.Kind() != unitelway.EventPoll {
				fmt.Print(unitelway.FormatEvent(r.event))
			}

		case invalid := <-syncs:
			if invalid > 0 {
				fmt.Printf("[SYNC] Synchronized after skipping %d invalid frames\n\n", invalid)
			} else {
				fmt.Printf("[SYNC] Synchronized\n\n")
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Print(formatStations(stations))
			fmt.Println()

		case <-done:
			fmt.Print(stats.String())
			return nil
		}
	}
}
