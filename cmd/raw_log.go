// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/spf13/cobra"
)

var rawLogPolls bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display bus traffic in human-readable format",
	Long: `Continuously decode and display UNI-TELWAY traffic as it arrives.

Each frame is shown with timestamp, station, X-WAY address and UNI-TE code.
Polls are hidden unless --polls is given since the master sends them
constantly.

This command only listens; it never transmits.`,
	Args: cobra.NoArgs,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogPolls, "polls", false, "Show polls too")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("unitelway - Raw Bus Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := unitelway.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if isClosed(err) {
				if partial := decoder.GetRawBytes(); len(partial) > 0 {
					fmt.Printf("[INCOMPLETE] %s\n", unitelway.FormatHex(partial))
				}
				logger.Info().Msg("connection closed")
				return nil
			}
			logger.Warn().Err(err).Msg("read error")
			continue
		}

		for i := 0; i < n; i++ {
			ev, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if ev == nil || (ev.Kind() == unitelway.EventPoll && !rawLogPolls) {
				continue
			}
			fmt.Print(unitelway.FormatEvent(ev))
		}
	}
}
