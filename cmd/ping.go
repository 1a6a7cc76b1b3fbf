// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/unitelway/pkg/unite"
	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure round trips with repeated mirror requests",
	Long: `Send mirror requests to the addressed unit and report round-trip times.

Each request carries a sequence byte that the unit must echo back, so a
stale answer to an earlier request counts as a failure.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

// rttStats accumulates round-trip times.
type rttStats struct {
	sent, received int
	min, max, sum  time.Duration
}

func (s *rttStats) add(rtt time.Duration) {
	if s.received == 0 || rtt < s.min {
		s.min = rtt
	}
	if rtt > s.max {
		s.max = rtt
	}
	s.sum += rtt
	s.received++
}

func (s *rttStats) String() string {
	loss := 0.0
	if s.sent > 0 {
		loss = float64(s.sent-s.received) / float64(s.sent) * 100
	}
	out := fmt.Sprintf("%d pings sent, %d responses received, %.0f%% loss\n", s.sent, s.received, loss)
	if s.received > 0 {
		avg := s.sum / time.Duration(s.received)
		out += fmt.Sprintf("rtt min/avg/max = %v/%v/%v\n",
			s.min.Round(time.Millisecond), avg.Round(time.Millisecond), s.max.Round(time.Millisecond))
	}
	return out
}

func runPing(cmd *cobra.Command, args []string) error {
	cs, err := openClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("unitelway - Mirror Ping\n")
	fmt.Printf("Connection: %s\n", cs.info)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	stats := pingLoop(cmd.Context(), cs.client)
	cs.Close()

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Print(stats.String())
	if stats.received < stats.sent {
		os.Exit(1)
	}
	return nil
}

func pingLoop(ctx context.Context, client *unite.Client) *rttStats {
	if ctx == nil {
		ctx = context.Background()
	}
	stats := &rttStats{}

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)
		stats.sent++

		start := time.Now()
		ok, err := client.Mirror(ctx, []byte{byte(i)})
		rtt := time.Since(start)

		switch {
		case errors.Is(err, context.Canceled):
			fmt.Printf("CANCELLED\n")
			return stats
		case err != nil:
			fmt.Printf("FAILED: %v\n", err)
		case !ok:
			fmt.Printf("MISMATCH (echo differs), rtt=%v\n", rtt.Round(time.Millisecond))
		default:
			fmt.Printf("echo, rtt=%v\n", rtt.Round(time.Millisecond))
			stats.add(rtt)
		}

		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}
	return stats
}
