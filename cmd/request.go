// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <hex>",
	Short: "Send a raw UNI-TE request and print the response",
	Long: `Send an arbitrary UNI-TE request and print the response payload.

The payload starts with the request code; the X-WAY header is added from
the addressing flags. Service requests need the category byte written out
by hand.

Examples:
  unitelway request --tcp 10.0.0.5:4001 "0F"
  unitelway request --tcp 10.0.0.5:4001 "36 68 07 00 00 04 00"`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	payload, err := parseHexBytes(args[0])
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("empty request")
	}

	cs, err := openClient()
	if err != nil {
		return err
	}
	defer cs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Request:  %s\n", unitelway.FormatHex(payload))
	resp, err := cs.session.Transact(ctx, payload)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		fmt.Printf("Response: (empty)\n")
		return nil
	}
	fmt.Printf("Response: code=0x%02X %s\n", resp[0], unitelway.FormatHex(resp[1:]))
	return nil
}
