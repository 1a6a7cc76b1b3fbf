// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// unitelway - UNI-TELWAY / UNI-TE client and bus analyzer
//
// A CLI tool for issuing UNI-TE requests to NUM CNCs and Telemecanique
// PLCs, and for decoding UNI-TELWAY bus traffic in human-readable format.

package main

import (
	"os"

	"github.com/Thermoquad/unitelway/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
