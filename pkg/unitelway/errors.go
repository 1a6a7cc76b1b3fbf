// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"errors"
	"fmt"
)

var (
	ErrRoutingRefused    = errors.New("unitelway: X-WAY message refused (type 0x22)")
	ErrRequestFailed     = errors.New("unitelway: UNI-TE request failed (response 0xFD)")
	ErrNack              = errors.New("unitelway: request not acknowledged (NAK)")
	ErrShortFrame        = errors.New("unitelway: frame too short")
	ErrPayloadTooLarge   = errors.New("unitelway: payload too large")
	ErrAttemptsExhausted = errors.New("unitelway: no response after maximum attempts")
	ErrClosed            = errors.New("unitelway: session closed")

	// errTimedOut reports a response window that expired; it never leaves
	// the package since Transact retries it.
	errTimedOut = errors.New("unitelway: response timeout")
)

// ChecksumError reports a frame whose BCC does not match its content.
type ChecksumError struct {
	Expected byte // computed over the received bytes
	Actual   byte // carried by the frame
}

// Error implements the error interface
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("unitelway: bad checksum: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}
