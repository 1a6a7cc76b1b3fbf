// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter reports a request the device could not express:
	// an address out of range, an oversized message or a misaligned count.
	ErrInvalidParameter = errors.New("unite: invalid parameter")

	// ErrOperationInProgrammeArea is the NUM busy signal on the RAM query.
	ErrOperationInProgrammeArea = errors.New("unite: operation in progress in programme area")

	ErrShortResponse = errors.New("unite: response too short")
)

// UnexpectedResponseError reports a response code, or an object type
// echo, that does not match the request. It usually means another slave
// uses our link address.
type UnexpectedResponseError struct {
	Expected   byte
	Actual     byte
	ObjectType bool // the mismatch is in the object type echo
}

// Error implements the error interface
func (e *UnexpectedResponseError) Error() string {
	if e.ObjectType {
		return fmt.Sprintf("unite: unexpected object type: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
	}
	return fmt.Sprintf("unite: unexpected response code: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}

func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func shortResponse(want, got int) error {
	return fmt.Errorf("%w: want %d bytes, got %d", ErrShortResponse, want, got)
}
