// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"fmt"
	"strings"
)

// FormatHex formats bytes as space-separated hex pairs.
func FormatHex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// FormatEvent formats an event into a human-readable line
func FormatEvent(ev *Event) string {
	timestamp := ev.Timestamp().Format("15:04:05.000")

	switch ev.Kind() {
	case EventNak:
		return fmt.Sprintf("[%s] NAK\n", timestamp)
	case EventPoll:
		return fmt.Sprintf("[%s] POLL station=%d\n", timestamp, ev.Station())
	case EventAck:
		return fmt.Sprintf("[%s] ACK  station=%d\n", timestamp, ev.Station())
	}

	f := ev.Frame()
	result := fmt.Sprintf("[%s] FRAME station=%d len=%d\n", timestamp, ev.Station(), f.Length)

	addr, err := ev.Xway()
	if err != nil {
		result += fmt.Sprintf("  X-WAY: %v\n", err)
		result += fmt.Sprintf("  Data:  %s\n", FormatHex(f.Payload))
		return result
	}

	u, _ := ev.Unite()
	result += fmt.Sprintf("  X-WAY: %s\n", addr)
	if len(u) > 0 {
		result += fmt.Sprintf("  UNI-TE: code=0x%02X %s\n", u[0], FormatHex(u[1:]))
	}
	return result
}
