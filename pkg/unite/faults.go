// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import "encoding/binary"

const faultRecordSize = 4

// Fault is one entry of the NC fault history.
type Fault struct {
	Code   uint16
	Axis   byte
	Active bool // still present, not only logged
}

// FaultHistory is the decoded fault history, most recent first.
type FaultHistory struct {
	Faults []Fault
}

// Active returns the faults that are still present.
func (h FaultHistory) Active() []Fault {
	var active []Fault
	for _, f := range h.Faults {
		if f.Active {
			active = append(active, f)
		}
	}
	return active
}

// ParseFaultHistory decodes the body of a fault history service response,
// after the two code bytes: a count, then count records of code, axis and
// flags.
func ParseFaultHistory(data []byte) (FaultHistory, error) {
	if len(data) < 1 {
		return FaultHistory{}, shortResponse(1, 0)
	}
	n := int(data[0])
	data = data[1:]
	if len(data) < n*faultRecordSize {
		return FaultHistory{}, shortResponse(1+n*faultRecordSize, 1+len(data))
	}

	h := FaultHistory{Faults: make([]Fault, n)}
	for i := range h.Faults {
		rec := data[i*faultRecordSize:]
		h.Faults[i] = Fault{
			Code:   binary.LittleEndian.Uint16(rec),
			Axis:   rec[2],
			Active: rec[3]&0x01 != 0,
		}
	}
	return h, nil
}
