// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unite

import "encoding/binary"

// statusSize is the status record length after the response code.
const statusSize = 32

// GFunctions is the 32-bit set of active modal G functions.
type GFunctions uint32

// gFunctionNames lists the G function of each bit, least significant first.
var gFunctionNames = [32]string{
	"G00", "G01", "G02", "G03", "G04", "G09", "G10", "G12",
	"G16", "G17", "G18", "G19", "G20", "G21", "G29", "G40",
	"G41", "G42", "G51", "G52", "G53", "G54", "G59", "G70",
	"G71", "G77", "G79", "G80", "G90", "G91", "G94", "G95",
}

// Active reports whether the named G function is set. Unknown names are
// never active.
func (g GFunctions) Active(name string) bool {
	for i, n := range gFunctionNames {
		if n == name {
			return g&(1<<uint(i)) != 0
		}
	}
	return false
}

// Map returns every G function with 1 when active and 0 otherwise.
func (g GFunctions) Map() map[string]int {
	m := make(map[string]int, len(gFunctionNames))
	for i, n := range gFunctionNames {
		if g&(1<<uint(i)) != 0 {
			m[n] = 1
		} else {
			m[n] = 0
		}
	}
	return m
}

// List returns the active G functions in bit order.
func (g GFunctions) List() []string {
	var active []string
	for i, n := range gFunctionNames {
		if g&(1<<uint(i)) != 0 {
			active = append(active, n)
		}
	}
	return active
}

// PendingOperations is the 16-bit set of operations the NC has queued.
// Only the low 12 bits are defined.
type PendingOperations uint16

var pendingNames = [12]string{
	"CYCLE_START", "FEED_HOLD", "RESET", "PROGRAMME_SELECT",
	"MODE_CHANGE", "TOOL_CHANGE", "SPINDLE_START", "SPINDLE_STOP",
	"COOLANT", "DATA_TRANSFER", "MESSAGE_ACK", "AXIS_JOG",
}

// Pending reports whether the named operation is queued.
func (p PendingOperations) Pending(name string) bool {
	for i, n := range pendingNames {
		if n == name {
			return p&(1<<uint(i)) != 0
		}
	}
	return false
}

// Map returns every operation with 1 when pending and 0 otherwise.
func (p PendingOperations) Map() map[string]int {
	m := make(map[string]int, len(pendingNames))
	for i, n := range pendingNames {
		if p&(1<<uint(i)) != 0 {
			m[n] = 1
		} else {
			m[n] = 0
		}
	}
	return m
}

// List returns the pending operations in bit order.
func (p PendingOperations) List() []string {
	var pending []string
	for i, n := range pendingNames {
		if p&(1<<uint(i)) != 0 {
			pending = append(pending, n)
		}
	}
	return pending
}

// UnitStatus is the decoded status record of one axis group.
type UnitStatus struct {
	AxisGroup byte

	// First flag byte
	NCReady       bool
	CycleOn       bool
	FeedHold      bool
	Reset         bool
	EmergencyStop bool
	AxisMoving    bool
	SpindleOn     bool
	Alarm         bool

	// Second flag byte
	ProgrammeLoaded bool
	M00Stop         bool
	M01Stop         bool
	BlockByBlock    bool
	DryRun          bool
	ToolChange      bool
	HomingDone      bool
	MachineLock     bool

	ProgrammeNumber uint16
	BlockNumber     uint16
	AlarmCount      byte
	GFunctions      GFunctions
	Pending         PendingOperations
	Mode            Mode
	Override        byte // feed override, percent
	Memory          [16]byte
}

// ParseStatus decodes a status response (without the response code).
func ParseStatus(data []byte) (UnitStatus, error) {
	if len(data) < statusSize {
		return UnitStatus{}, shortResponse(statusSize+1, len(data)+1)
	}

	bit := func(b byte, n uint) bool { return b&(1<<n) != 0 }
	a, b := data[1], data[2]

	s := UnitStatus{
		AxisGroup: data[0],

		NCReady:       bit(a, 0),
		CycleOn:       bit(a, 1),
		FeedHold:      bit(a, 2),
		Reset:         bit(a, 3),
		EmergencyStop: bit(a, 4),
		AxisMoving:    bit(a, 5),
		SpindleOn:     bit(a, 6),
		Alarm:         bit(a, 7),

		ProgrammeLoaded: bit(b, 0),
		M00Stop:         bit(b, 1),
		M01Stop:         bit(b, 2),
		BlockByBlock:    bit(b, 3),
		DryRun:          bit(b, 4),
		ToolChange:      bit(b, 5),
		HomingDone:      bit(b, 6),
		MachineLock:     bit(b, 7),

		ProgrammeNumber: binary.LittleEndian.Uint16(data[3:]),
		BlockNumber:     binary.LittleEndian.Uint16(data[5:]),
		AlarmCount:      data[7],
		GFunctions:      GFunctions(binary.LittleEndian.Uint32(data[8:])),
		Pending:         PendingOperations(binary.LittleEndian.Uint16(data[12:]) & 0x0FFF),
		Mode:            Mode(data[14]),
		Override:        data[15],
	}
	copy(s.Memory[:], data[16:32])

	return s, nil
}
