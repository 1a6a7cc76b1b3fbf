// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"sort"
	"time"
)

// StationInfo is what the bus has shown about one link address.
type StationInfo struct {
	Station  byte
	Polls    uint64
	Frames   uint64
	Acks     uint64
	LastCode byte // UNI-TE code of the last data frame
	HasCode  bool
	LastSeen time.Time
}

// Answering reports whether the station has ever sent anything besides
// being polled.
func (i StationInfo) Answering() bool {
	return i.Frames > 0 || i.Acks > 0
}

// StationTable records which stations the master polls and which of them
// talk. It is built from decoder events.
type StationTable struct {
	stations map[byte]*StationInfo
}

// NewStationTable creates an empty table
func NewStationTable() *StationTable {
	return &StationTable{stations: make(map[byte]*StationInfo)}
}

// Update records one event. NAKs carry no address and are ignored.
func (t *StationTable) Update(ev *Event) {
	if ev == nil || ev.Kind() == EventNak {
		return
	}

	info, ok := t.stations[ev.Station()]
	if !ok {
		info = &StationInfo{Station: ev.Station()}
		t.stations[ev.Station()] = info
	}
	info.LastSeen = ev.Timestamp()

	switch ev.Kind() {
	case EventPoll:
		info.Polls++
	case EventAck:
		info.Acks++
	case EventFrame:
		info.Frames++
		if code, ok := ev.Code(); ok {
			info.LastCode = code
			info.HasCode = true
		}
	}
}

// Lookup returns the entry for one station.
func (t *StationTable) Lookup(station byte) (StationInfo, bool) {
	info, ok := t.stations[station]
	if !ok {
		return StationInfo{}, false
	}
	return *info, true
}

// Stations returns a snapshot ordered by address.
func (t *StationTable) Stations() []StationInfo {
	out := make([]StationInfo, 0, len(t.stations))
	for _, info := range t.stations {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}

// Len returns the number of stations seen
func (t *StationTable) Len() int {
	return len(t.stations)
}
