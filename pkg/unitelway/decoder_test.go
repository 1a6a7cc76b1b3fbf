// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecoder_BusTrace(t *testing.T) {
	request, _ := EncodeRequest(0x05, NewXwayAddress(0, 0, 0, 0, 0), []byte{0x31, 0x07, 0x00})
	reply := response(0x05, 0x61, 0x00, DLE)

	var stream []byte
	stream = append(stream, DLE, ENQ, 0x04)
	stream = append(stream, DLE, ENQ, 0x05)
	stream = append(stream, request...)
	stream = append(stream, reply...)
	stream = append(stream, EncodeAck(0x05)...)
	stream = append(stream, NAK)

	d := NewDecoder()
	events, errs := d.Decode(stream)
	if len(errs) != 0 {
		t.Fatalf("Decode() errors = %v", errs)
	}

	wantKinds := []EventKind{EventPoll, EventPoll, EventFrame, EventFrame, EventAck, EventNak}
	if len(events) != len(wantKinds) {
		t.Fatalf("Decode() = %d events, want %d", len(events), len(wantKinds))
	}
	for i, k := range wantKinds {
		if events[i].Kind() != k {
			t.Errorf("event %d = %s, want %s", i, events[i].Kind(), k)
		}
	}

	if events[1].Station() != 0x05 {
		t.Errorf("poll station = %d, want 5", events[1].Station())
	}

	code, ok := events[3].Code()
	if !ok || code != 0x61 {
		t.Errorf("reply code = 0x%02X, %v; want 0x61", code, ok)
	}
	u, err := events[3].Unite()
	if err != nil || !bytes.Equal(u, []byte{0x61, 0x00, DLE}) {
		t.Errorf("reply Unite() = %X, %v", u, err)
	}
	if !bytes.Equal(events[3].Raw(), reply) {
		t.Errorf("reply Raw() = %X, want %X", events[3].Raw(), reply)
	}
}

func TestDecoder_ChecksumError(t *testing.T) {
	raw := response(0x05, 0xFB, 0x00)
	raw[len(raw)-1] ^= 0x55

	d := NewDecoder()
	events, errs := d.Decode(raw)
	if len(events) != 0 {
		t.Errorf("Decode() = %d events, want none", len(events))
	}
	if len(errs) != 1 {
		t.Fatalf("Decode() errors = %v, want one", errs)
	}
	var ce *ChecksumError
	if !errors.As(errs[0], &ce) {
		t.Errorf("error = %v, want *ChecksumError", errs[0])
	}
}

func TestDecoder_LengthEqualToDLE(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 16)
	raw, _ := BuildFrame(DLE, STX, 0x02, payload)

	d := NewDecoder()
	events, errs := d.Decode(raw)
	if len(errs) != 0 || len(events) != 1 {
		t.Fatalf("Decode() = %d events, errors %v", len(events), errs)
	}
	if !bytes.Equal(events[0].Frame().Payload, payload) {
		t.Errorf("payload = %X", events[0].Frame().Payload)
	}
}

func TestStatistics_Update(t *testing.T) {
	refused, _ := BuildFrame(DLE, STX, 0x05, []byte{XwayRefused, 0, 0, 0, 0, 0, 0xFB})
	corrupt := response(0x05, 0xFB, 0x00)
	corrupt[len(corrupt)-1]++

	var stream []byte
	stream = append(stream, DLE, ENQ, 0x05)
	stream = append(stream, response(0x05, UniteFailure)...)
	stream = append(stream, refused...)
	stream = append(stream, corrupt...)
	stream = append(stream, EncodeAck(0x05)...)

	stats := NewStatistics()
	d := NewDecoder()
	for _, b := range stream {
		ev, err := d.DecodeByte(b)
		if ev != nil || err != nil {
			stats.Update(ev, err)
		}
	}

	if stats.Polls != 1 || stats.Frames != 2 || stats.Acks != 1 {
		t.Errorf("polls/frames/acks = %d/%d/%d, want 1/2/1", stats.Polls, stats.Frames, stats.Acks)
	}
	if stats.ChecksumErrors != 1 {
		t.Errorf("ChecksumErrors = %d, want 1", stats.ChecksumErrors)
	}
	if stats.FailedRequests != 1 || stats.RefusedRoutes != 1 {
		t.Errorf("failed/refused = %d/%d, want 1/1", stats.FailedRequests, stats.RefusedRoutes)
	}
	if stats.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", stats.TotalEvents)
	}
	if !strings.Contains(stats.String(), "BCC Errors:") {
		t.Errorf("String() missing BCC line:\n%s", stats.String())
	}

	stats.Reset()
	if stats.TotalEvents != 0 {
		t.Errorf("TotalEvents after Reset() = %d", stats.TotalEvents)
	}
}

func TestStationTable(t *testing.T) {
	var stream []byte
	stream = append(stream, DLE, ENQ, 0x07)
	stream = append(stream, DLE, ENQ, 0x05)
	stream = append(stream, DLE, ENQ, 0x05)
	stream = append(stream, response(0x05, 0xFB, 0x00)...)
	stream = append(stream, EncodeAck(0x05)...)
	stream = append(stream, NAK)

	table := NewStationTable()
	events, _ := NewDecoder().Decode(stream)
	for _, ev := range events {
		table.Update(ev)
	}

	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	stations := table.Stations()
	if stations[0].Station != 0x05 || stations[1].Station != 0x07 {
		t.Errorf("Stations() not ordered by address: %+v", stations)
	}

	five, ok := table.Lookup(0x05)
	if !ok {
		t.Fatal("Lookup(5) missing")
	}
	if five.Polls != 2 || five.Frames != 1 || five.Acks != 1 {
		t.Errorf("station 5 = %+v", five)
	}
	if !five.HasCode || five.LastCode != 0xFB {
		t.Errorf("station 5 last code = 0x%02X, %v", five.LastCode, five.HasCode)
	}
	if !five.Answering() {
		t.Error("station 5 not answering")
	}

	seven, _ := table.Lookup(0x07)
	if seven.Answering() {
		t.Error("station 7 answering, but only polled")
	}
}

func TestFormatEvent(t *testing.T) {
	events, _ := NewDecoder().Decode(append([]byte{DLE, ENQ, 0x03}, response(0x03, 0xFB, 0x00)...))
	if len(events) != 2 {
		t.Fatalf("Decode() = %d events", len(events))
	}

	if got := FormatEvent(events[0]); !strings.Contains(got, "POLL station=3") {
		t.Errorf("FormatEvent(poll) = %q", got)
	}
	got := FormatEvent(events[1])
	if !strings.Contains(got, "FRAME station=3") || !strings.Contains(got, "code=0xFB 00") {
		t.Errorf("FormatEvent(frame) = %q", got)
	}

	if FormatHex([]byte{0x10, 0x02, 0xAB}) != "10 02 AB" {
		t.Errorf("FormatHex() = %q", FormatHex([]byte{0x10, 0x02, 0xAB}))
	}
}

func TestDecoder_GetRawBytes(t *testing.T) {
	frame := response(0x05, 0xFB, DLE, 0x00)
	d := NewDecoder()

	if got := d.GetRawBytes(); len(got) != 0 {
		t.Fatalf("GetRawBytes() before input = %X", got)
	}

	partial := frame[:len(frame)-1]
	events, errs := d.Decode(partial)
	if len(events) != 0 || len(errs) != 0 {
		t.Fatalf("Decode(partial) = %d events, %v", len(events), errs)
	}
	if got := d.GetRawBytes(); !bytes.Equal(got, partial) {
		t.Errorf("GetRawBytes() mid-frame = %X, want %X", got, partial)
	}

	if _, err := d.DecodeByte(frame[len(frame)-1]); err != nil {
		t.Fatalf("DecodeByte(BCC) error = %v", err)
	}
	if got := d.GetRawBytes(); len(got) != 0 {
		t.Errorf("GetRawBytes() after frame = %X, want empty", got)
	}
}
