// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Checksum
// ============================================================

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", nil, 0x00},
		{"single", []byte{0x42}, 0x42},
		{"wraps", []byte{0xFF, 0x02}, 0x01},
		{"header", []byte{DLE, STX, 0x01, 0x02, 0xAA, 0xBB}, 0x7A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum(%X) = 0x%02X, want 0x%02X", tt.data, got, tt.want)
			}
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte{0x10, 0x02, 0x05, 0x03, 0x20, 0xFA, 0x00}
	framed := AppendChecksum(data)

	if !VerifyChecksum(framed) {
		t.Fatalf("VerifyChecksum(%X) = false, want true", framed)
	}
	if len(framed) != len(data)+1 {
		t.Fatalf("AppendChecksum added %d bytes, want 1", len(framed)-len(data))
	}

	for i := 0; i < len(data); i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte(nil), framed...)
			corrupt[i] ^= 1 << bit
			if VerifyChecksum(corrupt) {
				t.Errorf("flipping bit %d of byte %d not detected", bit, i)
			}
		}
	}

	if VerifyChecksum(nil) {
		t.Error("VerifyChecksum(nil) = true, want false")
	}
}

// ============================================================
// Stuffing
// ============================================================

func TestStuff(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"no DLE", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"single DLE", []byte{DLE}, []byte{DLE, DLE}},
		{"DLE in middle", []byte{0x01, DLE, 0x02}, []byte{0x01, DLE, DLE, 0x02}},
		{"adjacent DLEs", []byte{DLE, DLE}, []byte{DLE, DLE, DLE, DLE}},
		{"empty", []byte{}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stuff(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Stuff(%X) = %X, want %X", tt.in, got, tt.want)
			}
			if back := Unstuff(got); !bytes.Equal(back, tt.in) {
				t.Errorf("Unstuff(Stuff(%X)) = %X", tt.in, back)
			}
		})
	}
}

func TestUnstuff_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"lone DLE kept", []byte{0x01, DLE, 0x02}, []byte{0x01, DLE, 0x02}},
		{"three DLEs", []byte{DLE, DLE, DLE}, []byte{DLE, DLE}},
		{"four DLEs", []byte{DLE, DLE, DLE, DLE}, []byte{DLE, DLE}},
		{"pair then lone", []byte{DLE, DLE, 0x05, DLE}, []byte{DLE, 0x05, DLE}},
		{"trailing DLE", []byte{0x07, DLE}, []byte{0x07, DLE}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unstuff(tt.in); !bytes.Equal(got, tt.want) {
				t.Errorf("Unstuff(%X) = %X, want %X", tt.in, got, tt.want)
			}
		})
	}
}

// ============================================================
// Frame build / parse
// ============================================================

func TestBuildFrame(t *testing.T) {
	tests := []struct {
		name    string
		station byte
		payload []byte
		want    []byte
	}{
		{
			name:    "plain payload",
			station: 0x01,
			payload: []byte{0xAA, 0xBB},
			want:    []byte{DLE, STX, 0x01, 0x02, 0xAA, 0xBB, 0x7A},
		},
		{
			name:    "DLE in payload is doubled and counted in BCC",
			station: 0x01,
			payload: []byte{DLE},
			want:    []byte{DLE, STX, 0x01, 0x01, DLE, DLE, 0x34},
		},
		{
			name:    "length equal to DLE is doubled",
			station: 0x01,
			payload: make([]byte, 16),
			want: append(append([]byte{DLE, STX, 0x01, DLE, DLE},
				make([]byte, 16)...), 0x33),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildFrame(DLE, STX, tt.station, tt.payload)
			if err != nil {
				t.Fatalf("BuildFrame() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("BuildFrame() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestBuildFrame_TooLarge(t *testing.T) {
	_, err := BuildFrame(DLE, STX, 1, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("BuildFrame() error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestEncodeAck(t *testing.T) {
	want := []byte{DLE, ACK, 0x05, 0x00, 0x1B}
	if got := EncodeAck(0x05); !bytes.Equal(got, want) {
		t.Errorf("EncodeAck(5) = %X, want %X", got, want)
	}
}

func TestParseFrame_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{DLE},
		{DLE, DLE, DLE},
		{0x01, DLE, 0x02, DLE, DLE, 0x03},
		make([]byte, 16),
		bytes.Repeat([]byte{DLE}, 16),
		bytes.Repeat([]byte{0xFF}, MaxPayloadSize),
	}

	for _, p := range payloads {
		raw, err := BuildFrame(DLE, STX, 0x2A, p)
		if err != nil {
			t.Fatalf("BuildFrame(%X) error = %v", p, err)
		}

		n, ok := FrameLength(raw)
		if !ok || n != len(raw) {
			t.Errorf("FrameLength(%X) = %d, %v; want %d, true", raw, n, ok, len(raw))
		}

		f, err := ParseFrame(raw)
		if err != nil {
			t.Fatalf("ParseFrame(%X) error = %v", raw, err)
		}
		if f.Station != 0x2A || f.Marker != STX || f.Start != DLE {
			t.Errorf("ParseFrame header = %+v", f)
		}
		if int(f.Length) != len(p) {
			t.Errorf("Length = %d, want %d", f.Length, len(p))
		}
		if !bytes.Equal(f.Payload, p) {
			t.Errorf("Payload = %X, want %X", f.Payload, p)
		}
	}
}

func TestFrameLength_Incomplete(t *testing.T) {
	raw, _ := BuildFrame(DLE, STX, 0x01, []byte{0x01, DLE, 0x02})

	for i := 0; i < len(raw); i++ {
		if n, ok := FrameLength(raw[:i]); ok {
			t.Errorf("FrameLength(%d of %d bytes) = %d, true; want incomplete", i, len(raw), n)
		}
	}

	withTail := append(append([]byte(nil), raw...), DLE, ENQ, 0x03)
	if n, ok := FrameLength(withTail); !ok || n != len(raw) {
		t.Errorf("FrameLength with trailing bytes = %d, %v; want %d, true", n, ok, len(raw))
	}
}

func TestParseFrame_ChecksumMismatch(t *testing.T) {
	raw, _ := BuildFrame(DLE, STX, 0x01, []byte{0xFB, 0x00})
	raw[len(raw)-1] ^= 0x01

	_, err := ParseFrame(raw)

	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatalf("ParseFrame() error = %v, want *ChecksumError", err)
	}
	if ce.Actual != raw[len(raw)-1] || ce.Expected != Checksum(raw[:len(raw)-1]) {
		t.Errorf("ChecksumError = %+v", ce)
	}
}

func TestParseFrame_Short(t *testing.T) {
	_, err := ParseFrame([]byte{DLE, STX, 0x01})
	if !errors.Is(err, ErrShortFrame) {
		t.Errorf("ParseFrame() error = %v, want ErrShortFrame", err)
	}
}

// ============================================================
// Envelope
// ============================================================

func TestWrapUnwrap(t *testing.T) {
	addr := NewXwayAddress(0x01, 0xFE, 0x00, 0x03, 0x04)
	payload := []byte{0x31, 0x07, 0x00}

	xway := Wrap(payload, addr)
	want := []byte{XwayStandard, 0x01, 0xFE, 0x00, 0x03, 0x04, 0x31, 0x07, 0x00}
	if !bytes.Equal(xway, want) {
		t.Fatalf("Wrap() = %X, want %X", xway, want)
	}

	got, err := Unwrap(xway)
	if err != nil {
		t.Fatalf("Unwrap() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Unwrap() = %X, want %X", got, payload)
	}
}

func TestUnwrap_Errors(t *testing.T) {
	if _, err := Unwrap([]byte{XwayRefused, 0, 0, 0, 0, 0, 0xFB}); !errors.Is(err, ErrRoutingRefused) {
		t.Errorf("refused envelope: error = %v, want ErrRoutingRefused", err)
	}
	if _, err := Unwrap([]byte{XwayStandard, 0, 0}); !errors.Is(err, ErrShortFrame) {
		t.Errorf("short envelope: error = %v, want ErrShortFrame", err)
	}
}

func TestDecodeResponse(t *testing.T) {
	addr := NewXwayAddress(0, 0, 0, 0, 0)

	tests := []struct {
		name    string
		xway    []byte
		want    []byte
		wantErr error
	}{
		{"mirror echo", Wrap([]byte{0xFB, 0x00}, addr), []byte{0xFB, 0x00}, nil},
		{"request failed", Wrap([]byte{UniteFailure}, addr), nil, ErrRequestFailed},
		{"route refused", append([]byte{XwayRefused, 0, 0, 0, 0, 0}, 0xFB), nil, ErrRoutingRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := BuildFrame(DLE, STX, 0x01, tt.xway)
			got, err := DecodeResponse(raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeResponse() error = %v, want %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("DecodeResponse() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestDecodeResponse_CorruptChecksum(t *testing.T) {
	raw, _ := EncodeRequest(0x01, NewXwayAddress(0, 0, 0, 0, 0), []byte{0xFB, 0x00})
	raw[len(raw)-2]++

	got, err := DecodeResponse(raw)

	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatalf("DecodeResponse() error = %v, want *ChecksumError", err)
	}
	if got != nil {
		t.Errorf("DecodeResponse() returned partial result %X", got)
	}
}

// ============================================================
// Enquiry stripping
// ============================================================

func TestStripEnquiries(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"only poll", []byte{DLE, ENQ, 0x05}, []byte{}},
		{"poll in middle", []byte{0x01, DLE, ENQ, 0x07, 0x02}, []byte{0x01, 0x02}},
		{"two polls", []byte{DLE, ENQ, 0x01, 0xAA, DLE, ENQ, 0x02}, []byte{0xAA}},
		{"incomplete poll kept", []byte{0xAA, DLE, ENQ}, []byte{0xAA, DLE, ENQ}},
		{"start marker untouched", []byte{DLE, STX, 0x05}, []byte{DLE, STX, 0x05}},
		{"removal joins a poll", []byte{DLE, DLE, ENQ, 0x01, ENQ, 0x02}, []byte{}},
		{"removal joins two polls", []byte{DLE, DLE, DLE, ENQ, 0x01, ENQ, 0x02, ENQ, 0x03}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripEnquiries(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("StripEnquiries(%X) = %X, want %X", tt.in, got, tt.want)
			}
			if again := StripEnquiries(got); !bytes.Equal(again, got) {
				t.Errorf("second pass changed %X to %X", got, again)
			}
		})
	}
}

func TestScanStart(t *testing.T) {
	tests := []struct {
		name      string
		in        []byte
		want      []byte
		wantFound bool
	}{
		{"marker after poll", []byte{DLE, ENQ, 0x01, DLE, STX, 0x05}, []byte{DLE, STX, 0x05}, true},
		{"noise dropped", []byte{0x01, 0x02, 0x03}, []byte{}, false},
		{"pending DLE kept", []byte{0x01, 0x02, DLE}, []byte{DLE}, false},
		{"pending poll kept", []byte{0x01, DLE, ENQ}, []byte{DLE, ENQ}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := scanStart(tt.in)
			if found != tt.wantFound || !bytes.Equal(got, tt.want) {
				t.Errorf("scanStart(%X) = %X, %v; want %X, %v", tt.in, got, found, tt.want, tt.wantFound)
			}
		})
	}
}
