// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unitelway

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomPayload favours DLE so stuffing paths are hit often
func randomPayload(rng *rand.Rand, max int) []byte {
	p := make([]byte, rng.Intn(max+1))
	for i := range p {
		if rng.Intn(4) == 0 {
			p[i] = DLE
		} else {
			p[i] = byte(rng.Intn(256))
		}
	}
	return p
}

// ============================================================
// Codec Fuzz Tests
// ============================================================

func TestFuzz_StuffRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		p := randomPayload(rng, 64)
		if got := Unstuff(Stuff(p)); !bytes.Equal(got, p) {
			t.Fatalf("round %d: Unstuff(Stuff(%X)) = %X", i, p, got)
		}
	}
}

func TestFuzz_ChecksumDetectsSingleBitFlip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		p := randomPayload(rng, 32)
		if len(p) == 0 {
			continue
		}
		framed := AppendChecksum(p)
		if !VerifyChecksum(framed) {
			t.Fatalf("round %d: VerifyChecksum(AppendChecksum(%X)) = false", i, p)
		}
		framed[rng.Intn(len(p))] ^= 1 << uint(rng.Intn(8))
		if VerifyChecksum(framed) {
			t.Fatalf("round %d: bit flip in %X not detected", i, framed)
		}
	}
}

func TestFuzz_FrameRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		station := byte(rng.Intn(256))
		p := randomPayload(rng, MaxPayloadSize)

		raw, err := BuildFrame(DLE, STX, station, p)
		if err != nil {
			t.Fatalf("round %d: BuildFrame() error = %v", i, err)
		}
		f, err := ParseFrame(raw)
		if err != nil {
			t.Fatalf("round %d: ParseFrame(%X) error = %v", i, raw, err)
		}
		if f.Station != station || !bytes.Equal(f.Payload, p) {
			t.Fatalf("round %d: got station %d payload %X, want %d %X", i, f.Station, f.Payload, station, p)
		}
	}
}

func TestFuzz_DecoderMatchesParseFrame(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for i := 0; i < rounds; i++ {
		p := randomPayload(rng, 40)
		raw, _ := BuildFrame(DLE, STX, byte(rng.Intn(256)), p)

		// a poll before each frame, as on a live bus
		stream := append([]byte{DLE, ENQ, byte(rng.Intn(256))}, raw...)
		events, errs := d.Decode(stream)
		if len(errs) != 0 {
			t.Fatalf("round %d: Decode(%X) errors = %v", i, stream, errs)
		}
		if len(events) != 2 || events[1].Kind() != EventFrame {
			t.Fatalf("round %d: Decode(%X) = %d events", i, stream, len(events))
		}
		if !bytes.Equal(events[1].Frame().Payload, p) {
			t.Fatalf("round %d: payload %X, want %X", i, events[1].Frame().Payload, p)
		}
		if !bytes.Equal(events[1].Raw(), raw) {
			t.Fatalf("round %d: raw %X, want %X", i, events[1].Raw(), raw)
		}
	}
}

func TestFuzz_DecoderSurvivesGarbage(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for i := 0; i < rounds; i++ {
		garbage := make([]byte, rng.Intn(64))
		rng.Read(garbage)
		d.Decode(garbage)
	}

	// the decoder recovers once the next clean frame arrives
	d.Reset()
	raw, _ := BuildFrame(DLE, STX, 0x01, []byte{0x20, 0, 0, 0, 0, 0, 0xFB})
	events, errs := d.Decode(raw)
	if len(errs) != 0 || len(events) != 1 {
		t.Fatalf("Decode() after garbage = %d events, errors %v", len(events), errs)
	}
}
