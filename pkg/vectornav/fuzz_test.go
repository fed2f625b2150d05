// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"bytes"
	"math"
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

// randomNonSync returns a random byte other than the sync byte
func randomNonSync(rng *rand.Rand) byte {
	for {
		if b := byte(rng.Intn(256)); b != SyncByte {
			return b
		}
	}
}

// randomFloat32 returns a random non-NaN float32
func randomFloat32(rng *rand.Rand) float32 {
	for {
		if f := math.Float32frombits(rng.Uint32()); !math.IsNaN(float64(f)) {
			return f
		}
	}
}

// randomFloat64 returns a random non-NaN float64
func randomFloat64(rng *rand.Rand) float64 {
	for {
		if f := math.Float64frombits(rng.Uint64()); !math.IsNaN(f) {
			return f
		}
	}
}

func randomVec3(rng *rand.Rand) [3]float32 {
	return [3]float32{randomFloat32(rng), randomFloat32(rng), randomFloat32(rng)}
}

// randomRecord builds a record with random non-NaN field values
func randomRecord(rng *rand.Rand) TelemetryRecord {
	return TelemetryRecord{
		Timestamp:           rng.Uint64(),
		YawPitchRoll:        randomVec3(rng),
		AngularRate:         randomVec3(rng),
		Position:            [3]float64{randomFloat64(rng), randomFloat64(rng), randomFloat64(rng)},
		Velocity:            randomVec3(rng),
		Accel:               randomVec3(rng),
		TimeOfWeek:          rng.Uint64(),
		NumSats:             uint8(rng.Intn(256)),
		Fix:                 uint8(rng.Intn(256)),
		PositionUncertainty: randomVec3(rng),
		VelocityUncertainty: randomFloat32(rng),
		LinearAccel:         randomVec3(rng),
		AttitudeUncertainty: randomVec3(rng),
		InsStatus:           uint16(rng.Intn(65536)),
		VelocityBody:        randomVec3(rng),
	}
}

// ============================================================
// Codec Fuzz Tests
// ============================================================

func TestFuzz_TelemetryRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		rec := randomRecord(rng)
		got, err := DecodeTelemetry(EncodeTelemetry(rec))
		if err != nil {
			t.Fatalf("Round %d: decode error: %v", i, err)
		}
		if got != rec {
			t.Fatalf("Round %d: round trip mismatch\n got  %+v\n want %+v", i, got, rec)
		}
	}
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzz_GarbageThenFrames(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		var stream []byte
		var records []TelemetryRecord
		garbageCount := 0

		frames := 1 + rng.Intn(3)
		for f := 0; f < frames; f++ {
			n := rng.Intn(20)
			for g := 0; g < n; g++ {
				stream = append(stream, randomNonSync(rng))
			}
			garbageCount += n

			rec := randomRecord(rng)
			records = append(records, rec)
			stream = append(stream, EncodeTelemetryFrame(rec)...)
		}

		// Feed in random chunk sizes
		d := NewDecoder()
		var packets []*Packet
		for off := 0; off < len(stream); {
			end := off + 1 + rng.Intn(64)
			if end > len(stream) {
				end = len(stream)
			}
			packets = append(packets, d.Feed(stream[off:end])...)
			off = end
		}

		c := d.Counters()
		if c.HeaderErrors != uint64(garbageCount) {
			t.Fatalf("Round %d: expected %d header errors, got %d", i, garbageCount, c.HeaderErrors)
		}
		if c.Messages != uint64(frames) || len(packets) != frames || c.ChecksumErrors != 0 {
			t.Fatalf("Round %d: expected %d messages, got %+v (%d packets)", i, frames, c, len(packets))
		}
		for j, p := range packets {
			rec, err := p.Record()
			if err != nil || rec != records[j] {
				t.Fatalf("Round %d: packet %d record mismatch (err %v)", i, j, err)
			}
		}
	}
}

func TestFuzz_CorruptedFramesNeverVerifyWrongly(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		frame := EncodeTelemetryFrame(randomRecord(rng))
		corrupted := append([]byte(nil), frame...)

		// Flip one bit anywhere after the header
		pos := ReferenceHeaderSize + rng.Intn(len(frame)-ReferenceHeaderSize)
		corrupted[pos] ^= 1 << uint(rng.Intn(8))

		d := NewDecoder()
		packets := d.Feed(corrupted)
		if len(packets) != 0 {
			t.Fatalf("Round %d: corrupted frame (bit at byte %d) produced a packet", i, pos)
		}
		if c := d.Counters(); c.ChecksumErrors != 1 {
			t.Fatalf("Round %d: expected 1 checksum error, got %+v", i, c)
		}

		// The stream recovers on the next intact frame
		if packets := d.Feed(frame); len(packets) != 1 || !bytes.Equal(packets[0].Raw(), frame) {
			t.Fatalf("Round %d: decoder did not recover", i)
		}
	}
}

func TestFuzz_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	d := NewDecoder()
	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(512))
		rng.Read(data)
		for _, p := range d.Feed(data) {
			raw := p.Raw()
			crc := uint16(raw[len(raw)-2])<<8 | uint16(raw[len(raw)-1])
			if !VerifyChecksum(raw[1:len(raw)-2], crc) {
				t.Fatalf("Round %d: emitted packet with bad checksum", i)
			}
			if len(p.Payload()) != ReferencePayloadSize {
				t.Fatalf("Round %d: emitted packet with %d payload bytes", i, len(p.Payload()))
			}
		}
	}
}
