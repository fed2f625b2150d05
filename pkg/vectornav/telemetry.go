// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"encoding/binary"
	"math"
)

// TelemetryRecord is the payload of the reference output configuration.
//
// Fields are packed with no padding, little-endian, at these offsets:
//
//	  0  Timestamp            uint64
//	  8  YawPitchRoll         [3]float32
//	 20  AngularRate          [3]float32
//	 32  Position             [3]float64
//	 56  Velocity             [3]float32
//	 68  Accel                [3]float32
//	 80  TimeOfWeek           uint64
//	 88  NumSats              uint8
//	 89  Fix                  uint8
//	 90  PositionUncertainty  [3]float32
//	102  VelocityUncertainty  float32
//	106  LinearAccel          [3]float32
//	118  AttitudeUncertainty  [3]float32
//	130  InsStatus            uint16
//	132  VelocityBody         [3]float32
//	144  (end)
type TelemetryRecord struct {
	Timestamp           uint64     `cbor:"0,keyasint"`
	YawPitchRoll        [3]float32 `cbor:"1,keyasint"`
	AngularRate         [3]float32 `cbor:"2,keyasint"`
	Position            [3]float64 `cbor:"3,keyasint"`
	Velocity            [3]float32 `cbor:"4,keyasint"`
	Accel               [3]float32 `cbor:"5,keyasint"`
	TimeOfWeek          uint64     `cbor:"6,keyasint"`
	NumSats             uint8      `cbor:"7,keyasint"`
	Fix                 uint8      `cbor:"8,keyasint"`
	PositionUncertainty [3]float32 `cbor:"9,keyasint"`
	VelocityUncertainty float32    `cbor:"10,keyasint"`
	LinearAccel         [3]float32 `cbor:"11,keyasint"`
	AttitudeUncertainty [3]float32 `cbor:"12,keyasint"`
	InsStatus           uint16     `cbor:"13,keyasint"`
	VelocityBody        [3]float32 `cbor:"14,keyasint"`
}

// ReferenceRecord returns the sample record transmitted by the send command
func ReferenceRecord() TelemetryRecord {
	return TelemetryRecord{
		Timestamp:           100_000,
		YawPitchRoll:        [3]float32{-3, -2, -1},
		AngularRate:         [3]float32{1, 2, 3},
		Position:            [3]float64{4, 5, 6},
		Velocity:            [3]float32{7, 8, 9},
		Accel:               [3]float32{10, 11, 12},
		TimeOfWeek:          12_345_678,
		NumSats:             42,
		Fix:                 1,
		PositionUncertainty: [3]float32{13, 14, 15},
		VelocityUncertainty: 16,
		LinearAccel:         [3]float32{17, 18, 19},
		AttitudeUncertainty: [3]float32{20, 21, 22},
		InsStatus:           6969,
		VelocityBody:        [3]float32{23, 24, 25},
	}
}

// DecodeTelemetry decodes a reference configuration payload.
// Returns a *LengthError if payload is not exactly ReferencePayloadSize bytes.
func DecodeTelemetry(payload []byte) (TelemetryRecord, error) {
	var rec TelemetryRecord
	if len(payload) != ReferencePayloadSize {
		return rec, &LengthError{What: "telemetry payload", Length: len(payload), Expected: ReferencePayloadSize}
	}

	r := payloadReader{buf: payload}
	rec.Timestamp = r.uint64()
	r.float32s(rec.YawPitchRoll[:])
	r.float32s(rec.AngularRate[:])
	for i := range rec.Position {
		rec.Position[i] = math.Float64frombits(r.uint64())
	}
	r.float32s(rec.Velocity[:])
	r.float32s(rec.Accel[:])
	rec.TimeOfWeek = r.uint64()
	rec.NumSats = r.uint8()
	rec.Fix = r.uint8()
	r.float32s(rec.PositionUncertainty[:])
	rec.VelocityUncertainty = math.Float32frombits(r.uint32())
	r.float32s(rec.LinearAccel[:])
	r.float32s(rec.AttitudeUncertainty[:])
	rec.InsStatus = r.uint16()
	r.float32s(rec.VelocityBody[:])

	return rec, nil
}

// EncodeTelemetry encodes a record into its ReferencePayloadSize byte payload.
// It is the exact inverse of DecodeTelemetry.
func EncodeTelemetry(rec TelemetryRecord) []byte {
	le := binary.LittleEndian
	b := make([]byte, 0, ReferencePayloadSize)

	b = le.AppendUint64(b, rec.Timestamp)
	b = appendFloat32s(b, rec.YawPitchRoll[:])
	b = appendFloat32s(b, rec.AngularRate[:])
	for _, v := range rec.Position {
		b = le.AppendUint64(b, math.Float64bits(v))
	}
	b = appendFloat32s(b, rec.Velocity[:])
	b = appendFloat32s(b, rec.Accel[:])
	b = le.AppendUint64(b, rec.TimeOfWeek)
	b = append(b, rec.NumSats, rec.Fix)
	b = appendFloat32s(b, rec.PositionUncertainty[:])
	b = le.AppendUint32(b, math.Float32bits(rec.VelocityUncertainty))
	b = appendFloat32s(b, rec.LinearAccel[:])
	b = appendFloat32s(b, rec.AttitudeUncertainty[:])
	b = le.AppendUint16(b, rec.InsStatus)
	b = appendFloat32s(b, rec.VelocityBody[:])

	return b
}

func appendFloat32s(b []byte, vs []float32) []byte {
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// payloadReader reads little-endian values from a length-checked payload
type payloadReader struct {
	buf []byte
	off int
}

func (r *payloadReader) uint8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *payloadReader) uint16() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *payloadReader) uint32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *payloadReader) uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *payloadReader) float32s(dst []float32) {
	for i := range dst {
		dst[i] = math.Float32frombits(r.uint32())
	}
}
