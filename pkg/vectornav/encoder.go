// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"fmt"
	"math/bits"
)

// Encoder encodes VectorNav frames for transmission.
// Handles header layout, payload length checks and checksum calculation.
type Encoder struct{}

// NewEncoder creates a new VectorNav frame encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode encodes a Packet to wire format.
func (e *Encoder) Encode(p *Packet) ([]byte, error) {
	return EncodeFrame(p.GroupSelector(), p.FieldSelectors(), p.Payload())
}

// EncodeFrame creates a complete wire-formatted frame.
// fieldSelectors must hold one selector per group set in groupSelector, and payload
// must be exactly as long as the selectors resolve to.
func EncodeFrame(groupSelector byte, fieldSelectors []uint16, payload []byte) ([]byte, error) {
	if groupSelector&0x80 != 0 {
		return nil, fmt.Errorf("group selector 0x%02X: bit 7 is not supported", groupSelector)
	}

	groups := GroupIndices(groupSelector)
	if len(fieldSelectors) != len(groups) {
		return nil, fmt.Errorf("group selector 0x%02X needs %d field selectors, got %d",
			groupSelector, len(groups), len(fieldSelectors))
	}

	headerLen := HeaderLength(groupSelector)
	frame := make([]byte, 0, headerLen+len(payload)+ChecksumSize)
	frame = append(frame, SyncByte, groupSelector)
	for _, sel := range fieldSelectors {
		frame = append(frame, byte(sel>>8), byte(sel))
	}

	length, err := ResolvePayloadLength(groups, frame[2:headerLen])
	if err != nil {
		return nil, err
	}
	if length != len(payload) {
		return nil, &LengthError{What: "payload", Length: len(payload), Expected: length}
	}

	frame = append(frame, payload...)
	return AppendChecksum(frame), nil
}

// EncodeTelemetryFrame creates a reference configuration frame carrying rec
func EncodeTelemetryFrame(rec TelemetryRecord) []byte {
	data, err := EncodeFrame(ReferenceGroupSelector, ReferenceFieldSelectors, EncodeTelemetry(rec))
	if err != nil {
		panic(fmt.Sprintf("vectornav: reference configuration does not encode: %v", err))
	}
	return data
}

// FieldCount returns the number of fields selected across all field selectors
func FieldCount(fieldSelectors []uint16) int {
	n := 0
	for _, sel := range fieldSelectors {
		n += bits.OnesCount16(sel)
	}
	return n
}
