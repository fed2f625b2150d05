// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// RecordMessage is the CBOR envelope used when forwarding decoded records.
// Encoded as a map with integer keys.
type RecordMessage struct {
	Sequence  uint64          `cbor:"0,keyasint"`
	Received  int64           `cbor:"1,keyasint"` // unix milliseconds
	Checksum  uint16          `cbor:"2,keyasint"`
	Telemetry TelemetryRecord `cbor:"3,keyasint"`
}

var recordEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	// Preserve float32 fields as-is instead of shortening to float16
	opts.ShortestFloat = cbor.ShortestFloatNone
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalRecordCBOR encodes a packet's record with its sequence number
func MarshalRecordCBOR(seq uint64, p *Packet) ([]byte, error) {
	rec, err := p.Record()
	if err != nil {
		return nil, err
	}

	msg := RecordMessage{
		Sequence:  seq,
		Received:  p.Timestamp().UnixMilli(),
		Checksum:  p.Checksum(),
		Telemetry: rec,
	}

	data, err := recordEncMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR record: %w", err)
	}
	return data, nil
}

// UnmarshalRecordCBOR decodes a message produced by MarshalRecordCBOR
func UnmarshalRecordCBOR(data []byte) (RecordMessage, error) {
	var msg RecordMessage
	if len(data) == 0 {
		return msg, fmt.Errorf("empty CBOR payload")
	}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return RecordMessage{}, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	return msg, nil
}
