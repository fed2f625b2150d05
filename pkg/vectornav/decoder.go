// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"fmt"
	"time"
)

// Counters holds the decoder's monotonic outcome counts
type Counters struct {
	Messages       uint64
	HeaderErrors   uint64
	ChecksumErrors uint64
}

// Decoder implements the VectorNav frame scanner state machine.
//
// A Decoder owns its buffer and counters and is not safe for concurrent use.
// Use one Decoder per byte stream.
type Decoder struct {
	state         State
	buffer        []byte
	groups        []int
	headerLength  int
	payloadLength int
	supported     int // the one payload length this decoder accepts

	counters  Counters
	latest    TelemetryRecord
	hasLatest bool
}

// NewDecoder creates a decoder for the reference output configuration
func NewDecoder() *Decoder {
	return NewDecoderWithPayloadLength(ReferencePayloadSize)
}

// NewDecoderWithPayloadLength creates a decoder that accepts only frames whose
// selectors resolve to payloadLength bytes
func NewDecoderWithPayloadLength(payloadLength int) *Decoder {
	return &Decoder{
		state:     StateAwaitingSync,
		buffer:    make([]byte, 0, ReferenceFrameSize),
		supported: payloadLength,
	}
}

// Reset discards the in-progress frame and resumes scanning for sync.
// Counters are not affected.
func (d *Decoder) Reset() {
	d.state = StateAwaitingSync
	d.buffer = d.buffer[:0]
	d.groups = nil
	d.headerLength = 0
	d.payloadLength = 0
}

// State returns the current decoder state
func (d *Decoder) State() State {
	return d.state
}

// Counters returns a snapshot of the outcome counters
func (d *Decoder) Counters() Counters {
	return d.counters
}

// SupportedPayloadLength returns the payload length this decoder accepts
func (d *Decoder) SupportedPayloadLength() int {
	return d.supported
}

// Latest returns the record of the most recent verified frame
func (d *Decoder) Latest() (TelemetryRecord, bool) {
	return d.latest, d.hasLatest
}

// GetRawBytes returns the bytes buffered for the in-progress frame
func (d *Decoder) GetRawBytes() []byte {
	return d.buffer
}

// Feed runs every byte of data through DecodeByte and returns the completed packets.
// Errors are reflected in the counters only.
func (d *Decoder) Feed(data []byte) []*Packet {
	var packets []*Packet
	for _, b := range data {
		if packet, _ := d.DecodeByte(b); packet != nil {
			packets = append(packets, packet)
		}
	}
	return packets
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the frame is incomplete.
// Returns a *HeaderError or *ChecksumError when a frame attempt is discarded.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch d.state {
	case StateAwaitingSync:
		return nil, d.awaitSync(b)

	case StateAwaitingGroupSelector:
		d.buffer = append(d.buffer, b)
		d.groups = GroupIndices(b)
		d.headerLength = HeaderLength(b)
		d.state = StateAwaitingFieldSelectors
		// A selector with no groups completes the header immediately
		if len(d.buffer) == d.headerLength {
			return nil, d.resolveHeader()
		}
		return nil, nil

	case StateAwaitingFieldSelectors:
		d.buffer = append(d.buffer, b)
		if len(d.buffer) == d.headerLength {
			return nil, d.resolveHeader()
		}
		return nil, nil

	case StateAwaitingPayloadAndChecksum:
		d.buffer = append(d.buffer, b)
		if len(d.buffer) < d.headerLength+d.payloadLength+ChecksumSize {
			return nil, nil
		}
		return d.completeFrame()

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

func (d *Decoder) awaitSync(b byte) error {
	if b != SyncByte {
		d.counters.HeaderErrors++
		return &HeaderError{Reason: HeaderBadSync, Byte: b}
	}
	d.buffer = append(d.buffer[:0], b)
	d.state = StateAwaitingGroupSelector
	return nil
}

// resolveHeader fixes the payload length for this frame once the header is complete
func (d *Decoder) resolveHeader() error {
	length, err := ResolvePayloadLength(d.groups, d.buffer[2:d.headerLength])
	if err == nil && length == d.supported {
		d.payloadLength = length
		d.state = StateAwaitingPayloadAndChecksum
		return nil
	}

	d.counters.HeaderErrors++
	herr := &HeaderError{
		Reason:        HeaderUnsupportedLength,
		GroupSelector: d.buffer[1],
		PayloadLength: length,
		Expected:      d.supported,
	}
	d.Reset()
	return herr
}

func (d *Decoder) completeFrame() (*Packet, error) {
	end := len(d.buffer) - ChecksumSize
	received := uint16(d.buffer[end])<<8 | uint16(d.buffer[end+1])
	calculated := CalculateChecksum(d.buffer[1:end])

	if calculated != received {
		d.counters.ChecksumErrors++
		d.Reset()
		return nil, &ChecksumError{Calculated: calculated, Received: received}
	}

	raw := make([]byte, len(d.buffer))
	copy(raw, d.buffer)

	packet := &Packet{
		groupSelector:  raw[1],
		groups:         d.groups,
		fieldSelectors: FieldSelectors(d.groups, raw[2:d.headerLength]),
		payload:        raw[d.headerLength:end],
		checksum:       received,
		raw:            raw,
		timestamp:      time.Now(),
	}

	d.counters.Messages++
	if rec, err := packet.Record(); err == nil {
		d.latest = rec
		d.hasLatest = true
	}

	d.Reset()
	return packet, nil
}
