// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import "time"

// Packet represents a checksum-verified VectorNav frame
type Packet struct {
	groupSelector  byte
	groups         []int
	fieldSelectors []uint16
	payload        []byte
	checksum       uint16
	raw            []byte
	timestamp      time.Time

	// Cached decoded record (lazy parsing)
	record   TelemetryRecord
	parsed   bool
	parseErr error
}

// NewPacket creates a packet from its header fields, payload and checksum
func NewPacket(groupSelector byte, fieldSelectors []uint16, payload []byte, checksum uint16) *Packet {
	return &Packet{
		groupSelector:  groupSelector,
		groups:         GroupIndices(groupSelector),
		fieldSelectors: fieldSelectors,
		payload:        payload,
		checksum:       checksum,
		timestamp:      time.Now(),
	}
}

// NewPacketWithRecord creates a reference configuration packet carrying rec.
// The payload is encoded and the record is cached as already parsed.
func NewPacketWithRecord(rec TelemetryRecord) *Packet {
	p := NewPacket(ReferenceGroupSelector, append([]uint16(nil), ReferenceFieldSelectors...), EncodeTelemetry(rec), 0)
	p.record = rec
	p.parsed = true
	return p
}

// ensureParsed decodes the payload if not already done
func (p *Packet) ensureParsed() {
	if p.parsed {
		return
	}
	p.parsed = true
	p.record, p.parseErr = DecodeTelemetry(p.payload)
}

// GroupSelector returns the raw group selector byte
func (p *Packet) GroupSelector() byte {
	return p.groupSelector
}

// Groups returns the selected group indices in ascending order
func (p *Packet) Groups() []int {
	return p.groups
}

// FieldSelectors returns one field selector per selected group
func (p *Packet) FieldSelectors() []uint16 {
	return p.fieldSelectors
}

// Payload returns the payload bytes
func (p *Packet) Payload() []byte {
	return p.payload
}

// Length returns the payload length
func (p *Packet) Length() int {
	return len(p.payload)
}

// Checksum returns the frame checksum
func (p *Packet) Checksum() uint16 {
	return p.checksum
}

// Raw returns the complete frame as received, including sync and checksum.
// Nil for packets that were not produced by a Decoder.
func (p *Packet) Raw() []byte {
	return p.raw
}

// Timestamp returns the packet's decode timestamp
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// Record returns the decoded telemetry record
func (p *Packet) Record() (TelemetryRecord, error) {
	p.ensureParsed()
	return p.record, p.parseErr
}
