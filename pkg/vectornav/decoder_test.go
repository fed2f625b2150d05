// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"bytes"
	"errors"
	"testing"
)

// feedAll runs data through DecodeByte, collecting packets and errors
func feedAll(d *Decoder, data []byte) ([]*Packet, []error) {
	var packets []*Packet
	var errs []error
	for _, b := range data {
		packet, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if packet != nil {
			packets = append(packets, packet)
		}
	}
	return packets, errs
}

// ============================================================
// State Transition Tests
// ============================================================

func TestDecoder_InitialState(t *testing.T) {
	d := NewDecoder()
	if d.State() != StateAwaitingSync {
		t.Errorf("Expected AWAITING_SYNC, got %s", d.State())
	}
	if d.Counters() != (Counters{}) {
		t.Errorf("Expected zero counters, got %+v", d.Counters())
	}
	if d.SupportedPayloadLength() != ReferencePayloadSize {
		t.Errorf("Expected supported length %d, got %d", ReferencePayloadSize, d.SupportedPayloadLength())
	}
}

func TestDecoder_Transitions(t *testing.T) {
	frame := referenceFrame(t)
	d := NewDecoder()

	steps := []struct {
		upTo  int // feed frame[:upTo]
		state State
	}{
		{1, StateAwaitingGroupSelector},
		{2, StateAwaitingFieldSelectors},
		{9, StateAwaitingFieldSelectors},
		{10, StateAwaitingPayloadAndChecksum},
		{len(frame) - 1, StateAwaitingPayloadAndChecksum},
		{len(frame), StateAwaitingSync},
	}

	fed := 0
	for _, step := range steps {
		for ; fed < step.upTo; fed++ {
			if _, err := d.DecodeByte(frame[fed]); err != nil {
				t.Fatalf("Unexpected error at byte %d: %v", fed, err)
			}
		}
		if d.State() != step.state {
			t.Errorf("After %d bytes: expected %s, got %s", step.upTo, step.state, d.State())
		}
	}
}

func TestDecoder_BufferStartsWithSync(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(0x00)
	if len(d.GetRawBytes()) != 0 {
		t.Errorf("Non-sync byte should not be buffered, got % X", d.GetRawBytes())
	}
	d.DecodeByte(SyncByte)
	d.DecodeByte(ReferenceGroupSelector)
	if !bytes.Equal(d.GetRawBytes(), []byte{SyncByte, ReferenceGroupSelector}) {
		t.Errorf("Unexpected buffer % X", d.GetRawBytes())
	}
}

func TestDecoder_BadSyncByte(t *testing.T) {
	d := NewDecoder()
	_, err := d.DecodeByte(0x42)

	var herr *HeaderError
	if !errors.As(err, &herr) {
		t.Fatalf("Expected *HeaderError, got %v", err)
	}
	if herr.Reason != HeaderBadSync || herr.Byte != 0x42 {
		t.Errorf("Unexpected header error %+v", herr)
	}
	if !errors.Is(err, ErrHeader) {
		t.Error("HeaderError should match ErrHeader")
	}
	if d.Counters().HeaderErrors != 1 {
		t.Errorf("Expected 1 header error, got %d", d.Counters().HeaderErrors)
	}
	if d.State() != StateAwaitingSync {
		t.Errorf("Expected AWAITING_SYNC, got %s", d.State())
	}
}

func TestDecoder_UnsupportedPayloadLength(t *testing.T) {
	d := NewDecoder()
	// Group 0 with timestamp only resolves to 8 bytes
	_, errs := feedAll(d, []byte{SyncByte, 0x01, 0x00, 0x01})

	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	var herr *HeaderError
	if !errors.As(errs[0], &herr) {
		t.Fatalf("Expected *HeaderError, got %v", errs[0])
	}
	if herr.Reason != HeaderUnsupportedLength || herr.PayloadLength != 8 || herr.Expected != 144 {
		t.Errorf("Unexpected header error %+v", herr)
	}
	if d.Counters().HeaderErrors != 1 {
		t.Errorf("Expected 1 header error, got %d", d.Counters().HeaderErrors)
	}
	if d.State() != StateAwaitingSync || len(d.GetRawBytes()) != 0 {
		t.Errorf("Decoder should discard the frame and await sync (state %s, buffer % X)", d.State(), d.GetRawBytes())
	}
}

func TestDecoder_EmptyGroupSelector(t *testing.T) {
	d := NewDecoder()
	_, errs := feedAll(d, []byte{SyncByte, 0x00})
	if len(errs) != 1 || !errors.Is(errs[0], ErrHeader) {
		t.Fatalf("Expected one header error, got %v", errs)
	}
	if d.State() != StateAwaitingSync {
		t.Errorf("Expected AWAITING_SYNC, got %s", d.State())
	}
}

func TestDecoder_ResetKeepsCounters(t *testing.T) {
	d := NewDecoder()
	feedAll(d, []byte{0x01, 0x02, SyncByte, ReferenceGroupSelector})
	d.Reset()

	if d.State() != StateAwaitingSync || len(d.GetRawBytes()) != 0 {
		t.Errorf("Reset should clear parse state")
	}
	if d.Counters().HeaderErrors != 2 {
		t.Errorf("Reset should keep counters, got %+v", d.Counters())
	}
}

// ============================================================
// Scenario Tests
// ============================================================

func TestDecoder_ScenarioA_ValidFrame(t *testing.T) {
	frame := referenceFrame(t)
	d := NewDecoder()

	packets, errs := feedAll(d, frame)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(packets))
	}

	p := packets[0]
	if p.GroupSelector() != ReferenceGroupSelector {
		t.Errorf("Expected group selector 0x39, got 0x%02X", p.GroupSelector())
	}
	if len(p.Payload()) != ReferencePayloadSize {
		t.Errorf("Expected %d payload bytes, got %d", ReferencePayloadSize, len(p.Payload()))
	}
	if !bytes.Equal(p.Raw(), frame) {
		t.Error("Raw bytes should equal the fed frame")
	}
	for i, sel := range ReferenceFieldSelectors {
		if p.FieldSelectors()[i] != sel {
			t.Errorf("Field selector %d: expected 0x%04X, got 0x%04X", i, sel, p.FieldSelectors()[i])
		}
	}

	rec, err := p.Record()
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if rec != ReferenceRecord() {
		t.Errorf("Record mismatch: %+v", rec)
	}
	latest, ok := d.Latest()
	if !ok || latest != ReferenceRecord() {
		t.Error("Latest should hold the decoded record")
	}

	c := d.Counters()
	if c.Messages != 1 || c.ChecksumErrors != 0 || c.HeaderErrors != 0 {
		t.Errorf("Unexpected counters %+v", c)
	}
}

func TestDecoder_ScenarioB_StaleChecksum(t *testing.T) {
	frame := referenceFrame(t)
	frame[ReferenceHeaderSize+20] ^= 0x04

	d := NewDecoder()
	packets, errs := feedAll(d, frame)

	if len(packets) != 0 {
		t.Fatalf("Expected no packets, got %d", len(packets))
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrChecksum) {
		t.Fatalf("Expected one checksum error, got %v", errs)
	}
	var cerr *ChecksumError
	if errors.As(errs[0], &cerr) && cerr.Calculated == cerr.Received {
		t.Errorf("Checksum error with equal values: %+v", cerr)
	}

	c := d.Counters()
	if c.ChecksumErrors != 1 || c.Messages != 0 {
		t.Errorf("Unexpected counters %+v", c)
	}
	if _, ok := d.Latest(); ok {
		t.Error("No record should be produced")
	}
}

func TestDecoder_ScenarioC_GarbageBeforeFrame(t *testing.T) {
	garbage := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99}
	d := NewDecoder()

	packets := d.Feed(append(garbage, referenceFrame(t)...))

	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(packets))
	}
	c := d.Counters()
	if c.HeaderErrors != 10 || c.Messages != 1 || c.ChecksumErrors != 0 {
		t.Errorf("Unexpected counters %+v", c)
	}
}

// ============================================================
// Stream Property Tests
// ============================================================

func TestDecoder_ByteGranularity(t *testing.T) {
	frame := referenceFrame(t)
	stream := append(append([]byte{0x01, 0x02}, frame...), frame...)

	whole := NewDecoder()
	wholePackets := whole.Feed(stream)

	single := NewDecoder()
	var singlePackets []*Packet
	for _, b := range stream {
		singlePackets = append(singlePackets, single.Feed([]byte{b})...)
	}

	chunked := NewDecoder()
	var chunkedPackets []*Packet
	for i := 0; i < len(stream); i += 7 {
		end := i + 7
		if end > len(stream) {
			end = len(stream)
		}
		chunkedPackets = append(chunkedPackets, chunked.Feed(stream[i:end])...)
	}

	if whole.Counters() != single.Counters() || whole.Counters() != chunked.Counters() {
		t.Errorf("Counters differ: whole %+v, single %+v, chunked %+v",
			whole.Counters(), single.Counters(), chunked.Counters())
	}
	if len(wholePackets) != 2 || len(singlePackets) != 2 || len(chunkedPackets) != 2 {
		t.Fatalf("Expected 2 packets each, got %d/%d/%d", len(wholePackets), len(singlePackets), len(chunkedPackets))
	}
	for i := range wholePackets {
		if !bytes.Equal(wholePackets[i].Raw(), singlePackets[i].Raw()) ||
			!bytes.Equal(wholePackets[i].Raw(), chunkedPackets[i].Raw()) {
			t.Errorf("Packet %d differs between feeding strategies", i)
		}
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	frame := referenceFrame(t)
	var stream []byte
	for i := 0; i < 5; i++ {
		stream = append(stream, frame...)
	}

	d := NewDecoder()
	packets := d.Feed(stream)
	if len(packets) != 5 || d.Counters().Messages != 5 {
		t.Errorf("Expected 5 packets, got %d (%+v)", len(packets), d.Counters())
	}
}

func TestDecoder_RecoversAfterChecksumError(t *testing.T) {
	bad := referenceFrame(t)
	bad[len(bad)-1] ^= 0xFF

	d := NewDecoder()
	packets := d.Feed(append(bad, referenceFrame(t)...))

	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet after a corrupted frame, got %d", len(packets))
	}
	c := d.Counters()
	if c.ChecksumErrors != 1 || c.Messages != 1 {
		t.Errorf("Unexpected counters %+v", c)
	}
}

func TestDecoder_RecoversAfterHeaderError(t *testing.T) {
	// A frame attempt with an unsupported selector is discarded without rescanning
	d := NewDecoder()
	packets := d.Feed(append([]byte{SyncByte, 0x01, 0x00, 0x01}, referenceFrame(t)...))

	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(packets))
	}
	if d.Counters().HeaderErrors != 1 {
		t.Errorf("Expected 1 header error, got %+v", d.Counters())
	}
}

func TestDecoder_LatestReplacedPerFrame(t *testing.T) {
	first := ReferenceRecord()
	second := ReferenceRecord()
	second.Timestamp = 200_000
	second.InsStatus = 0x0102

	d := NewDecoder()
	d.Feed(EncodeTelemetryFrame(first))
	d.Feed(EncodeTelemetryFrame(second))

	latest, ok := d.Latest()
	if !ok || latest != second {
		t.Errorf("Latest should be the second record, got %+v", latest)
	}
}

func TestDecoder_PacketsDoNotAliasBuffer(t *testing.T) {
	frame := referenceFrame(t)
	d := NewDecoder()
	first := d.Feed(frame)[0]
	saved := append([]byte(nil), first.Raw()...)

	other := EncodeTelemetryFrame(TelemetryRecord{Timestamp: 1})
	d.Feed(other)

	if !bytes.Equal(first.Raw(), saved) {
		t.Error("Packet bytes changed after decoding another frame")
	}
}

// ============================================================
// Validator and Statistics Tests
// ============================================================

func TestValidatePacket_Reference(t *testing.T) {
	p := NewDecoder().Feed(referenceFrame(t))[0]
	if errs := ValidatePacket(p); len(errs) != 0 {
		t.Errorf("Reference frame should validate, got %v", errs)
	}
}

func TestValidatePacket_Anomalies(t *testing.T) {
	tests := []struct {
		name     string
		packet   *Packet
		expected AnomalyType
	}{
		{
			name:     "reserved field",
			packet:   NewPacket(0x02, []uint16{0x0100}, nil, 0),
			expected: AnomalyReservedField,
		},
		{
			name:     "unknown group",
			packet:   NewPacket(0x40, []uint16{0x0001}, nil, 0),
			expected: AnomalyUnknownGroup,
		},
		{
			name:     "extension bit",
			packet:   NewPacket(0x80, []uint16{}, nil, 0),
			expected: AnomalyExtensionBit,
		},
		{
			name:     "payload length",
			packet:   NewPacket(0x01, []uint16{0x0001}, make([]byte, 4), 0),
			expected: AnomalyLengthMismatch,
		},
		{
			name:     "selector count",
			packet:   NewPacket(0x03, []uint16{0x0001}, nil, 0),
			expected: AnomalyLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidatePacket(tt.packet)
			found := false
			for _, e := range errs {
				if e.Type == tt.expected {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected anomaly %d, got %v", tt.expected, errs)
			}
		})
	}
}

func TestStatistics_Update(t *testing.T) {
	frame := referenceFrame(t)
	bad := append([]byte(nil), frame...)
	bad[ReferenceHeaderSize] ^= 0x01

	stream := append([]byte{0x00, 0x01}, frame...)
	stream = append(stream, bad...)
	stream = append(stream, SyncByte, 0x01, 0x00, 0x01)

	d := NewDecoder()
	s := NewStatistics()
	for _, b := range stream {
		packet, err := d.DecodeByte(b)
		if err != nil || packet != nil {
			var verrs []ValidationError
			if packet != nil {
				verrs = ValidatePacket(packet)
			}
			s.Update(packet, err, verrs)
		}
	}

	if s.TotalFrames != 3 {
		t.Errorf("Expected 3 frame attempts, got %d", s.TotalFrames)
	}
	if s.ValidFrames != 1 || s.ChecksumErrors != 1 || s.UnsupportedSizes != 1 {
		t.Errorf("Unexpected statistics %+v", s)
	}
	if s.BadSyncBytes != 2 || s.HeaderErrors != 3 {
		t.Errorf("Expected 2 bad sync bytes and 3 header errors, got %d/%d", s.BadSyncBytes, s.HeaderErrors)
	}
	if s.HeaderErrors != d.Counters().HeaderErrors {
		t.Errorf("Statistics and decoder disagree on header errors: %d vs %d", s.HeaderErrors, d.Counters().HeaderErrors)
	}
	if s.ErrorCount() != 2 {
		t.Errorf("Expected 2 errors, got %d", s.ErrorCount())
	}

	s.Reset()
	if s.TotalFrames != 0 || s.HeaderErrors != 0 {
		t.Error("Reset should clear counters")
	}
}
