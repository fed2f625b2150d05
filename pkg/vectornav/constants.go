// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package vectornav provides a Go implementation of the VectorNav binary output protocol.
//
// A frame is a sync byte, a group selector, one big-endian field selector per selected
// group, a payload whose length is computed from the selectors, and a big-endian
// checksum. This package provides frame scanning, payload length resolution, checksum
// calculation, and encode/decode of the telemetry record for the reference output
// configuration.
package vectornav

// Protocol framing
const (
	SyncByte = 0xFA

	ChecksumSize      = 2
	FieldSelectorSize = 2
	MaxGroups         = 7 // bits 0-6 of the group selector
	FieldsPerGroup    = 16
)

// Reference output configuration (groups 0, 3, 4 and 5)
const (
	ReferenceGroupSelector = 0x39

	ReferenceFieldCommon   = 0x01E9 // group 0
	ReferenceFieldGNSS     = 0x061A // group 3
	ReferenceFieldAttitude = 0x0140 // group 4
	ReferenceFieldINS      = 0x0009 // group 5

	ReferenceHeaderSize  = 10
	ReferencePayloadSize = 144
	ReferenceFrameSize   = ReferenceHeaderSize + ReferencePayloadSize + ChecksumSize
)

// ReferenceFieldSelectors lists the field selectors of the reference configuration in
// ascending group order.
var ReferenceFieldSelectors = []uint16{
	ReferenceFieldCommon,
	ReferenceFieldGNSS,
	ReferenceFieldAttitude,
	ReferenceFieldINS,
}

// GroupWidths holds the byte width of every field slot, indexed by group and field.
// A zero entry is a reserved slot.
var GroupWidths = [6][FieldsPerGroup]int{
	{8, 8, 8, 12, 16, 12, 24, 12, 12, 24, 20, 28, 2, 4, 8, 0},   // Common
	{8, 8, 8, 2, 8, 8, 8, 4, 0, 0, 0, 0, 0, 0, 0, 0},            // Time
	{2, 12, 12, 12, 4, 4, 16, 12, 12, 12, 12, 2, 40, 0, 0, 0},   // IMU
	{8, 8, 2, 1, 1, 24, 24, 12, 12, 12, 4, 4, 32, 0, 0, 0},      // GNSS
	{2, 12, 16, 36, 12, 12, 12, 12, 12, 12, 28, 24, 0, 0, 0, 0}, // Attitude
	{2, 24, 24, 12, 12, 12, 12, 12, 12, 4, 4, 68, 64, 0, 0, 0},  // INS
}

// Group names, indexed by group selector bit
var groupNames = [MaxGroups]string{
	"COMMON",
	"TIME",
	"IMU",
	"GNSS",
	"ATTITUDE",
	"INS",
	"GNSS2",
}

// State is the frame scanner state
type State int

// Decoder states
const (
	StateAwaitingSync State = iota
	StateAwaitingGroupSelector
	StateAwaitingFieldSelectors
	StateAwaitingPayloadAndChecksum
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateAwaitingSync:
		return "AWAITING_SYNC"
	case StateAwaitingGroupSelector:
		return "AWAITING_GROUP_SELECTOR"
	case StateAwaitingFieldSelectors:
		return "AWAITING_FIELD_SELECTORS"
	case StateAwaitingPayloadAndChecksum:
		return "AWAITING_PAYLOAD_AND_CHECKSUM"
	default:
		return "UNKNOWN"
	}
}
