// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"errors"
	"fmt"
)

var (
	// ErrHeader matches every *HeaderError
	ErrHeader = errors.New("header error")
	// ErrChecksum matches every *ChecksumError
	ErrChecksum = errors.New("checksum mismatch")
	// ErrLength matches every *LengthError
	ErrLength = errors.New("length mismatch")
)

// HeaderReason identifies why a frame header was rejected
type HeaderReason int

// Header rejection reasons
const (
	HeaderBadSync HeaderReason = iota
	HeaderUnsupportedLength
)

// HeaderError is returned when a byte is not a sync byte or when the resolved
// payload length is not the configured one.
type HeaderError struct {
	Reason        HeaderReason
	Byte          byte // offending byte for HeaderBadSync
	GroupSelector byte
	PayloadLength int // resolved length for HeaderUnsupportedLength
	Expected      int
}

// Error implements the error interface
func (e *HeaderError) Error() string {
	if e.Reason == HeaderBadSync {
		return fmt.Sprintf("header error: expected sync 0x%02X, got 0x%02X", SyncByte, e.Byte)
	}
	return fmt.Sprintf("header error: group selector 0x%02X resolves to %d payload bytes (supported %d)",
		e.GroupSelector, e.PayloadLength, e.Expected)
}

// Is reports whether target is ErrHeader
func (e *HeaderError) Is(target error) bool {
	return target == ErrHeader
}

// ChecksumError is returned when a complete frame fails checksum verification
type ChecksumError struct {
	Calculated uint16
	Received   uint16
}

// Error implements the error interface
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%04X, got 0x%04X", e.Calculated, e.Received)
}

// Is reports whether target is ErrChecksum
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}

// LengthError is returned when a byte range has the wrong size for its layout
type LengthError struct {
	What     string
	Length   int
	Expected int
}

// Error implements the error interface
func (e *LengthError) Error() string {
	return fmt.Sprintf("%s length mismatch: got %d bytes, expected %d", e.What, e.Length, e.Expected)
}

// Is reports whether target is ErrLength
func (e *LengthError) Is(target error) bool {
	return target == ErrLength
}
