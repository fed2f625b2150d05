// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames      uint64
	ValidFrames      uint64
	HeaderErrors     uint64
	BadSyncBytes     uint64
	UnsupportedSizes uint64
	ChecksumErrors   uint64
	DecodeErrors     uint64
	MalformedFrames  uint64
	ReservedFields   uint64
	UnknownGroups    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a packet or a decode error and its validation errors
func (s *Statistics) Update(packet *Packet, decodeErr error, validationErrors []ValidationError) {
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		var herr *HeaderError
		switch {
		case errors.As(decodeErr, &herr):
			// A bad sync byte is not a frame attempt
			s.HeaderErrors++
			if herr.Reason == HeaderBadSync {
				s.BadSyncBytes++
				return
			}
			s.UnsupportedSizes++
		case errors.Is(decodeErr, ErrChecksum):
			s.ChecksumErrors++
		default:
			s.DecodeErrors++
		}
		s.TotalFrames++
		return
	}

	if packet == nil {
		return
	}
	s.TotalFrames++

	if len(validationErrors) == 0 {
		s.ValidFrames++
		return
	}

	s.MalformedFrames++
	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyReservedField:
			s.ReservedFields++
		case AnomalyUnknownGroup:
			s.UnknownGroups++
		}
	}
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.ErrorCount()) / elapsed
	}
}

// ErrorCount returns the number of rejected or malformed frame attempts
func (s *Statistics) ErrorCount() uint64 {
	return s.UnsupportedSizes + s.ChecksumErrors + s.DecodeErrors + s.MalformedFrames
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, sizePercent, malformedPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
		sizePercent = float64(s.UnsupportedSizes) * 100.0 / float64(s.TotalFrames)
		malformedPercent = float64(s.MalformedFrames) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.UnsupportedSizes > 0 {
		result += fmt.Sprintf("Bad Payload Len: %8d (%.1f%%)\n", s.UnsupportedSizes, sizePercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d (%.1f%%)\n", s.MalformedFrames, malformedPercent)
		if s.ReservedFields > 0 {
			result += fmt.Sprintf("  Reserved Fields:  %5d\n", s.ReservedFields)
		}
		if s.UnknownGroups > 0 {
			result += fmt.Sprintf("  Unknown Groups:   %5d\n", s.UnknownGroups)
		}
	}
	result += fmt.Sprintf("Header Errors:   %8d (%d bad sync bytes)\n", s.HeaderErrors, s.BadSyncBytes)

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
