// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

// CalculateChecksum computes the 16-bit device checksum for the given data.
// The sync byte is not part of the checksummed range.
//
// This is the byte-wise form the device firmware uses and must stay bit-for-bit
// identical to it.
func CalculateChecksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc>>8 | crc<<8
		crc ^= uint16(b)
		crc ^= (crc & 0xFF) >> 4
		crc ^= crc << 12
		crc ^= (crc & 0x00FF) << 5
	}
	return crc
}

// VerifyChecksum reports whether received matches the checksum of data
func VerifyChecksum(data []byte, received uint16) bool {
	return CalculateChecksum(data) == received
}

// AppendChecksum appends the big-endian checksum of frame[1:] to frame.
// frame must start with the sync byte.
func AppendChecksum(frame []byte) []byte {
	var crc uint16
	if len(frame) > 1 {
		crc = CalculateChecksum(frame[1:])
	}
	return append(frame, byte(crc>>8), byte(crc&0xFF))
}
