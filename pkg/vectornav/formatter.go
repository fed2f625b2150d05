// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import (
	"fmt"
	"strings"
)

// FormatPacket formats a packet for human-readable display
func FormatPacket(p *Packet) string {
	timestamp := p.Timestamp().Format("15:04:05.000")

	result := fmt.Sprintf("[%s] %s len=%d fields=%d crc=0x%04X\n",
		timestamp, FormatGroupSelector(p.GroupSelector()), p.Length(), FieldCount(p.FieldSelectors()), p.Checksum())

	for i, group := range p.Groups() {
		if i < len(p.FieldSelectors()) {
			result += fmt.Sprintf("  %-9s fields=0x%04X\n", FormatGroup(group)+":", p.FieldSelectors()[i])
		}
	}

	rec, err := p.Record()
	if err != nil {
		return result + FormatHexDump(p.Payload())
	}
	return result + FormatRecord(rec)
}

// FormatGroup returns the name of a group index
func FormatGroup(group int) string {
	if group < 0 || group >= len(groupNames) {
		return "UNKNOWN"
	}
	return groupNames[group]
}

// FormatGroupSelector formats a group selector as its hex value and selected group names
func FormatGroupSelector(selector byte) string {
	groups := GroupIndices(selector)
	names := make([]string, len(groups))
	for i, group := range groups {
		names[i] = FormatGroup(group)
	}
	return fmt.Sprintf("0x%02X [%s]", selector, strings.Join(names, " "))
}

// FormatRecord formats a telemetry record, one line per field
func FormatRecord(r TelemetryRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Timestamp:      %d ns\n", r.Timestamp)
	fmt.Fprintf(&b, "  Yaw/Pitch/Roll: %s deg\n", formatVec3(r.YawPitchRoll))
	fmt.Fprintf(&b, "  Angular Rate:   %s rad/s\n", formatVec3(r.AngularRate))
	fmt.Fprintf(&b, "  Position:       %.7f, %.7f, %.3f\n", r.Position[0], r.Position[1], r.Position[2])
	fmt.Fprintf(&b, "  Velocity:       %s m/s\n", formatVec3(r.Velocity))
	fmt.Fprintf(&b, "  Accel:          %s m/s^2\n", formatVec3(r.Accel))
	fmt.Fprintf(&b, "  Time of Week:   %d ns\n", r.TimeOfWeek)
	fmt.Fprintf(&b, "  GNSS:           sats=%d fix=%s\n", r.NumSats, FormatFix(r.Fix))
	fmt.Fprintf(&b, "  Pos Uncert:     %s m\n", formatVec3(r.PositionUncertainty))
	fmt.Fprintf(&b, "  Vel Uncert:     %.3f m/s\n", r.VelocityUncertainty)
	fmt.Fprintf(&b, "  Linear Accel:   %s m/s^2\n", formatVec3(r.LinearAccel))
	fmt.Fprintf(&b, "  Att Uncert:     %s deg\n", formatVec3(r.AttitudeUncertainty))
	fmt.Fprintf(&b, "  INS Status:     0x%04X\n", r.InsStatus)
	fmt.Fprintf(&b, "  Velocity Body:  %s m/s\n", formatVec3(r.VelocityBody))
	return b.String()
}

// FormatFix returns the name of a GNSS fix type
func FormatFix(fix uint8) string {
	switch fix {
	case 0:
		return "NO_FIX"
	case 1:
		return "TIME_ONLY"
	case 2:
		return "2D"
	case 3:
		return "3D"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", fix)
	}
}

// FormatCounters formats decoder counters on one line
func FormatCounters(c Counters) string {
	return fmt.Sprintf("messages=%d header_errors=%d checksum_errors=%d", c.Messages, c.HeaderErrors, c.ChecksumErrors)
}

// FormatHexDump formats bytes as a hex dump, 16 bytes per line
func FormatHexDump(data []byte) string {
	result := "  Payload: "
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}

func formatVec3(v [3]float32) string {
	return fmt.Sprintf("%.3f, %.3f, %.3f", v[0], v[1], v[2])
}
