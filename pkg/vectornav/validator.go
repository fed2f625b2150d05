// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import "fmt"

// AnomalyType represents different types of structural frame anomalies
type AnomalyType int

const (
	AnomalyReservedField AnomalyType = iota
	AnomalyUnknownGroup
	AnomalyExtensionBit
	AnomalyLengthMismatch
)

// ValidationError represents a structural validation failure.
// Field values are never range checked.
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks the header structure of a packet.
// Returns a slice of validation errors (empty if the packet is well formed).
func ValidatePacket(p *Packet) []ValidationError {
	errors := []ValidationError{}

	if p.groupSelector&0x80 != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyExtensionBit,
			Message: fmt.Sprintf("Group selector 0x%02X has bit 7 set", p.groupSelector),
			Details: map[string]interface{}{"group_selector": p.groupSelector},
		})
	}

	if len(p.fieldSelectors) != len(p.groups) {
		return append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%d field selectors for %d groups", len(p.fieldSelectors), len(p.groups)),
			Details: map[string]interface{}{"selectors": len(p.fieldSelectors), "groups": len(p.groups)},
		})
	}

	for i, group := range p.groups {
		sel := p.fieldSelectors[i]
		if group >= len(GroupWidths) {
			errors = append(errors, ValidationError{
				Type:    AnomalyUnknownGroup,
				Message: fmt.Sprintf("Group %d (%s) has no field width table", group, FormatGroup(group)),
				Details: map[string]interface{}{"group": group, "field_selector": sel},
			})
			continue
		}
		for field := 0; field < FieldsPerGroup; field++ {
			if sel&(1<<field) != 0 && GroupWidths[group][field] == 0 {
				errors = append(errors, ValidationError{
					Type:    AnomalyReservedField,
					Message: fmt.Sprintf("Group %d (%s) selects reserved field %d", group, FormatGroup(group), field),
					Details: map[string]interface{}{"group": group, "field": field},
				})
			}
		}
	}

	selectorBytes := make([]byte, 0, FieldSelectorSize*len(p.fieldSelectors))
	for _, sel := range p.fieldSelectors {
		selectorBytes = append(selectorBytes, byte(sel>>8), byte(sel))
	}
	if expected, err := ResolvePayloadLength(p.groups, selectorBytes); err == nil && expected != len(p.payload) {
		errors = append(errors, ValidationError{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("Payload is %d bytes, selectors resolve to %d", len(p.payload), expected),
			Details: map[string]interface{}{"length": len(p.payload), "expected": expected},
		})
	}

	return errors
}
