// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vectornav

import "math/bits"

// GroupIndices returns the indices of the groups selected by the group selector,
// in ascending order. Only bits 0-6 are significant.
func GroupIndices(selector byte) []int {
	groups := make([]int, 0, bits.OnesCount8(selector&0x7F))
	for i := 0; i < MaxGroups; i++ {
		if selector&(1<<i) != 0 {
			groups = append(groups, i)
		}
	}
	return groups
}

// HeaderLength returns the header size (sync, group selector and field selectors)
// for a group selector
func HeaderLength(selector byte) int {
	return 2 + FieldSelectorSize*bits.OnesCount8(selector&0x7F)
}

// FieldSelectors decodes the big-endian field selector words for the given groups.
// Returns nil if selectorBytes is too short.
func FieldSelectors(groups []int, selectorBytes []byte) []uint16 {
	if len(selectorBytes) < FieldSelectorSize*len(groups) {
		return nil
	}
	words := make([]uint16, len(groups))
	for i := range groups {
		words[i] = uint16(selectorBytes[2*i])<<8 | uint16(selectorBytes[2*i+1])
	}
	return words
}

// ResolvePayloadLength sums the field widths selected by the field selector bytes.
// selectorBytes holds two big-endian bytes per group, in the same order as groups.
//
// Reserved slots and groups without a width table row contribute zero. The caller
// decides whether the result is a supported configuration.
func ResolvePayloadLength(groups []int, selectorBytes []byte) (int, error) {
	if len(selectorBytes) < FieldSelectorSize*len(groups) {
		return 0, &LengthError{What: "field selector", Length: len(selectorBytes), Expected: FieldSelectorSize * len(groups)}
	}

	total := 0
	for i, group := range groups {
		if group < 0 || group >= len(GroupWidths) {
			continue
		}
		mask := uint16(selectorBytes[2*i])<<8 | uint16(selectorBytes[2*i+1])
		for mask != 0 {
			field := bits.TrailingZeros16(mask)
			total += GroupWidths[group][field]
			mask &^= 1 << field
		}
	}
	return total, nil
}
