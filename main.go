// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Vectorstat - VectorNav Binary Output Analyzer
//
// A CLI tool for decoding VectorNav binary output frames and measuring
// link quality between a sensor and its host.

package main

import (
	"os"

	"github.com/Thermoquad/vectorstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
