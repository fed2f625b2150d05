// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

var (
	discoveryTimeout int
	discoveryBauds   []int
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Find serial ports carrying VectorNav binary output",
	Long: `Probe every serial port on the host for verified VectorNav frames.

Each port is opened at each candidate baud rate in turn and read until a frame
passes the checksum or --timeout expires. Ports that cannot be opened are
reported and skipped.

Examples:
  # Probe all ports at the default rates
  vectorstat discovery

  # Probe a single rate with a longer wait
  vectorstat discovery --bauds 115200 --timeout 5

Exit codes:
  0 - At least one port carries VectorNav frames
  1 - No port carries VectorNav frames
  2 - Ports could not be listed`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 2, "Seconds to wait for a frame per port and baud rate")
	discoveryCmd.Flags().IntSliceVar(&discoveryBauds, "bauds", []int{921600, 115200, 230400, 460800}, "Baud rates to try, in order")
}

// discoveryResult is one port that produced a verified frame
type discoveryResult struct {
	port     string
	baud     int
	packet   *vectornav.Packet
	counters vectornav.Counters
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list serial ports: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Vectorstat - Port Discovery\n")
	fmt.Printf("Ports: %s\n", strings.Join(ports, ", "))
	fmt.Printf("Timeout: %d seconds per attempt\n\n", discoveryTimeout)

	var found []discoveryResult
	for _, port := range ports {
		res, ok := probePort(cmd.Context(), port, discoveryBauds, time.Duration(discoveryTimeout)*time.Second)
		if cmd.Context().Err() != nil {
			break
		}
		if !ok {
			fmt.Printf("%s: no frames\n", port)
			continue
		}
		found = append(found, res)
		fmt.Printf("%s @ %d baud: %s, %d byte payload (skipped %d bytes)\n",
			res.port, res.baud, vectornav.FormatGroupSelector(res.packet.GroupSelector()),
			res.packet.Length(), res.counters.HeaderErrors)
	}

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Ports with VectorNav output: %d\n", len(found))
	if len(found) == 0 {
		fmt.Printf("No frames seen. Check the sensor's output configuration and baud rate.\n")
		os.Exit(1)
	}
	return nil
}

// probePort tries each baud rate on port until one yields a verified frame
func probePort(ctx context.Context, port string, bauds []int, timeout time.Duration) (discoveryResult, bool) {
	for _, baud := range bauds {
		conn, err := OpenSerialConnection(port, baud, readTimeout)
		if err != nil {
			logger.Debug("skipping port", zap.String("port", port), zap.Error(err))
			return discoveryResult{}, false
		}

		attempt, cancel := context.WithTimeout(ctx, timeout)
		packet, counters, err := waitForPacket(attempt, conn)
		cancel()
		_ = conn.Close()

		if err != nil {
			logger.Debug("probe failed", zap.String("port", port), zap.Int("baud", baud), zap.Error(err))
		}
		if packet != nil {
			return discoveryResult{port: port, baud: baud, packet: packet, counters: counters}, true
		}
		if ctx.Err() != nil {
			break
		}
	}
	return discoveryResult{}, false
}
