// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/spf13/cobra"
)

// packet_test exit codes
const (
	exitPacketReceived  = 0
	exitPacketTimeout   = 1
	exitConnectionError = 2
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid VectorNav frame",
	Long: `Wait for a valid VectorNav frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any frame
that passes the checksum. Bytes before sync and frames with bad checksums are
counted and ignored.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(exitConnectionError)
	}
	defer conn.Close()

	fmt.Printf("Vectorstat - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid VectorNav frame...\n\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(packetTestTimeout)*time.Second)
	defer cancel()

	packet, counters, err := waitForPacket(ctx, conn)
	switch {
	case packet != nil:
		if counters.HeaderErrors > 0 || counters.ChecksumErrors > 0 {
			fmt.Printf("(skipped %d bytes before sync, %d bad checksums)\n",
				counters.HeaderErrors, counters.ChecksumErrors)
		}
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Groups: %s\n", vectornav.FormatGroupSelector(packet.GroupSelector()))
		fmt.Printf("  Length: %d bytes\n", packet.Length())
		fmt.Printf("  Checksum: 0x%04X\n", packet.Checksum())
		os.Exit(exitPacketReceived)

	case err != nil:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(exitConnectionError)

	default:
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", packetTestTimeout)
		os.Exit(exitPacketTimeout)
	}

	return nil
}

// waitForPacket reads conn until the first verified frame, ctx expiry or a closed
// connection. Returns a nil packet and nil error on expiry.
func waitForPacket(ctx context.Context, conn Connection) (*vectornav.Packet, vectornav.Counters, error) {
	decoder := vectornav.NewDecoder()
	found, cancel := context.WithCancel(ctx)
	defer cancel()

	var packet *vectornav.Packet
	err := readStream(found, conn, func(chunk []byte) {
		if packet != nil {
			return
		}
		if packets := decoder.Feed(chunk); len(packets) > 0 {
			packet = packets[0]
			cancel()
		}
	})
	if packet != nil {
		return packet, decoder.Counters(), nil
	}
	return nil, decoder.Counters(), err
}
