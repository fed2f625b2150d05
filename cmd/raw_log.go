// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rawLogShowSync bool
	rawLogHexDump  bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded frames in human-readable format",
	Long: `Continuously decode and display VectorNav binary frames as they arrive.

Each verified frame is printed with its header, checksum and decoded telemetry.
Checksum failures and unsupported headers are reported inline. Bytes skipped
while hunting for the sync byte are counted but only printed with --show-sync.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogShowSync, "show-sync", false, "Print every byte discarded while hunting for sync")
	rawLogCmd.Flags().BoolVar(&rawLogHexDump, "hex", false, "Print a hex dump of each verified frame")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Vectorstat - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := vectornav.NewDecoder()

	err = readStream(cmd.Context(), conn, func(chunk []byte) {
		for _, b := range chunk {
			packet, err := decoder.DecodeByte(b)
			if err != nil {
				printRawLogError(err)
				continue
			}
			if packet != nil {
				fmt.Print(vectornav.FormatPacket(packet))
				if rawLogHexDump {
					fmt.Print(vectornav.FormatHexDump(packet.Raw()))
				}
			}
		}
	})

	fmt.Printf("\n%s\n", vectornav.FormatCounters(decoder.Counters()))
	if err != nil && isClosed(err) {
		logger.Info("connection closed", zap.Error(err))
		return nil
	}
	return err
}

func printRawLogError(err error) {
	var herr *vectornav.HeaderError
	if errors.As(err, &herr) && herr.Reason == vectornav.HeaderBadSync && !rawLogShowSync {
		return
	}
	fmt.Printf("[ERROR] %v\n", err)
}
