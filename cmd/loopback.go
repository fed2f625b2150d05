// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loopbackCmd = &cobra.Command{
	Use:   "loopback <tx-port> <rx-port>",
	Short: "Send frames on one serial port and decode them on another",
	Long: `Run a sender and a receiver concurrently over two serial ports.

Sample frames are written to tx-port every --interval while rx-port is decoded.
After every received frame the decoder counters are printed. Connect the two
ports with a null-modem cable (or a virtual pair) to check a link end to end.

Both ports use --baud and --read-timeout.`,
	Args: cobra.ExactArgs(2),
	RunE: runLoopback,
}

func init() {
	rootCmd.AddCommand(loopbackCmd)
	addSenderFlags(loopbackCmd)
}

func runLoopback(cmd *cobra.Command, args []string) error {
	if sendInterval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", sendInterval)
	}
	txPort, rxPort := args[0], args[1]

	tx, err := OpenSerialConnection(txPort, baudRate, readTimeout)
	if err != nil {
		return err
	}
	defer tx.Close()

	rx, err := OpenSerialConnection(rxPort, baudRate, readTimeout)
	if err != nil {
		return err
	}
	defer rx.Close()

	fmt.Printf("Vectorstat - Loopback\n")
	fmt.Printf("TX: %s  RX: %s @ %d baud\n", txPort, rxPort, baudRate)
	fmt.Printf("Interval: %s\n", sendInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	decoder := vectornav.NewDecoder()
	errs := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := sendLoop(ctx, tx, sendInterval, sendCount, nil)
		if err != nil {
			errs <- fmt.Errorf("sender: %w", err)
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		err := readStream(ctx, rx, func(chunk []byte) {
			for range decoder.Feed(chunk) {
				fmt.Println(vectornav.FormatCounters(decoder.Counters()))
			}
		})
		if err != nil {
			errs <- fmt.Errorf("receiver: %w", err)
			cancel()
		}
	}()

	wg.Wait()
	close(errs)

	c := decoder.Counters()
	logger.Info("loopback finished",
		zap.Uint64("messages", c.Messages),
		zap.Uint64("header_errors", c.HeaderErrors),
		zap.Uint64("checksum_errors", c.ChecksumErrors),
	)
	return <-errs
}
