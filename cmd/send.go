// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sendInterval time.Duration
	sendCount    int
	sendQuiet    bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit sample telemetry frames",
	Long: `Transmit a sample reference configuration frame at a fixed interval.

The sample record carries fixed attitude, position and GNSS values. Its startup
timestamp advances by the interval on every frame so receivers see distinct
frames. Useful for exercising a receiver or a serial link without a sensor.

Supports both serial and WebSocket connections.`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addSenderFlags(sendCmd)
	sendCmd.Flags().BoolVarP(&sendQuiet, "quiet", "q", false, "Do not print a line per frame")
}

// addSenderFlags registers the flags shared by send and loopback
func addSenderFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&sendInterval, "interval", 500*time.Millisecond, "Delay between frames")
	cmd.Flags().IntVar(&sendCount, "count", 0, "Frames to send (0 sends until interrupted)")
}

func runSend(cmd *cobra.Command, args []string) error {
	if sendInterval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", sendInterval)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Vectorstat - Send\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Interval: %s\n", sendInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	sent, err := sendLoop(cmd.Context(), conn, sendInterval, sendCount, func(n uint64, frame []byte) {
		if !sendQuiet {
			fmt.Printf("[%s] sent frame %d (%d bytes, crc=0x%04X)\n",
				time.Now().Format("15:04:05.000"), n, len(frame),
				uint16(frame[len(frame)-2])<<8|uint16(frame[len(frame)-1]))
		}
	})
	fmt.Printf("\nSent %d frames\n", sent)
	return err
}

// sampleFrame returns the i-th sample frame. The timestamp advances by step per frame.
func sampleFrame(i uint64, step time.Duration) []byte {
	rec := vectornav.ReferenceRecord()
	rec.Timestamp += i * uint64(step)
	return vectornav.EncodeTelemetryFrame(rec)
}

// sendLoop writes sample frames to w, the first immediately and then every interval,
// until ctx is done or count frames are written. A count of 0 means no limit.
// Returns the number of frames written.
func sendLoop(ctx context.Context, w io.Writer, interval time.Duration, count int, onSent func(n uint64, frame []byte)) (uint64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sent uint64
	for {
		frame := sampleFrame(sent, interval)
		if _, err := w.Write(frame); err != nil {
			return sent, fmt.Errorf("write frame %d: %w", sent, err)
		}
		sent++
		logger.Debug("frame sent", zap.Uint64("seq", sent), zap.Int("bytes", len(frame)))
		if onSent != nil {
			onSent(sent, frame)
		}

		if count > 0 && sent >= uint64(count) {
			return sent, nil
		}

		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
}
