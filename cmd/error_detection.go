// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
	metricsAddr   string
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze corrupted frames and link errors",
	Long: `Track frame errors, header anomalies and link statistics.

This command validates each frame and detects:
  - Checksum failures
  - Headers that resolve to an unsupported payload length
  - Reserved fields, unknown groups and the extension bit in verified frames
  - Statistics and trends (frame rate, error rate, success rate)

Errors are only reported after the first verified frame; bytes skipped while
acquiring sync are counted separately. By default, only errors are displayed.
Use --show-all to display valid frames too.

With --metrics-addr the same counters are exported for Prometheus at /metrics.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
	errorDetectionCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9108)")
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	if statsInterval <= 0 {
		return fmt.Errorf("--stats-interval must be positive, got %d", statsInterval)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	reg := newMetricsRegistry()
	metrics := newFrameMetrics(reg)
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	tracker := newSyncTracker(metrics)
	if useTUI {
		return runTUIMode(cmd.Context(), conn, connInfo, tracker)
	}
	return runTextMode(cmd.Context(), conn, connInfo, tracker)
}

// frameEvent is one decoder outcome reported after sync
type frameEvent struct {
	packet           *vectornav.Packet
	decodeErr        error
	validationErrors []vectornav.ValidationError
}

// syncTracker feeds the decoder and suppresses errors until the first verified frame
type syncTracker struct {
	decoder      *vectornav.Decoder
	metrics      *frameMetrics
	synchronized bool
	skipped      int
}

func newSyncTracker(metrics *frameMetrics) *syncTracker {
	return &syncTracker{
		decoder: vectornav.NewDecoder(),
		metrics: metrics,
	}
}

// process decodes chunk. onSync runs once with the number of bytes skipped before
// the first verified frame; emit receives every later outcome.
func (t *syncTracker) process(chunk []byte, onSync func(skipped int), emit func(frameEvent)) {
	if t.metrics != nil {
		t.metrics.BytesReceived.Add(float64(len(chunk)))
	}

	for _, b := range chunk {
		packet, decodeErr := t.decoder.DecodeByte(b)
		if decodeErr == nil && packet == nil {
			continue
		}

		var ev frameEvent
		if decodeErr != nil {
			ev.decodeErr = decodeErr
		} else {
			ev.packet = packet
			ev.validationErrors = vectornav.ValidatePacket(packet)
		}
		if t.metrics != nil {
			t.metrics.Observe(ev.packet, ev.decodeErr, ev.validationErrors)
		}

		if !t.synchronized {
			if ev.packet == nil {
				t.skipped++
				continue
			}
			t.synchronized = true
			onSync(t.skipped)
		}
		emit(ev)
	}
}

// isBadSync reports whether err is a single byte discarded while hunting for sync
func isBadSync(err error) bool {
	var herr *vectornav.HeaderError
	return errors.As(err, &herr) && herr.Reason == vectornav.HeaderBadSync
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> FRAME DISCARDED <<<\n\n")
}

// printValidationErrors prints validation errors for a verified frame
func printValidationErrors(packet *vectornav.Packet, errs []vectornav.ValidationError) {
	timestamp := packet.Timestamp().Format("15:04:05.000")

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s\n", timestamp, vectornav.FormatGroupSelector(packet.GroupSelector()))
	fmt.Printf("  Checksum: \033[1;32mOK\033[0m (0x%04X)\n", packet.Checksum())

	for i, err := range errs {
		switch err.Type {
		case vectornav.AnomalyReservedField:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)

		case vectornav.AnomalyUnknownGroup:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if sel, ok := err.Details["field_selector"].(uint16); ok {
				fmt.Printf("    field selector=0x%04X\n", sel)
			}

		case vectornav.AnomalyLengthMismatch:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}

	fmt.Printf("  Field selectors:")
	for _, sel := range packet.FieldSelectors() {
		fmt.Printf(" 0x%04X", sel)
	}
	fmt.Printf("\n  >>> FRAME FLAGGED <<<\n\n")
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(ctx context.Context, conn Connection, connInfo string, tracker *syncTracker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(connInfo, showAll)
	p := tea.NewProgram(m)

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	go func() {
		err := readStream(ctx, conn, func(chunk []byte) {
			tracker.process(chunk,
				func(skipped int) { p.Send(syncMsg{invalidBytes: skipped}) },
				func(ev frameEvent) { p.Send(frameMsg(ev)) },
			)
		})
		if err != nil {
			p.Send(connClosedMsg{err: err})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(ctx context.Context, conn Connection, connInfo string, tracker *syncTracker) error {
	fmt.Printf("Vectorstat - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := vectornav.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Reads happen on their own goroutine so the ticker fires on a silent link
	chunks := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		readErr <- readStream(ctx, conn, func(chunk []byte) {
			data := make([]byte, len(chunk))
			copy(data, chunk)
			select {
			case chunks <- data:
			case <-ctx.Done():
			}
		})
	}()

	onSync := func(skipped int) {
		if skipped > 0 {
			fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", skipped)
		} else {
			fmt.Printf("[SYNC] Synchronized\n\n")
		}
	}
	emit := func(ev frameEvent) {
		if ev.decodeErr != nil {
			stats.Update(nil, ev.decodeErr, nil)
			if !isBadSync(ev.decodeErr) {
				printDecodeError(ev.decodeErr)
			}
			return
		}

		stats.Update(ev.packet, nil, ev.validationErrors)
		if len(ev.validationErrors) > 0 {
			printValidationErrors(ev.packet, ev.validationErrors)
		} else if showAll {
			fmt.Print(vectornav.FormatPacket(ev.packet))
		}
	}

	for {
		select {
		case data := <-chunks:
			tracker.process(data, onSync, emit)

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case err := <-readErr:
			fmt.Println()
			fmt.Print(stats.String())
			if err != nil && isClosed(err) {
				logger.Info("connection closed", zap.Error(err))
				return nil
			}
			return err
		}
	}
}
