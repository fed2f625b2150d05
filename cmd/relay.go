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
	relayURL      string
	relayUsername string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Forward decoded telemetry as CBOR over WebSocket",
	Long: `Decode frames from the input connection and forward each verified record to
a WebSocket endpoint as a binary CBOR message.

Each message is a map with integer keys: 0 sequence number, 1 receive time in
unix milliseconds, 2 frame checksum, 3 the telemetry record. Frames that fail
the checksum are dropped and never forwarded.

The input is selected with --port or --url as for the other commands. If
--relay-username is set the password is read from VECTORSTAT_PASSWORD or
prompted.`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringVar(&relayURL, "relay-url", "", "WebSocket URL to forward records to (ws:// or wss://)")
	relayCmd.Flags().StringVar(&relayUsername, "relay-username", "", "Username for HTTP Basic auth on the relay endpoint")
	_ = relayCmd.MarkFlagRequired("relay-url")
}

func runRelay(cmd *cobra.Command, args []string) error {
	in, inInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer in.Close()

	password := ""
	if relayUsername != "" {
		if password, err = GetPassword(); err != nil {
			return err
		}
	}
	out, err := OpenWebSocketConnection(relayURL, relayUsername, password, wsNoSSLVerify)
	if err != nil {
		return err
	}
	defer out.Close()

	fmt.Printf("Vectorstat - Relay\n")
	fmt.Printf("Input: %s\n", inInfo)
	fmt.Printf("Output: WebSocket: %s\n", relayURL)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	r := newRecordRelay(out)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	start := time.Now()
	err = readStream(ctx, in, func(chunk []byte) {
		if r.forward(chunk) != nil {
			cancel()
		}
	})

	c := r.decoder.Counters()
	fmt.Printf("\nForwarded %d records in %s (%s)\n",
		r.forwarded, time.Since(start).Round(time.Second), vectornav.FormatCounters(c))

	if r.writeErr != nil {
		return r.writeErr
	}
	if err != nil && isClosed(err) {
		logger.Info("input closed", zap.Error(err))
		return nil
	}
	return err
}

// recordRelay decodes a byte stream and writes each verified record to w as CBOR
type recordRelay struct {
	decoder   *vectornav.Decoder
	w         io.Writer
	forwarded uint64
	writeErr  error
}

func newRecordRelay(w io.Writer) *recordRelay {
	return &recordRelay{
		decoder: vectornav.NewDecoder(),
		w:       w,
	}
}

// forward decodes chunk and writes one message per verified frame.
// Returns the first write error; later calls return it again.
func (r *recordRelay) forward(chunk []byte) error {
	if r.writeErr != nil {
		return r.writeErr
	}

	for _, packet := range r.decoder.Feed(chunk) {
		msg, err := vectornav.MarshalRecordCBOR(r.forwarded, packet)
		if err != nil {
			logger.Warn("dropping frame", zap.Error(err))
			continue
		}
		if _, err := r.w.Write(msg); err != nil {
			r.writeErr = fmt.Errorf("relay write: %w", err)
			return r.writeErr
		}
		r.forwarded++
	}
	return nil
}
