// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("port unplugged")
}

func TestSendLoop_Count(t *testing.T) {
	var buf bytes.Buffer
	var seen []uint64

	sent, err := sendLoop(context.Background(), &buf, time.Millisecond, 3, func(n uint64, frame []byte) {
		seen = append(seen, n)
		assert.Len(t, frame, vectornav.ReferenceFrameSize)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sent)
	assert.Equal(t, []uint64{1, 2, 3}, seen)

	d := vectornav.NewDecoder()
	packets := d.Feed(buf.Bytes())
	require.Len(t, packets, 3)
	assert.Equal(t, vectornav.Counters{Messages: 3}, d.Counters())

	base := vectornav.ReferenceRecord().Timestamp
	for i, p := range packets {
		rec, err := p.Record()
		require.NoError(t, err)
		assert.Equal(t, base+uint64(i)*uint64(time.Millisecond), rec.Timestamp)
	}
}

func TestSendLoop_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	sent, err := sendLoop(ctx, &buf, time.Hour, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sent, "the first frame goes out immediately")
	assert.Equal(t, vectornav.ReferenceFrameSize, buf.Len())
}

func TestSendLoop_WriteError(t *testing.T) {
	sent, err := sendLoop(context.Background(), failingWriter{}, time.Millisecond, 5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port unplugged")
	assert.Equal(t, uint64(0), sent)
}

func TestSampleFrame(t *testing.T) {
	frame := sampleFrame(0, time.Second)
	assert.Equal(t, vectornav.EncodeTelemetryFrame(vectornav.ReferenceRecord()), frame)
	assert.NotEqual(t, frame, sampleFrame(1, time.Second))
}
