// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"net/http"
	"time"

	"github.com/Thermoquad/vectorstat/pkg/vectornav"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Frame outcome labels
const (
	resultOK            = "ok"
	resultBadSync       = "bad_sync"
	resultUnsupported   = "unsupported_length"
	resultChecksumError = "checksum_error"
	resultDecodeError   = "decode_error"
)

// frameMetrics exports decoder outcomes to Prometheus
type frameMetrics struct {
	BytesReceived prometheus.Counter
	Frames        *prometheus.CounterVec // labels: result
	Anomalies     *prometheus.CounterVec // labels: type
	LastFrame     prometheus.Gauge
}

// newMetricsRegistry creates a registry with the Go and process collectors
func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newFrameMetrics registers and returns the frame metrics
func newFrameMetrics(reg prometheus.Registerer) *frameMetrics {
	m := &frameMetrics{
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vectorstat_bytes_received_total",
			Help: "Total bytes fed to the frame decoder.",
		}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectorstat_frames_total",
			Help: "Frame decode outcomes.",
		}, []string{"result"}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectorstat_frame_anomalies_total",
			Help: "Structural anomalies in verified frames.",
		}, []string{"type"}),
		LastFrame: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vectorstat_last_frame_timestamp_seconds",
			Help: "Unix time of the last verified frame.",
		}),
	}
	reg.MustRegister(m.BytesReceived, m.Frames, m.Anomalies, m.LastFrame)
	return m
}

// Observe records one decoder outcome
func (m *frameMetrics) Observe(packet *vectornav.Packet, decodeErr error, validationErrors []vectornav.ValidationError) {
	if decodeErr != nil {
		var herr *vectornav.HeaderError
		switch {
		case errors.As(decodeErr, &herr) && herr.Reason == vectornav.HeaderBadSync:
			m.Frames.WithLabelValues(resultBadSync).Inc()
		case errors.As(decodeErr, &herr):
			m.Frames.WithLabelValues(resultUnsupported).Inc()
		case errors.Is(decodeErr, vectornav.ErrChecksum):
			m.Frames.WithLabelValues(resultChecksumError).Inc()
		default:
			m.Frames.WithLabelValues(resultDecodeError).Inc()
		}
		return
	}
	if packet == nil {
		return
	}

	m.Frames.WithLabelValues(resultOK).Inc()
	m.LastFrame.Set(float64(packet.Timestamp().UnixNano()) / float64(time.Second))
	for _, v := range validationErrors {
		m.Anomalies.WithLabelValues(anomalyLabel(v.Type)).Inc()
	}
}

func anomalyLabel(t vectornav.AnomalyType) string {
	switch t {
	case vectornav.AnomalyReservedField:
		return "reserved_field"
	case vectornav.AnomalyUnknownGroup:
		return "unknown_group"
	case vectornav.AnomalyExtensionBit:
		return "extension_bit"
	case vectornav.AnomalyLengthMismatch:
		return "length_mismatch"
	default:
		return "other"
	}
}

// serveMetrics starts the /metrics endpoint in the background
func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
