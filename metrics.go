package packet

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	framesUnpacked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packet",
			Name:      "frames_unpacked_total",
			Help:      "Frames decoded from received datagrams.",
		},
		[]string{"kind"},
	)
	framesPacked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packet",
			Name:      "frames_packed_total",
			Help:      "Frames encoded for transmission.",
		},
		[]string{"kind"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packet",
			Name:      "frames_dropped_total",
			Help:      "Decoded frames dropped by the rate limiter.",
		},
		[]string{"kind"},
	)
	frameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "packet",
			Name:      "frame_errors_total",
			Help:      "Frames rejected while packing or unpacking.",
		},
		[]string{"kind", "reason"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "packet",
			Name:      "frame_bytes",
			Help:      "Frame size in bytes, header included.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"kind", "direction"},
	)
)

// RegisterMetrics registers the frame collectors with the default registry.
// It is safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesUnpacked, framesPacked, framesDropped, frameErrors, frameBytes)
	})
}

// MetricsHandler registers the collectors and returns a scrape handler for
// the default registry.
func MetricsHandler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func recordUnpack(kind Kind, size int) {
	RegisterMetrics()
	framesUnpacked.WithLabelValues(kind.String()).Inc()
	frameBytes.WithLabelValues(kind.String(), "in").Observe(float64(size))
}

func recordPack(kind Kind, size int) {
	RegisterMetrics()
	framesPacked.WithLabelValues(kind.String()).Inc()
	frameBytes.WithLabelValues(kind.String(), "out").Observe(float64(size))
}

func recordDropped(kind Kind) {
	RegisterMetrics()
	framesDropped.WithLabelValues(kind.String()).Inc()
}

func recordFrameError(kind Kind, err error) {
	RegisterMetrics()
	frameErrors.WithLabelValues(kind.String(), errorReason(err)).Inc()
}

// errorReason maps an error to a bounded label value.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrInconsistentLength):
		return "inconsistent_length"
	case errors.Is(err, ErrFrameOversized):
		return "oversized"
	case errors.Is(err, ErrFrameTruncated):
		return "truncated"
	case errors.Is(err, ErrShortFrame):
		return "short_frame"
	case errors.Is(err, ErrMessageTooLarge):
		return "message_too_large"
	case errors.Is(err, ErrUnregisteredMessage):
		return "unregistered"
	case errors.Is(err, ErrUnsupportedProtocol):
		return "unsupported_protocol"
	default:
		return "other"
	}
}
