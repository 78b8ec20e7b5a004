package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehome_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animehome_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30, 120},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	RelayStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animehome_relay_streams_active",
			Help: "Chat streams currently being relayed",
		},
	)

	RelayStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehome_relay_streams_total",
			Help: "Finished chat streams by delivery and persistence outcome",
		},
		[]string{"delivery", "persistence"},
	)

	RelayOpenFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animehome_relay_open_failures_total",
			Help: "Chat requests rejected because the upstream stream could not be started",
		},
	)

	RelayFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animehome_relay_frames_total",
			Help: "Delta frames relayed to clients",
		},
	)

	RelayClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animehome_relay_client_disconnects_total",
			Help: "Streams whose client went away before the upstream finished",
		},
	)

	RelayStreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animehome_relay_stream_duration_seconds",
			Help:    "Time from upstream open to terminal persistence",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// Image relay metrics
	ImageProxyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehome_image_proxy_requests_total",
			Help: "Image fetch relay requests by outcome",
		},
		[]string{"outcome"},
	)

	AvatarUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehome_avatar_uploads_total",
			Help: "Avatar uploads by outcome",
		},
		[]string{"outcome"},
	)

	// Infrastructure metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animehome_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	TranscriptErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehome_transcript_errors_total",
			Help: "Failed transcript store operations",
		},
		[]string{"op"},
	)
)
