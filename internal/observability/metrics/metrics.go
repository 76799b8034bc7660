package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	EnvelopesRelayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "envelopes_relayed_total",
			Help: "Total number of envelopes broadcast to rooms.",
		},
		[]string{"service", "kind"},
	)

	JoinRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_join_rejections_total",
			Help: "Total number of joins rejected because the room was full.",
		},
		[]string{"service"},
	)

	RoomsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Rooms currently holding at least one participant.",
		},
		[]string{"service"},
	)

	WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Open websocket subscriptions.",
		},
		[]string{"service"},
	)

	BlobBytesStored = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blob_bytes_stored",
			Help:    "Sizes of stored blobs.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"service"},
	)
)

func MustRegister(serviceName string) {
	labels := prometheus.Labels{"service": serviceName}
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(labels)
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(labels).(*prometheus.HistogramVec)
	EnvelopesRelayedTotal = EnvelopesRelayedTotal.MustCurryWith(labels)
	JoinRejectionsTotal = JoinRejectionsTotal.MustCurryWith(labels)
	RoomsActive = RoomsActive.MustCurryWith(labels)
	WSConnectionsActive = WSConnectionsActive.MustCurryWith(labels)
	BlobBytesStored = BlobBytesStored.MustCurryWith(labels).(*prometheus.HistogramVec)

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		EnvelopesRelayedTotal,
		JoinRejectionsTotal,
		RoomsActive,
		WSConnectionsActive,
		BlobBytesStored,
	)
}
