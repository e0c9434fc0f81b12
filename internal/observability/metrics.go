package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stylerec",
		Name:      "style_images_processed_total",
		Help:      "Total number of style images run through the pipeline",
	})

	SegmentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stylerec",
		Name:      "segments_created_total",
		Help:      "Total number of segments created, by category",
	}, []string{"category"})

	SegmentsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stylerec",
		Name:      "segments_skipped_total",
		Help:      "Total number of detected categories skipped, by reason",
	}, []string{"reason"})

	SearchesPerformed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stylerec",
		Name:      "similarity_searches_total",
		Help:      "Total number of similarity searches performed",
	})

	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stylerec",
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of pipeline stages (detect, segment, embed, search)",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"stage"})

	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stylerec",
		Name:      "notifications_sent_total",
		Help:      "Total number of user notifications published",
	})

	ProductsEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stylerec",
		Name:      "products_embedded_total",
		Help:      "Total number of product embeddings generated by backfill",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stylerec",
		Name:      "queue_depth",
		Help:      "Number of pending pipeline tasks in the work queue",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stylerec",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stylerec",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
