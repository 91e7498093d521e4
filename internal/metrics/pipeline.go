// Package metrics define los contadores Prometheus del pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CertificatesGenerated cuenta certificados por resultado de
	// generación ("generated" | "failed" | "skipped").
	CertificatesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certhub_certificates_generated_total",
		Help: "Certificates processed by generation outcome.",
	}, []string{"outcome"})

	// EmailsSent cuenta envíos por canal ("certificate" | "update") y
	// resultado ("sent" | "failed" | "skipped").
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certhub_emails_total",
		Help: "Email sends by channel and outcome.",
	}, []string{"channel", "outcome"})

	// SendDuration observa la duración de un envío individual.
	SendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "certhub_email_send_seconds",
		Help:    "Duration of a single email send.",
		Buckets: prometheus.DefBuckets,
	})

	// PoolQueueDepth expone la profundidad actual de la cola del pool.
	PoolQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "certhub_pool_queue_depth",
		Help: "Pending tasks in the dispatch worker pool queue.",
	})

	// VerifyThrottled cuenta intentos de verificación denegados por el
	// rate limit.
	VerifyThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certhub_verify_throttled_total",
		Help: "Public verification attempts denied by the rate limit.",
	})

	// VerifyLookups cuenta lookups públicos por resultado
	// ("valid" | "not_found" | "not_valid").
	VerifyLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certhub_verify_lookups_total",
		Help: "Public verification lookups by outcome.",
	}, []string{"outcome"})
)
