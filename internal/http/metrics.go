package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
)

// RegisterMetrics inicializa las métricas HTTP y retorna el handler
// para /metrics. Idempotente.
func RegisterMetrics(registry prometheus.Registerer) http.Handler {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		registry.MustRegister(httpRequestsTotal, httpRequestDuration)
	})
	return promhttp.Handler()
}

// WithHTTPMetrics instrumenta cada request. El label path usa el
// pattern de ruta (chi lo resuelve post-routing via RoutePattern), no
// el path crudo, para no explotar la cardinalidad con IDs.
func WithHTTPMetrics(pattern func(r *http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpRequestsTotal == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			p := r.URL.Path
			if pattern != nil {
				if rp := pattern(r); rp != "" {
					p = rp
				}
			}
			httpRequestsTotal.WithLabelValues(r.Method, p, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, p).Observe(time.Since(start).Seconds())
		})
	}
}
