package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerConfig agrupa lo que necesita el router además del Handler.
type ServerConfig struct {
	Addr               string
	CORSAllowedOrigins []string
	BearerSecret       string
}

// NewServer arma el router completo y lo envuelve en un *http.Server
// listo para ListenAndServe.
func NewServer(cfg ServerConfig, h *Handler) *http.Server {
	r := chi.NewRouter()

	r.Use(
		WithRequestID(),
		WithLogging(),
		WithCORS(cfg.CORSAllowedOrigins),
		WithHTTPMetrics(func(req *http.Request) string {
			rctx := chi.RouteContext(req.Context())
			if rctx == nil {
				return ""
			}
			return rctx.RoutePattern()
		}),
	)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", RegisterMetrics(prometheus.DefaultRegisterer))

	h.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(WithBearerAuth(cfg.BearerSecret))
		h.RegisterProtected(r)
	})

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Los downloads zip pueden ser grandes.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  time.Minute,
	}
}
