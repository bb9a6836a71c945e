// Package httpserver assembles the HTTP surface: the chi router, its
// middleware stack and the mounted Connect services.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/idempotency"
)

// Service is a Connect handler mounted under its path prefix.
type Service struct {
	Path    string
	Handler http.Handler
}

// Options configures the router.
type Options struct {
	Services []Service
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Idempotency wraps the RPC routes. Nil disables replay protection.
	Idempotency func(http.Handler) http.Handler
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
}

// New returns the root handler, wrapped in h2c so Connect clients can speak
// HTTP/2 without TLS.
func New(opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Group(func(r chi.Router) {
		if opts.Idempotency != nil {
			r.Use(opts.Idempotency)
		}
		for _, svc := range opts.Services {
			r.Handle(svc.Path+"*", svc.Handler)
		}
	})

	return h2c.NewHandler(router, &http2.Server{})
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			idempotency.Header,
		},
		ExposedHeaders: []string{
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			idempotency.ReplayHeader,
		},
		MaxAge: 300,
	}
}
