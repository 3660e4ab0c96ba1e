package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers the storefront data-access routes and middleware
// stack. Health probes and the websocket endpoint sit outside the
// versioned API group; the websocket handler authenticates itself.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Get("/realtime", handler.realtimeHandler)

	r.Route("/storefront/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Get("/products", handler.listProducts)
		r.Get("/products/{product_id}", handler.getProduct)
		r.Put("/products/{product_id}", handler.putProduct)

		r.Post("/cache/invalidate", handler.invalidateResource)
		r.Delete("/cache/keys/{key}", handler.deleteCacheKey)

		r.Get("/metrics", handler.metrics)
	})

	return r
}
