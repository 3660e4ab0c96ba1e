package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/realtime"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/application"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/contracts"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/ports"
)

// Handler is the HTTP adapter entrypoint for storefront data-access
// use-cases. Only the application layer and the token verifier are
// visible from here.
type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
	hub      *realtime.Hub

	wsMessageRate  float64
	wsMessageBurst int
}

type Options struct {
	// Messages per second a single websocket client may send, and the
	// burst allowance on top of that rate.
	WSMessageRate  float64
	WSMessageBurst int
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier, hub *realtime.Hub, opts Options) *Handler {
	if opts.WSMessageRate <= 0 {
		opts.WSMessageRate = 10
	}
	if opts.WSMessageBurst <= 0 {
		opts.WSMessageBurst = 20
	}
	return &Handler{
		service:        service,
		verifier:       verifier,
		hub:            hub,
		wsMessageRate:  opts.WSMessageRate,
		wsMessageBurst: opts.WSMessageBurst,
	}
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		claims, err := h.verifier.ParseAndValidate(raw)
		if err != nil {
			logHTTPOperationError(r.Context(), "token_validation", http.StatusUnauthorized, "UNAUTHORIZED", "token rejected", err)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		ctx := contextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) actorFromRequest(r *http.Request) (application.Actor, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return application.Actor{}, false
	}
	return application.Actor{
		Claims:    claims,
		RequestID: requestIDFromContext(r.Context()),
	}, true
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	item, err := h.service.GetProduct(r.Context(), actor, chi.URLParam(r, "product_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.CachedReadResponse{
		Key:    item.Key,
		Source: item.Source,
		Value:  json.RawMessage(item.Value),
		Found:  item.Found,
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	page := parseIntDefault(r.URL.Query().Get("page"), 1)
	item, err := h.service.ListProducts(r.Context(), actor, page)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.CachedReadResponse{
		Key:    item.Key,
		Source: item.Source,
		Value:  json.RawMessage(item.Value),
		Found:  item.Found,
	})
}

func (h *Handler) putProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	var req contracts.PutProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), actor, application.ProductInput{
		ID:         chi.URLParam(r, "product_id"),
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
		Stock:      req.Stock,
		Active:     req.Active,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.ProductResponse{
		ID:         product.ID,
		TenantID:   product.TenantID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Currency:   product.Currency,
		Stock:      product.Stock,
		Active:     product.Active,
		UpdatedAt:  product.UpdatedAt.Format(timeLayout),
	})
}

func (h *Handler) invalidateResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	var req contracts.InvalidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	err := h.service.InvalidateResource(r.Context(), actor, domain.ResourceType(req.ResourceType), req.ResourceID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeMessage(w, http.StatusOK, "Invalidation applied")
}

func (h *Handler) deleteCacheKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.service.DeleteCacheKey(r.Context(), actor, key); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.DeleteKeyResponse{Key: key, Deleted: true})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	counters, err := h.service.GetMetrics(r.Context(), actor)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, counters)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.GetHealth(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "health snapshot unavailable")
		return
	}

	statusCode := http.StatusOK
	if snapshot.Overall == domain.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]any{
		"status": snapshot.Overall,
		"data": contracts.HealthResponse{
			Status:         snapshot.Overall,
			Cache:          snapshot.CacheStatus,
			Broadcast:      snapshot.BroadcastStatus,
			ActiveConns:    snapshot.ActiveConnections,
			ProbeLatencyMS: snapshot.ProbeLatencyMS,
			LastCheckedAt:  snapshot.LastCheckedAt.Format(timeLayout),
			UptimeSeconds:  h.service.Uptime(),
			ServiceVersion: h.service.Version(),
		},
	})
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func parseIntDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
