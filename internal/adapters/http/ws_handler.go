package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/adapters/realtime"
)

// Origin checks are delegated to the edge proxy; tokens are still
// verified here before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// realtimeHandler upgrades an authenticated request to a websocket and
// hands the connection to the broadcast hub. Browsers cannot set an
// Authorization header on websocket dials, so a token query parameter is
// accepted as a fallback.
func (h *Handler) realtimeHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		raw = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}

	claims, err := h.verifier.ParseAndValidate(raw)
	if err != nil {
		logHTTPOperationError(r.Context(), "realtime_auth", http.StatusUnauthorized, "UNAUTHORIZED", "token rejected", err)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error to the client.
		logHTTPOperationError(r.Context(), "realtime_upgrade", http.StatusBadRequest, "UPGRADE_FAILED", "websocket upgrade failed", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, claims, rate.Limit(h.wsMessageRate), h.wsMessageBurst)
	h.hub.Register(client)

	httpLogger().InfoContext(r.Context(), "realtime connection established",
		"operation", "realtime_connect",
		"outcome", "success",
		"request_id", requestIDFromContext(r.Context()),
		"tenant_id", claims.TenantID,
		"connection_id", client.ID(),
	)

	go client.WritePump()
	go client.ReadPump()
}
