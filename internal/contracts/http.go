package contracts

import "encoding/json"

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ProductResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Stock      int    `json:"stock"`
	Active     bool   `json:"active"`
	UpdatedAt  string `json:"updated_at"`
}

type CachedReadResponse struct {
	Key    string          `json:"key"`
	Source string          `json:"source"`
	Value  json.RawMessage `json:"value,omitempty"`
	Found  bool            `json:"found"`
}

type PutProductRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency,omitempty"`
	Stock      int    `json:"stock"`
	Active     bool   `json:"active"`
}

type InvalidateRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

type DeleteKeyResponse struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	Cache          string `json:"cache"`
	Broadcast      string `json:"broadcast"`
	ActiveConns    int    `json:"active_connections"`
	ProbeLatencyMS int64  `json:"probe_latency_ms"`
	LastCheckedAt  string `json:"last_checked_at"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	ServiceVersion string `json:"service_version"`
}
