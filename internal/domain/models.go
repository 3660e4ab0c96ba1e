package domain

import "time"

// Product is the storefront catalog entity served through the read path.
// The authoritative copy lives in the relational store; cached copies are
// serialized snapshots of this struct.
type Product struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	Stock      int       `json:"stock"`
	Active     bool      `json:"active"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProductPage is one page of a tenant's catalog listing.
type ProductPage struct {
	TenantID string    `json:"tenant_id"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int64     `json:"total"`
	Items    []Product `json:"items"`
}
