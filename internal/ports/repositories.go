package ports

import (
	"context"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// CatalogRepository is the authoritative-store boundary for catalog data.
// The data-access layer only ever calls it from cache-aside loaders and
// the write-through path; queries beyond this surface belong to other
// services.
type CatalogRepository interface {
	GetProduct(ctx context.Context, tenantID, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, tenantID string, page, pageSize int) (domain.ProductPage, error)
	UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error)
}
