package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viralforge/mesh/services/core-platform/M20-storefront-data-access/internal/domain"
)

// CatalogRepository is the gorm-backed authoritative store boundary. It is
// deliberately thin: the data-access layer only needs loader queries and
// the write-through upsert.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, tenantID, productID string) (domain.Product, error) {
	var row productModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(row), nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, tenantID string, page, pageSize int) (domain.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&productModel{}).
		Where("tenant_id = ? AND active", tenantID).
		Count(&total).Error; err != nil {
		return domain.ProductPage{}, err
	}
	var rows []productModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active", tenantID).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return domain.ProductPage{}, err
	}
	items := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomainProduct(row))
	}
	return domain.ProductPage{
		TenantID: tenantID,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Items:    items,
	}, nil
}

func (r *CatalogRepository) UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	row := productModel{
		ProductID:  product.ID,
		TenantID:   product.TenantID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Currency:   product.Currency,
		Stock:      product.Stock,
		Active:     product.Active,
		UpdatedAt:  time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price_cents", "currency", "stock", "active", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(row), nil
}

func toDomainProduct(row productModel) domain.Product {
	return domain.Product{
		ID:         row.ProductID,
		TenantID:   row.TenantID,
		Name:       row.Name,
		PriceCents: row.PriceCents,
		Currency:   row.Currency,
		Stock:      row.Stock,
		Active:     row.Active,
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}
