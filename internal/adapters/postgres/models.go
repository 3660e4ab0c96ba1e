package postgres

import "time"

type productModel struct {
	ProductID  string    `gorm:"column:product_id;primaryKey"`
	TenantID   string    `gorm:"column:tenant_id;primaryKey"`
	Name       string    `gorm:"column:name"`
	PriceCents int64     `gorm:"column:price_cents"`
	Currency   string    `gorm:"column:currency"`
	Stock      int       `gorm:"column:stock"`
	Active     bool      `gorm:"column:active"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "storefront_products" }
