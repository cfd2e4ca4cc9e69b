package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products for browsing and reporting.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_categories_name"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Supplier is the vendor a product is restocked from.
type Supplier struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_suppliers_name"`
	ContactName *string   `gorm:"column:contact_name"`
	Email       *string   `gorm:"column:email"`
	Phone       *string   `gorm:"column:phone"`
	Address     *string   `gorm:"column:address"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Product is a sellable catalog entry. Stock is only decremented by settlement.
type Product struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name           string     `gorm:"column:name;not null"`
	Description    *string    `gorm:"column:description"`
	Code           string     `gorm:"column:code;not null;uniqueIndex:idx_products_code"`
	Barcode        *string    `gorm:"column:barcode;uniqueIndex:idx_products_barcode"`
	CostPriceCents int64      `gorm:"column:cost_price_cents;not null;default:0"`
	SalePriceCents int64      `gorm:"column:sale_price_cents;not null;default:0"`
	Stock          int        `gorm:"column:stock;not null;default:0"`
	MinStock       int        `gorm:"column:min_stock;not null;default:0"`
	CategoryID     *uuid.UUID `gorm:"column:category_id;type:uuid;index:idx_products_category_id"`
	SupplierID     *uuid.UUID `gorm:"column:supplier_id;type:uuid;index:idx_products_supplier_id"`
	ExpiryDate     *time.Time `gorm:"column:expiry_date"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// IsLowStock reports whether stock is at or below the product minimum or the
// store-wide threshold, whichever is higher.
func (p Product) IsLowStock(threshold int) bool {
	limit := p.MinStock
	if threshold > limit {
		limit = threshold
	}
	return p.Stock <= limit
}
