package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

// Sale is the immutable record appended once per successful settlement.
type Sale struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ReceiptNumber string           `gorm:"column:receipt_number;not null;uniqueIndex:idx_sales_receipt_number"`
	EmployeeID    uuid.UUID        `gorm:"column:employee_id;type:uuid;not null;index:idx_sales_employee_id"`
	CustomerID    *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	SubtotalCents int64            `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64            `gorm:"column:tax_cents;not null;default:0"`
	DiscountCents int64            `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int64            `gorm:"column:total_cents;not null"`
	Status        enums.SaleStatus `gorm:"column:status;type:text;not null"`
	SaleTime      time.Time        `gorm:"column:sale_time;not null;index:idx_sales_sale_time"`
	Items         []SaleItem       `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments      []SalePayment    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// SaleItem snapshots price and cost at the time of sale.
type SaleItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index:idx_sale_items_sale_id"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_sale_items_product_id"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	UnitCostCents  int64     `gorm:"column:unit_cost_cents;not null"`
	DiscountCents  int64     `gorm:"column:discount_cents;not null;default:0"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// SalePayment is one tender allocation against a sale.
type SalePayment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SaleID      uuid.UUID           `gorm:"column:sale_id;type:uuid;not null;index:idx_sale_payments_sale_id"`
	Method      enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Reference   *string             `gorm:"column:reference"`
}

func (p *SalePayment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
