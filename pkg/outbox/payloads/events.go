package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

// SaleCompletedEvent is emitted once per settled sale.
type SaleCompletedEvent struct {
	SaleID        uuid.UUID           `json:"sale_id"`
	ReceiptNumber string              `json:"receipt_number"`
	EmployeeID    uuid.UUID           `json:"employee_id"`
	TotalCents    int64               `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	SaleTime      time.Time           `json:"sale_time"`
	Lines         []SaleLine          `json:"lines"`
}

// SaleLine is the stock movement caused by one sale item.
type SaleLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	NewStock  int       `json:"new_stock"`
}

// LowStockEvent is emitted when settlement leaves a product at or below its minimum.
type LowStockEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
	SaleID    uuid.UUID `json:"sale_id"`
}
