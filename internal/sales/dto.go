package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/money"
)

type SaleItemDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	UnitCost    string    `json:"unit_cost"`
	Discount    string    `json:"discount"`
	Total       string    `json:"total"`
}

type PaymentDTO struct {
	Method    string  `json:"method"`
	Amount    string  `json:"amount"`
	Reference *string `json:"reference,omitempty"`
}

// SaleDTO is the sale payload returned to clients. Amounts are decimal strings.
type SaleDTO struct {
	ID            uuid.UUID     `json:"id"`
	ReceiptNumber string        `json:"receipt_number"`
	EmployeeID    uuid.UUID     `json:"employee_id"`
	CustomerID    *uuid.UUID    `json:"customer_id,omitempty"`
	Items         []SaleItemDTO `json:"items"`
	Payments      []PaymentDTO  `json:"payments"`
	Subtotal      string        `json:"subtotal"`
	Tax           string        `json:"tax"`
	Discount      string        `json:"discount"`
	Total         string        `json:"total"`
	Status        string        `json:"status"`
	SaleTime      time.Time     `json:"sale_time"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewSaleDTO maps a persisted sale.
func NewSaleDTO(s *models.Sale) SaleDTO {
	items := make([]SaleItemDTO, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SaleItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   money.Format(item.UnitPriceCents),
			UnitCost:    money.Format(item.UnitCostCents),
			Discount:    money.Format(item.DiscountCents),
			Total:       money.Format(item.TotalCents),
		})
	}
	payments := make([]PaymentDTO, 0, len(s.Payments))
	for _, p := range s.Payments {
		payments = append(payments, PaymentDTO{
			Method:    p.Method.String(),
			Amount:    money.Format(p.AmountCents),
			Reference: p.Reference,
		})
	}
	return SaleDTO{
		ID:            s.ID,
		ReceiptNumber: s.ReceiptNumber,
		EmployeeID:    s.EmployeeID,
		CustomerID:    s.CustomerID,
		Items:         items,
		Payments:      payments,
		Subtotal:      money.Format(s.SubtotalCents),
		Tax:           money.Format(s.TaxCents),
		Discount:      money.Format(s.DiscountCents),
		Total:         money.Format(s.TotalCents),
		Status:        s.Status.String(),
		SaleTime:      s.SaleTime,
		CreatedAt:     s.CreatedAt,
	}
}

// SaleListResult is one page of sales.
type SaleListResult struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
