package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/money"
)

type LineDTO struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Quantity    int       `json:"quantity"`
	PriceAtSale string    `json:"price_at_sale"`
	Total       string    `json:"total"`
}

type CartDTO struct {
	Lines     []LineDTO `json:"lines"`
	ItemCount int       `json:"item_count"`
	Total     string    `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCartDTO(c *Cart) CartDTO {
	lines := make([]LineDTO, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, LineDTO{
			ProductID:   line.ProductID,
			Name:        line.Name,
			Code:        line.Code,
			Quantity:    line.Quantity,
			PriceAtSale: money.Format(line.PriceAtSaleCents),
			Total:       money.Format(line.TotalCents()),
		})
	}
	return CartDTO{
		Lines:     lines,
		ItemCount: c.ItemCount(),
		Total:     money.Format(c.Total()),
		UpdatedAt: c.UpdatedAt,
	}
}
