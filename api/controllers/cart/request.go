package cart

import (
	"strings"

	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/stockpos-backend/internal/cart"
)

// AddItemRequest identifies a scanned product by exactly one of its keys.
type AddItemRequest struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Code      string     `json:"code,omitempty" validate:"max=64"`
	Barcode   string     `json:"barcode,omitempty" validate:"max=64"`
}

// SetQuantityRequest replaces a line's quantity; zero removes it.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

func toAddItemInput(payload AddItemRequest) cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID: payload.ProductID,
		Code:      strings.TrimSpace(payload.Code),
		Barcode:   strings.TrimSpace(payload.Barcode),
	}
}
