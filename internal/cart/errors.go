package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

// StockIssue identifies the cart line a stock error refers to so the register
// can correct it without losing the other lines.
type StockIssue struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Code        string    `json:"code,omitempty"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// OutOfStockError reports a product with no stock left.
func OutOfStockError(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, product.Name+" is out of stock").
		WithDetails(issueFor(product, requested))
}

// StockExceededError reports a quantity above the product's current stock.
func StockExceededError(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeStockExceeded, "not enough stock for "+product.Name).
		WithDetails(issueFor(product, requested))
}

// ProductMissingError reports a cart line whose product no longer exists.
func ProductMissingError(line Line) error {
	return pkgerrors.New(pkgerrors.CodeProductMissing, line.Name+" is no longer in the catalog").
		WithDetails(StockIssue{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Code:        line.Code,
			Requested:   line.Quantity,
			Available:   0,
		})
}

func issueFor(product *models.Product, requested int) StockIssue {
	return StockIssue{
		ProductID:   product.ID,
		ProductName: product.Name,
		Code:        product.Code,
		Requested:   requested,
		Available:   product.Stock,
	}
}
