package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/internal/receipts"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
)

// CatalogProvider must reflect the latest committed stock at call time and
// return a CodeNotFound error for unknown products.
type CatalogProvider interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// BatchCatalogProvider is implemented by catalogs that can load a whole cart
// in one read. Validate uses it when available.
type BatchCatalogProvider interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// SalesStore appends sales inside the settlement transaction.
type SalesStore interface {
	AppendSale(ctx context.Context, tx *gorm.DB, sale *models.Sale) error
}

// StockWriter applies stock deltas inside the same transaction as the sale.
type StockWriter interface {
	ApplyStockDeltas(ctx context.Context, tx *gorm.DB, deltas []StockDelta) error
}

// NotificationSink receives post-commit notifications such as SaleCompleted.
type NotificationSink interface {
	Publish(ctx context.Context, eventName string, payload any) error
}

// ReceiptRenderer is called best-effort after commit.
type ReceiptRenderer interface {
	Render(ctx context.Context, sale *models.Sale) (*receipts.Receipt, error)
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
