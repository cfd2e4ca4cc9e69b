package checkout

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/internal/catalog"
)

// StockConflictError reports a delta whose conditional update matched no row
// because stock moved below the sold quantity after validation.
type StockConflictError struct {
	Delta StockDelta
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock for product %s changed during settlement", e.Delta.ProductID)
}

// CatalogStockWriter applies deltas through the catalog repository.
type CatalogStockWriter struct {
	repo *catalog.Repository
}

func NewCatalogStockWriter(repo *catalog.Repository) (*CatalogStockWriter, error) {
	if repo == nil {
		return nil, errors.New("catalog repository required")
	}
	return &CatalogStockWriter{repo: repo}, nil
}

func (w *CatalogStockWriter) ApplyStockDeltas(ctx context.Context, tx *gorm.DB, deltas []StockDelta) error {
	repo := w.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	for _, delta := range deltas {
		if err := repo.DecrementStock(ctx, delta.ProductID, delta.Quantity); err != nil {
			if errors.Is(err, catalog.ErrStockChanged) {
				return &StockConflictError{Delta: delta}
			}
			return fmt.Errorf("decrement stock for %s: %w", delta.ProductID, err)
		}
	}
	return nil
}
