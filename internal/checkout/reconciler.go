package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

// StockDelta is the stock change one cart line causes.
type StockDelta struct {
	ProductID   uuid.UUID
	ProductName string
	Code        string
	OldStock    int
	NewStock    int
	Quantity    int
	MinStock    int
}

// Snapshot is the outcome of a successful validation: the deltas to apply and
// the product rows they were computed from.
type Snapshot struct {
	Deltas   []StockDelta
	Products map[uuid.UUID]*models.Product
}

// Validate re-reads every cart line's product and checks the quantity against
// current stock. It stops at the first failing line.
func Validate(ctx context.Context, c *cart.Cart, catalog CatalogProvider) (*Snapshot, error) {
	snapshot := &Snapshot{
		Deltas:   make([]StockDelta, 0, len(c.Lines)),
		Products: make(map[uuid.UUID]*models.Product, len(c.Lines)),
	}
	prefetched, err := prefetch(ctx, c, catalog)
	if err != nil {
		return nil, err
	}
	for _, line := range c.Lines {
		var product *models.Product
		if prefetched != nil {
			p, ok := prefetched[line.ProductID]
			if !ok {
				return nil, cart.ProductMissingError(line)
			}
			product = p
		} else {
			product, err = catalog.GetProduct(ctx, line.ProductID)
			if err != nil {
				if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
					return nil, cart.ProductMissingError(line)
				}
				return nil, lookupErr(err)
			}
		}
		if line.Quantity > product.Stock {
			return nil, cart.StockExceededError(product, line.Quantity)
		}
		snapshot.Products[product.ID] = product
		snapshot.Deltas = append(snapshot.Deltas, StockDelta{
			ProductID:   product.ID,
			ProductName: product.Name,
			Code:        product.Code,
			OldStock:    product.Stock,
			NewStock:    product.Stock - line.Quantity,
			Quantity:    line.Quantity,
			MinStock:    product.MinStock,
		})
	}
	return snapshot, nil
}

// prefetch returns nil when catalog cannot batch, in which case lines are
// loaded one by one.
func prefetch(ctx context.Context, c *cart.Cart, catalog CatalogProvider) (map[uuid.UUID]*models.Product, error) {
	batch, ok := catalog.(BatchCatalogProvider)
	if !ok || len(c.Lines) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := batch.GetProducts(ctx, ids)
	if err != nil {
		return nil, lookupErr(err)
	}
	if products == nil {
		products = map[uuid.UUID]*models.Product{}
	}
	return products, nil
}

func lookupErr(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
