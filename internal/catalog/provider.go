package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

// Provider is the read-only product view used by carts and checkout. Lookups
// always hit the store so callers observe the latest committed stock.
type Provider struct {
	repo *Repository
}

func NewProvider(repo *Repository) *Provider {
	return &Provider{repo: repo}
}

// GetProduct returns a CodeNotFound error when the product does not exist.
func (p *Provider) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := p.repo.FindByID(ctx, id)
	return product, translateLookupErr(err, "product not found")
}

// GetProducts loads every product in ids with a single read, keyed by id.
// Unknown ids are absent from the result.
func (p *Provider) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	rows, err := p.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// ListProducts returns the whole catalog.
func (p *Provider) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := p.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (p *Provider) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	product, err := p.repo.FindByCode(ctx, code)
	return product, translateLookupErr(err, "no product with that code")
}

func (p *Provider) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	product, err := p.repo.FindByBarcode(ctx, barcode)
	return product, translateLookupErr(err, "no product with that barcode")
}

func translateLookupErr(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
