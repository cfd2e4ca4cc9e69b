package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

type batchCountingCatalog struct {
	inner       *catalog.Provider
	singleReads int
	batchReads  int
}

func (c *batchCountingCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	c.singleReads++
	return c.inner.GetProduct(ctx, id)
}

func (c *batchCountingCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	c.batchReads++
	return c.inner.GetProducts(ctx, ids)
}

func TestValidateLoadsCartInOneRead(t *testing.T) {
	h := newHarness(t)
	first := h.product(t, "A1", 5, 0, 100)
	second := h.product(t, "B1", 3, 1, 250)
	current := cartWith(t, first, 2)
	require.NoError(t, current.SetQuantity(second, 3))

	reads := &batchCountingCatalog{inner: catalog.NewProvider(catalog.NewRepository(h.conn))}
	snapshot, err := Validate(context.Background(), current, reads)
	require.NoError(t, err)

	assert.Equal(t, 1, reads.batchReads)
	assert.Zero(t, reads.singleReads)
	require.Len(t, snapshot.Deltas, 2)
	assert.Equal(t, first.ID, snapshot.Deltas[0].ProductID)
	assert.Equal(t, 3, snapshot.Deltas[0].NewStock)
	assert.Equal(t, second.ID, snapshot.Deltas[1].ProductID)
	assert.Equal(t, 0, snapshot.Deltas[1].NewStock)
	assert.Len(t, snapshot.Products, 2)
}

func TestValidateBatchReportsMissingAndShortLines(t *testing.T) {
	h := newHarness(t)
	kept := h.product(t, "K1", 1, 0, 100)
	gone := h.product(t, "G1", 4, 0, 100)
	reads := &batchCountingCatalog{inner: catalog.NewProvider(catalog.NewRepository(h.conn))}

	current := cartWith(t, kept, 1)
	require.NoError(t, current.SetQuantity(gone, 2))
	require.NoError(t, h.conn.Delete(&models.Product{}, "id = ?", gone.ID).Error)

	_, err := Validate(context.Background(), current, reads)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductMissing))

	require.NoError(t, h.conn.Model(&models.Product{}).Where("id = ?", kept.ID).Update("stock", 0).Error)
	_, err = Validate(context.Background(), cartWith(t, kept, 1), reads)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStockExceeded))
	assert.Zero(t, reads.singleReads)
}
