package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

func TestDecrementStockIsConditional(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := mustCreateProduct(t, conn, 5, 0, 1000)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock)

	err = repo.DecrementStock(ctx, product.ID, 4)
	require.True(t, errors.Is(err, ErrStockChanged))

	reloaded, err = repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock, "failed decrement must not touch stock")
}

func TestListLowStockHonoursMinimumAndThreshold(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	belowMin := mustCreateProduct(t, conn, 4, 5, 100)
	belowThreshold := mustCreateProduct(t, conn, 2, 0, 100)
	mustCreateProduct(t, conn, 50, 5, 100)

	rows, err := repo.ListLowStock(context.Background(), 3)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, row := range rows {
		ids[row.ID.String()] = true
	}
	assert.Len(t, rows, 2)
	assert.True(t, ids[belowMin.ID.String()])
	assert.True(t, ids[belowThreshold.ID.String()])
}

func TestListProductsPaginatesNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := mustCreateProduct(t, conn, 1, 0, 100)
		require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", p.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	first, next, err := repo.ListProducts(ctx, productListQuery{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	second, next, err := repo.ListProducts(ctx, productListQuery{Pagination: pagination.Params{Limit: 2, Cursor: next}})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, next)
	assert.NotEqual(t, first[1].ID, second[0].ID)
}

func TestListProductsSearchesNameCodeAndBarcode(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	barcode := "0123456789012"
	product := &models.Product{Name: "Sparkling Water", Code: "BEV-001", Barcode: &barcode, SalePriceCents: 199, Stock: 3}
	require.NoError(t, conn.Create(product).Error)
	mustCreateProduct(t, conn, 1, 0, 100)

	for _, q := range []string{"sparkling", "bev-0", barcode} {
		rows, _, err := repo.ListProducts(context.Background(), productListQuery{Query: q})
		require.NoError(t, err)
		require.Len(t, rows, 1, "query %q", q)
		assert.Equal(t, product.ID, rows[0].ID)
	}
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	category, err := repo.CreateCategory(ctx, &models.Category{Name: "Drinks"})
	require.NoError(t, err)
	product := mustCreateProduct(t, conn, 1, 0, 100)
	require.NoError(t, conn.Model(product).Update("category_id", category.ID).Error)

	removed, err := repo.DeleteCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID)
}
