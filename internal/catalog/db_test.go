package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/migrate"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.AutoMigrateSQLite(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, stock, minStock int, priceCents int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:           fmt.Sprintf("Product %s", uuid.NewString()[:8]),
		Code:           fmt.Sprintf("SKU-%s", uuid.NewString()),
		CostPriceCents: priceCents / 2,
		SalePriceCents: priceCents,
		Stock:          stock,
		MinStock:       minStock,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
