package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	"github.com/angelmondragon/stockpos-backend/internal/receipts"
	"github.com/angelmondragon/stockpos-backend/internal/sales"
	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/migrate"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox"
)

type harness struct {
	conn     *gorm.DB
	catalog  *countingCatalog
	sink     *Bus
	deps     Dependencies
	employee uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.AutoMigrateSQLite(context.Background(), conn))

	catalogRepo := catalog.NewRepository(conn)
	stock, err := NewCatalogStockWriter(catalogRepo)
	require.NoError(t, err)
	counting := &countingCatalog{inner: catalog.NewProvider(catalogRepo)}
	bus := NewBus()

	return &harness{
		conn:     conn,
		catalog:  counting,
		sink:     bus,
		employee: uuid.New(),
		deps: Dependencies{
			Catalog:  counting,
			Sales:    sales.NewRepository(conn),
			Stock:    stock,
			Tx:       db.NewFromConn(conn),
			Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
			Sink:     bus,
			Renderer: receipts.NewTextRenderer(config.StoreConfig{Name: "Corner Shop", Currency: "USD"}, nil),
			Config: Config{
				PersistTimeout: 2 * time.Second,
				ReceiptTimeout: time.Second,
			},
		},
	}
}

func (h *harness) coordinator(t *testing.T) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(h.deps)
	require.NoError(t, err)
	return c
}

func (h *harness) product(t *testing.T, code string, stock, minStock int, priceCents int64) *models.Product {
	t.Helper()
	if code == "" {
		code = fmt.Sprintf("SKU-%s", uuid.NewString()[:8])
	}
	p := &models.Product{
		Name:           "Product " + code,
		Code:           code,
		CostPriceCents: priceCents / 2,
		SalePriceCents: priceCents,
		Stock:          stock,
		MinStock:       minStock,
	}
	require.NoError(t, h.conn.Create(p).Error)
	return p
}

func (h *harness) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, h.conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func (h *harness) count(t *testing.T, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := h.conn.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func cartWith(t *testing.T, product *models.Product, qty int) *cart.Cart {
	t.Helper()
	c := cart.New()
	require.NoError(t, c.SetQuantity(product, qty))
	return c
}

type countingCatalog struct {
	mu    sync.Mutex
	calls int
	inner CatalogProvider
}

func (c *countingCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.GetProduct(ctx, id)
}

func (c *countingCatalog) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// staleCatalog serves a fixed product snapshot regardless of what is stored.
type staleCatalog struct {
	products map[uuid.UUID]models.Product
}

func (s staleCatalog) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

type blockingSales struct{}

func (blockingSales) AppendSale(ctx context.Context, _ *gorm.DB, _ *models.Sale) error {
	<-ctx.Done()
	return ctx.Err()
}

type renderFunc func(ctx context.Context, sale *models.Sale) (*receipts.Receipt, error)

func (f renderFunc) Render(ctx context.Context, sale *models.Sale) (*receipts.Receipt, error) {
	return f(ctx, sale)
}
