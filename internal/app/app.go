// Package app assembles the API's services from shared infrastructure clients.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stockpos-backend/api/routes"
	"github.com/angelmondragon/stockpos-backend/internal/auth"
	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	"github.com/angelmondragon/stockpos-backend/internal/checkout"
	"github.com/angelmondragon/stockpos-backend/internal/employees"
	"github.com/angelmondragon/stockpos-backend/internal/receipts"
	"github.com/angelmondragon/stockpos-backend/internal/reports"
	"github.com/angelmondragon/stockpos-backend/internal/sales"
	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/metrics"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockpos-backend/pkg/redis"
)

// Params are the process-wide clients. Redis and Registry are optional.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Registry *prometheus.Registry
}

// App is the wired service graph plus the infra the router needs.
type App struct {
	Services routes.Services
	Infra    routes.Infra
	Bus      *checkout.Bus
}

func Build(p Params) (*App, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	cfg := p.Config
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	conn := p.DB.DB()

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo, cfg.Checkout.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	provider := catalog.NewProvider(catalogRepo)

	employeeRepo := employees.NewRepository(conn)
	employeeSvc, err := employees.NewService(employeeRepo, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("employee service: %w", err)
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		Employees:      employeeRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	renderer := receipts.NewTextRenderer(cfg.Store, employeeSvc)
	salesRepo := sales.NewRepository(conn)
	salesSvc, err := sales.NewService(salesRepo, renderer)
	if err != nil {
		return nil, fmt.Errorf("sales service: %w", err)
	}

	cartStore, err := newCartStore(cfg, p.Redis)
	if err != nil {
		return nil, err
	}
	cartSvc, err := cart.NewService(cartStore, provider)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	lock, err := newSettlementLock(cfg, p.Redis)
	if err != nil {
		return nil, err
	}
	stockWriter, err := checkout.NewCatalogStockWriter(catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("stock writer: %w", err)
	}

	var registerer prometheus.Registerer
	var gatherer prometheus.Gatherer
	if p.Registry != nil {
		registerer, gatherer = p.Registry, p.Registry
	}

	bus := checkout.NewBus()
	bus.Subscribe(checkout.EventSaleCompleted, logSaleCompleted(logg))

	coordinator, err := checkout.NewCoordinator(checkout.Dependencies{
		Catalog:  provider,
		Sales:    salesRepo,
		Stock:    stockWriter,
		Tx:       p.DB,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logg),
		Sink:     bus,
		Renderer: renderer,
		Lock:     lock,
		Metrics:  metrics.NewCheckoutMetrics(registerer),
		Logger:   logg,
		Config: checkout.Config{
			PersistTimeout:  cfg.Checkout.PersistTimeout,
			ReceiptTimeout:  cfg.Checkout.ReceiptTimeout,
			ReceiptAttempts: cfg.Checkout.ReceiptAttempts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("settlement coordinator: %w", err)
	}
	checkoutSvc, err := checkout.NewService(cartSvc, coordinator)
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}

	reportSvc, err := reports.NewService(salesRepo, catalogRepo, employeeRepo, cfg.Checkout.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}

	infra := routes.Infra{
		DB:          p.DB,
		Gatherer:    gatherer,
		HTTPMetrics: metrics.NewServerMetrics(registerer),
	}
	if p.Redis != nil {
		infra.Redis = p.Redis
		infra.Idempotency = p.Redis
		infra.RateLimit = p.Redis
	}

	return &App{
		Services: routes.Services{
			Auth:      authSvc,
			Catalog:   catalogSvc,
			Cart:      cartSvc,
			Checkout:  checkoutSvc,
			Sales:     salesSvc,
			Reports:   reportSvc,
			Employees: employeeSvc,
		},
		Infra: infra,
		Bus:   bus,
	}, nil
}

// Handler builds the HTTP router over the wired graph.
func (a *App) Handler(cfg *config.Config, logg *logger.Logger) http.Handler {
	return routes.NewRouter(cfg, logg, a.Infra, a.Services)
}

func newCartStore(cfg *config.Config, client *redis.Client) (cart.Store, error) {
	if client == nil || !cfg.FeatureFlags.UseRedisCarts {
		return cart.NewMemoryStore(), nil
	}
	store, err := cart.NewRedisStore(client, cfg.Checkout.CartTTL)
	if err != nil {
		return nil, fmt.Errorf("redis cart store: %w", err)
	}
	return store, nil
}

// newSettlementLock always serializes in-process; the Redis lock extends that across replicas.
func newSettlementLock(cfg *config.Config, client *redis.Client) (checkout.Locker, error) {
	local := checkout.NewLocalLock()
	if client == nil || !cfg.FeatureFlags.UseRedisLock {
		return local, nil
	}
	distributed, err := checkout.NewRedisLock(client, client.LockKey("checkout"), cfg.Checkout.LockTTL, cfg.Checkout.LockWait)
	if err != nil {
		return nil, fmt.Errorf("redis settlement lock: %w", err)
	}
	return checkout.ChainLock{local, distributed}, nil
}

func logSaleCompleted(logg *logger.Logger) checkout.Handler {
	return func(ctx context.Context, payload any) error {
		var event payloads.SaleCompletedEvent
		switch v := payload.(type) {
		case payloads.SaleCompletedEvent:
			event = v
		case *payloads.SaleCompletedEvent:
			if v == nil {
				return nil
			}
			event = *v
		default:
			return nil
		}
		ctx = logg.WithFields(logg.WithSaleID(ctx, event.SaleID.String()), map[string]any{
			"receipt_number": event.ReceiptNumber,
			"total_cents":    event.TotalCents,
			"item_count":     event.ItemCount,
		})
		logg.Info(ctx, "sale.completed")
		return nil
	}
}
