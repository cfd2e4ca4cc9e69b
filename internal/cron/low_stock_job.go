package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/metrics"
)

// maxLoggedCodes caps how many product codes a single audit log line carries.
const maxLoggedCodes = 20

type lowStockLister interface {
	ListLowStock(ctx context.Context) ([]catalog.ProductDTO, error)
}

type LowStockAuditJobParams struct {
	Logger  *logger.Logger
	Catalog lowStockLister
	Metrics *metrics.JobMetrics
}

// NewLowStockAuditJob publishes the current low and out of stock counts and
// warns with the affected product codes.
func NewLowStockAuditJob(params LowStockAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	return &lowStockAuditJob{
		logg:    params.Logger,
		catalog: params.Catalog,
		metrics: params.Metrics,
	}, nil
}

type lowStockAuditJob struct {
	logg    *logger.Logger
	catalog lowStockLister
	metrics *metrics.JobMetrics
}

func (j *lowStockAuditJob) Name() string { return "low-stock-audit" }

func (j *lowStockAuditJob) Run(ctx context.Context) error {
	products, err := j.catalog.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}

	outOfStock := 0
	codes := make([]string, 0, min(len(products), maxLoggedCodes))
	for _, p := range products {
		if p.Stock == 0 {
			outOfStock++
		}
		if len(codes) < maxLoggedCodes {
			codes = append(codes, p.Code)
		}
	}
	j.metrics.SetStockLevels(len(products), outOfStock)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"low_stock":    len(products),
		"out_of_stock": outOfStock,
	})
	if len(products) == 0 {
		j.logg.Info(logCtx, "no products below minimum stock")
		return nil
	}
	j.logg.Warn(j.logg.WithField(logCtx, "codes", codes), "products below minimum stock")
	return nil
}
