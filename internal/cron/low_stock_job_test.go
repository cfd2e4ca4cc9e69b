package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/metrics"
)

type stubLowStock struct {
	products []catalog.ProductDTO
	err      error
}

func (s stubLowStock) ListLowStock(context.Context) ([]catalog.ProductDTO, error) {
	return s.products, s.err
}

func TestLowStockAuditSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	job, err := NewLowStockAuditJob(LowStockAuditJobParams{
		Logger: logger.Nop(),
		Catalog: stubLowStock{products: []catalog.ProductDTO{
			{Code: "SKU1", Stock: 0, MinStock: 5},
			{Code: "SKU2", Stock: 3, MinStock: 5},
		}},
		Metrics: metrics.NewJobMetrics(reg),
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetGauge() != nil {
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), values["stockpos_low_stock_products"])
	assert.Equal(t, float64(1), values["stockpos_out_of_stock_products"])
}

func TestLowStockAuditPropagatesError(t *testing.T) {
	job, err := NewLowStockAuditJob(LowStockAuditJobParams{
		Logger:  logger.Nop(),
		Catalog: stubLowStock{err: errors.New("db down")},
	})
	require.NoError(t, err)
	assert.Error(t, job.Run(context.Background()))
}
