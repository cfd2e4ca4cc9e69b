package checkout

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

var receiptPattern = regexp.MustCompile(`^RCP-\d{8}-[0-9A-F]{8}$`)

func TestReceiptNumberFormat(t *testing.T) {
	b := NewBuilder()
	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)

	first := b.ReceiptNumber(now)
	second := b.ReceiptNumber(now)
	assert.Regexp(t, receiptPattern, first)
	assert.Contains(t, first, "RCP-20250309-")
	assert.NotEqual(t, first, second)
}

func TestBuildSnapshotsPriceAndCost(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Tea", Code: "TEA", SalePriceCents: 350, CostPriceCents: 120, Stock: 10}
	c := cart.New()
	require.NoError(t, c.SetQuantity(product, 3))

	// Price changes after the line was added; the line's snapshot wins.
	current := *product
	current.SalePriceCents = 999
	current.CostPriceCents = 130

	ref := "AUTH-1"
	employee := uuid.New()
	sale, err := NewBuilder().Build(c, map[uuid.UUID]*models.Product{product.ID: &current}, BuildInput{
		EmployeeID:       employee,
		PaymentMethod:    enums.PaymentMethodCard,
		PaymentReference: &ref,
		Now:              time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	item := sale.Items[0]
	assert.Equal(t, int64(350), item.UnitPriceCents)
	assert.Equal(t, int64(130), item.UnitCostCents)
	assert.Equal(t, int64(1050), item.TotalCents)
	assert.Equal(t, sale.ID, item.SaleID)

	assert.Equal(t, int64(1050), sale.SubtotalCents)
	assert.Equal(t, int64(1050), sale.TotalCents)
	assert.Equal(t, employee, sale.EmployeeID)
	assert.Equal(t, enums.SaleStatusCompleted, sale.Status)
	require.Len(t, sale.Payments, 1)
	assert.Equal(t, enums.PaymentMethodCard, sale.Payments[0].Method)
	assert.Equal(t, sale.TotalCents, sale.Payments[0].AmountCents)
	assert.Equal(t, &ref, sale.Payments[0].Reference)
	assert.Regexp(t, receiptPattern, sale.ReceiptNumber)
}

func TestBuildRejectsEmptyCartAndUnknownProduct(t *testing.T) {
	_, err := NewBuilder().Build(cart.New(), nil, BuildInput{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeEmptyCart))

	product := &models.Product{ID: uuid.New(), Name: "Tea", Stock: 1, SalePriceCents: 100}
	c := cart.New()
	require.NoError(t, c.AddItem(product))
	_, err = NewBuilder().Build(c, map[uuid.UUID]*models.Product{}, BuildInput{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductMissing))
}
