package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

// Builder turns a validated cart into a sale value. It has no side effects.
type Builder struct {
	newID  func() uuid.UUID
	suffix func() string
}

func NewBuilder() *Builder {
	return &Builder{
		newID: uuid.New,
		suffix: func() string {
			return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		},
	}
}

// ReceiptNumber returns a fresh receipt number for a sale at now. Uniqueness
// is enforced by the sales table; collisions are retried by the coordinator.
func (b *Builder) ReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCP-%s-%s", now.UTC().Format("20060102"), b.suffix())
}

// BuildInput carries the optional sale attributes.
type BuildInput struct {
	EmployeeID       uuid.UUID
	PaymentMethod    enums.PaymentMethod
	PaymentReference *string
	CustomerID       *uuid.UUID
	Now              time.Time
}

// Build snapshots prices from the cart lines and costs from products. Tax and
// discount stay zero and the whole total goes to a single payment.
func (b *Builder) Build(c *cart.Cart, products map[uuid.UUID]*models.Product, input BuildInput) (*models.Sale, error) {
	if c == nil || c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	now := input.Now.UTC()
	saleID := b.newID()

	items := make([]models.SaleItem, 0, len(c.Lines))
	var subtotal int64
	for _, line := range c.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, cart.ProductMissingError(line)
		}
		lineTotal := line.TotalCents()
		subtotal += lineTotal
		items = append(items, models.SaleItem{
			SaleID:         saleID,
			ProductID:      line.ProductID,
			ProductName:    line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.PriceAtSaleCents,
			UnitCostCents:  product.CostPriceCents,
			DiscountCents:  0,
			TotalCents:     lineTotal,
		})
	}

	var tax, discount int64
	total := subtotal - discount + tax

	return &models.Sale{
		ID:            saleID,
		ReceiptNumber: b.ReceiptNumber(now),
		EmployeeID:    input.EmployeeID,
		CustomerID:    input.CustomerID,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		DiscountCents: discount,
		TotalCents:    total,
		Status:        enums.SaleStatusCompleted,
		SaleTime:      now,
		Items:         items,
		Payments: []models.SalePayment{{
			SaleID:      saleID,
			Method:      input.PaymentMethod,
			AmountCents: total,
			Reference:   input.PaymentReference,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
