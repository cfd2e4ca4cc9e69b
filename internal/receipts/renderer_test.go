package receipts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

type stubNamer struct {
	name string
	err  error
}

func (s stubNamer) EmployeeName(context.Context, uuid.UUID) (string, error) {
	return s.name, s.err
}

func testSale() *models.Sale {
	ref := "TX-991"
	return &models.Sale{
		ID:            uuid.New(),
		ReceiptNumber: "RCP-20250301-ABCD1234",
		EmployeeID:    uuid.New(),
		SubtotalCents: 2000,
		TotalCents:    2000,
		Status:        enums.SaleStatusCompleted,
		SaleTime:      time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC),
		Items: []models.SaleItem{
			{ProductName: "A very long product name that overflows", Quantity: 2, UnitPriceCents: 1000, TotalCents: 2000},
		},
		Payments: []models.SalePayment{
			{Method: enums.PaymentMethodETransfer, AmountCents: 2000, Reference: &ref},
		},
	}
}

func TestRenderIncludesStoreLinesAndTotals(t *testing.T) {
	store := config.StoreConfig{
		Name:          "AtoZ Store",
		Address:       "123 Main St",
		Phone:         "555-0123",
		Currency:      "CAD",
		ReceiptFooter: "Thank you!",
	}
	renderer := NewTextRenderer(store, stubNamer{name: "Jane Doe"}).WithLocation(time.UTC)

	receipt, err := renderer.Render(context.Background(), testSale())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if receipt.ContentType != ContentType {
		t.Fatalf("unexpected content type %q", receipt.ContentType)
	}

	for _, want := range []string{
		"AtoZ Store",
		"Tel: 555-0123",
		"Receipt #: RCP-20250301-ABCD1234",
		"Date: 01/03/2025 14:30",
		"Cashier: Jane Doe",
		"Payment: E-Transfer",
		"Reference: TX-991",
		"10.00",
		"TOTAL",
		"CAD 20.00",
		"Thank you!",
	} {
		if !strings.Contains(receipt.Body, want) {
			t.Fatalf("receipt missing %q:\n%s", want, receipt.Body)
		}
	}
	if strings.Contains(receipt.Body, "overflows") {
		t.Fatalf("expected long product names to be truncated:\n%s", receipt.Body)
	}
}

func TestRenderSkipsCashierWhenLookupFails(t *testing.T) {
	renderer := NewTextRenderer(config.StoreConfig{Name: "Shop"}, stubNamer{err: errors.New("down")})

	receipt, err := renderer.Render(context.Background(), testSale())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(receipt.Body, "Cashier:") {
		t.Fatalf("did not expect cashier line:\n%s", receipt.Body)
	}
}

func TestRenderRejectsUnusableSale(t *testing.T) {
	renderer := NewTextRenderer(config.StoreConfig{Name: "Shop"}, nil)

	if _, err := renderer.Render(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil sale")
	}
	sale := testSale()
	sale.ReceiptNumber = ""
	if _, err := renderer.Render(context.Background(), sale); err == nil {
		t.Fatal("expected error for missing receipt number")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := renderer.Render(ctx, testSale()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
