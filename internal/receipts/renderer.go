package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/money"
)

const (
	lineWidth   = 40
	nameWidth   = 18
	ContentType = "text/plain; charset=utf-8"
)

// Receipt is a rendered customer receipt.
type Receipt struct {
	SaleID        uuid.UUID `json:"sale_id"`
	ReceiptNumber string    `json:"receipt_number"`
	ContentType   string    `json:"content_type"`
	Body          string    `json:"body"`
	RenderedAt    time.Time `json:"rendered_at"`
}

type employeeNamer interface {
	EmployeeName(ctx context.Context, id uuid.UUID) (string, error)
}

// TextRenderer lays out fixed-width plain-text receipts.
type TextRenderer struct {
	store     config.StoreConfig
	employees employeeNamer
	location  *time.Location
}

// NewTextRenderer builds a renderer. employees may be nil, in which case the
// cashier line is omitted.
func NewTextRenderer(store config.StoreConfig, employees employeeNamer) *TextRenderer {
	return &TextRenderer{store: store, employees: employees, location: time.Local}
}

// WithLocation sets the timezone used for the printed sale time.
func (r *TextRenderer) WithLocation(loc *time.Location) *TextRenderer {
	if loc != nil {
		r.location = loc
	}
	return r
}

// Render formats the sale. It only fails when the sale is unusable or the
// context ends first.
func (r *TextRenderer) Render(ctx context.Context, sale *models.Sale) (*Receipt, error) {
	if sale == nil {
		return nil, errors.New("sale is required")
	}
	if sale.ReceiptNumber == "" {
		return nil, errors.New("sale has no receipt number")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	center(&b, r.store.Name)
	if r.store.Address != "" {
		center(&b, r.store.Address)
	}
	if r.store.Phone != "" {
		center(&b, "Tel: "+r.store.Phone)
	}
	if r.store.ReceiptHeader != "" {
		center(&b, r.store.ReceiptHeader)
	}
	rule(&b)

	fmt.Fprintf(&b, "Receipt #: %s\n", sale.ReceiptNumber)
	fmt.Fprintf(&b, "Date: %s\n", sale.SaleTime.In(r.location).Format("02/01/2006 15:04"))
	if name := r.cashierName(ctx, sale.EmployeeID); name != "" {
		fmt.Fprintf(&b, "Cashier: %s\n", name)
	}
	for _, payment := range sale.Payments {
		fmt.Fprintf(&b, "Payment: %s\n", payment.Method.Label())
		if payment.Reference != nil && *payment.Reference != "" {
			fmt.Fprintf(&b, "Reference: %s\n", *payment.Reference)
		}
	}
	rule(&b)

	fmt.Fprintf(&b, "%-4s %-*s %7s %8s\n", "Qty", nameWidth, "Item", "Price", "Total")
	for _, item := range sale.Items {
		fmt.Fprintf(&b, "%-4d %-*s %7s %8s\n",
			item.Quantity,
			nameWidth, truncate(item.ProductName, nameWidth),
			money.Format(item.UnitPriceCents),
			money.Format(item.TotalCents),
		)
	}
	rule(&b)

	total(&b, "Subtotal", money.Format(sale.SubtotalCents))
	total(&b, "Tax", money.Format(sale.TaxCents))
	total(&b, "Discount", money.Format(sale.DiscountCents))
	total(&b, "TOTAL", money.FormatWithCurrency(sale.TotalCents, r.store.Currency))
	rule(&b)

	if r.store.ReceiptFooter != "" {
		center(&b, r.store.ReceiptFooter)
	}
	if r.store.Email != "" {
		center(&b, "Email: "+r.store.Email)
	}

	return &Receipt{
		SaleID:        sale.ID,
		ReceiptNumber: sale.ReceiptNumber,
		ContentType:   ContentType,
		Body:          b.String(),
		RenderedAt:    time.Now().UTC(),
	}, nil
}

func (r *TextRenderer) cashierName(ctx context.Context, employeeID uuid.UUID) string {
	if r.employees == nil || employeeID == uuid.Nil {
		return ""
	}
	name, err := r.employees.EmployeeName(ctx, employeeID)
	if err != nil {
		return ""
	}
	return name
}

func center(b *strings.Builder, text string) {
	text = truncate(text, lineWidth)
	pad := (lineWidth - len([]rune(text))) / 2
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(text)
	b.WriteByte('\n')
}

func rule(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", lineWidth))
	b.WriteByte('\n')
}

func total(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-*s%*s\n", lineWidth/2, label, lineWidth/2, value)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "~"
}
