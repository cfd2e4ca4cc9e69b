package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/money"
)

const (
	defaultTopProducts = 10
	maxReportRange     = 366 * 24 * time.Hour
)

type salesSource interface {
	ListInRange(ctx context.Context, from, to time.Time) ([]models.Sale, error)
}

type productSource interface {
	ListAll(ctx context.Context) ([]models.Product, error)
}

type staffSource interface {
	ListEmployees(ctx context.Context, includeInactive bool) ([]models.Employee, error)
}

// Service produces read-only reports over sales, stock and staff.
type Service interface {
	Sales(ctx context.Context, input RangeInput) (*SalesReportDTO, error)
	Inventory(ctx context.Context) (*InventoryReportDTO, error)
	Employees(ctx context.Context, input EmployeeReportInput) (*EmployeeReportDTO, error)
}

// RangeInput bounds a report to [From, To).
type RangeInput struct {
	From time.Time
	To   time.Time
	Top  int
}

// EmployeeReportInput adds ordering to the range.
type EmployeeReportInput struct {
	RangeInput
	SortBy    string
	Ascending bool
}

type service struct {
	sales     salesSource
	products  productSource
	staff     staffSource
	threshold int
}

func NewService(sales salesSource, products productSource, staff staffSource, lowStockThreshold int) (Service, error) {
	if sales == nil {
		return nil, fmt.Errorf("sales source required")
	}
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if staff == nil {
		return nil, fmt.Errorf("staff source required")
	}
	return &service{sales: sales, products: products, staff: staff, threshold: lowStockThreshold}, nil
}

func (s *service) Sales(ctx context.Context, input RangeInput) (*SalesReportDTO, error) {
	if err := validateRange(input); err != nil {
		return nil, err
	}
	rows, err := s.sales.ListInRange(ctx, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}
	top := input.Top
	if top <= 0 {
		top = defaultTopProducts
	}
	return newSalesReportDTO(SummarizeSales(rows, input.From, input.To, top)), nil
}

func (s *service) Inventory(ctx context.Context) (*InventoryReportDTO, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return newInventoryReportDTO(SummarizeInventory(products, s.threshold), s.threshold), nil
}

func (s *service) Employees(ctx context.Context, input EmployeeReportInput) (*EmployeeReportDTO, error) {
	if err := validateRange(input.RangeInput); err != nil {
		return nil, err
	}
	key, err := parseSortKey(input.SortBy)
	if err != nil {
		return nil, err
	}
	rows, err := s.sales.ListInRange(ctx, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}
	staff, err := s.staff.ListEmployees(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employees")
	}
	return newEmployeeReportDTO(input.From, input.To, SummarizeEmployees(rows, staff, key, input.Ascending)), nil
}

func validateRange(r RangeInput) error {
	if r.From.IsZero() || r.To.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "from and to are required")
	}
	if !r.From.Before(r.To) {
		return pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	if r.To.Sub(r.From) > maxReportRange {
		return pkgerrors.New(pkgerrors.CodeValidation, "report range cannot exceed one year")
	}
	return nil
}

func parseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case "":
		return SortByTotal, nil
	case SortByTotal, SortByTransactions, SortByAverage, SortByName:
		return key, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sort key %q", raw))
	}
}

// SalesReportDTO is the sales report response.
type SalesReportDTO struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Transactions int             `json:"transactions"`
	ItemsSold    int             `json:"items_sold"`
	GrossRevenue string          `json:"gross_revenue"`
	Cost         string          `json:"cost"`
	NetRevenue   string          `json:"net_revenue"`
	AverageSale  string          `json:"average_sale"`
	TopProducts  []TopProductDTO `json:"top_products"`
	// ByPaymentMethod lists tenders in a fixed order; unused methods are omitted.
	ByPaymentMethod []TenderDTO `json:"by_payment_method"`
}

type TenderDTO struct {
	Method       enums.PaymentMethod `json:"method"`
	Transactions int                 `json:"transactions"`
	Total        string              `json:"total"`
}

func newTenderDTOs(byMethod map[enums.PaymentMethod]TenderTotals) []TenderDTO {
	out := make([]TenderDTO, 0, len(byMethod))
	for _, method := range enums.PaymentMethods() {
		if t, ok := byMethod[method]; ok {
			out = append(out, TenderDTO{Method: method, Transactions: t.Transactions, Total: money.Format(t.TotalCents)})
		}
	}
	return out
}

type TopProductDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Revenue   string    `json:"revenue"`
}

func newSalesReportDTO(s SalesSummary) *SalesReportDTO {
	top := make([]TopProductDTO, 0, len(s.TopProducts))
	for _, p := range s.TopProducts {
		top = append(top, TopProductDTO{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Revenue:   money.Format(p.RevenueCents),
		})
	}
	return &SalesReportDTO{
		From:         s.From,
		To:           s.To,
		Transactions: s.Transactions,
		ItemsSold:    s.ItemsSold,
		GrossRevenue: money.Format(s.GrossCents),
		Cost:         money.Format(s.CostCents),
		NetRevenue:   money.Format(s.NetCents),
		AverageSale:  money.Format(s.AverageCents),
		TopProducts:  top,

		ByPaymentMethod: newTenderDTOs(s.ByPaymentMethod),
	}
}

// InventoryReportDTO is the inventory report response.
type InventoryReportDTO struct {
	TotalProducts  int                  `json:"total_products"`
	TotalUnits     int                  `json:"total_units"`
	StockValueCost string               `json:"stock_value_cost"`
	StockValueSale string               `json:"stock_value_sale"`
	LowStock       []catalog.ProductDTO `json:"low_stock"`
	OutOfStock     []catalog.ProductDTO `json:"out_of_stock"`
}

func newInventoryReportDTO(s InventorySummary, threshold int) *InventoryReportDTO {
	toDTOs := func(rows []models.Product) []catalog.ProductDTO {
		out := make([]catalog.ProductDTO, 0, len(rows))
		for i := range rows {
			out = append(out, catalog.NewProductDTO(&rows[i], threshold))
		}
		return out
	}
	return &InventoryReportDTO{
		TotalProducts:  s.TotalProducts,
		TotalUnits:     s.TotalUnits,
		StockValueCost: money.Format(s.StockCostCents),
		StockValueSale: money.Format(s.StockSaleCents),
		LowStock:       toDTOs(s.LowStock),
		OutOfStock:     toDTOs(s.OutOfStock),
	}
}

// EmployeeReportDTO is the employee performance response.
type EmployeeReportDTO struct {
	From      time.Time          `json:"from"`
	To        time.Time          `json:"to"`
	Employees []EmployeeSalesDTO `json:"employees"`
}

type EmployeeSalesDTO struct {
	EmployeeID   uuid.UUID  `json:"employee_id"`
	Name         string     `json:"name"`
	Transactions int        `json:"transactions"`
	TotalSales   string     `json:"total_sales"`
	AverageSale  string     `json:"average_sale"`
	LastSaleAt   *time.Time `json:"last_sale_at,omitempty"`
}

func newEmployeeReportDTO(from, to time.Time, rows []EmployeeSales) *EmployeeReportDTO {
	out := make([]EmployeeSalesDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, EmployeeSalesDTO{
			EmployeeID:   r.EmployeeID,
			Name:         r.Name,
			Transactions: r.Transactions,
			TotalSales:   money.Format(r.TotalCents),
			AverageSale:  money.Format(r.AverageCents),
			LastSaleAt:   r.LastSaleAt,
		})
	}
	return &EmployeeReportDTO{From: from, To: to, Employees: out}
}
