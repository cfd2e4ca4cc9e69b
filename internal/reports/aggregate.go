package reports

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

// SalesSummary aggregates completed sales over a period. Amounts are cents.
type SalesSummary struct {
	From         time.Time
	To           time.Time
	Transactions int
	ItemsSold    int
	GrossCents   int64
	CostCents    int64
	NetCents     int64
	AverageCents int64
	TopProducts  []ProductSales
	// ByPaymentMethod folds payment allocations, so a split-tender sale
	// counts once under each method it used.
	ByPaymentMethod map[enums.PaymentMethod]TenderTotals
}

// TenderTotals is the per-payment-method slice of a sales summary.
type TenderTotals struct {
	Transactions int
	TotalCents   int64
}

// ProductSales is one row of the top-products table.
type ProductSales struct {
	ProductID    uuid.UUID
	Name         string
	Quantity     int
	RevenueCents int64
}

// SummarizeSales folds sales into totals and the topN products by quantity.
func SummarizeSales(rows []models.Sale, from, to time.Time, topN int) SalesSummary {
	summary := SalesSummary{From: from, To: to, ByPaymentMethod: map[enums.PaymentMethod]TenderTotals{}}
	byProduct := map[uuid.UUID]*ProductSales{}
	for _, sale := range rows {
		summary.Transactions++
		summary.GrossCents += sale.TotalCents
		seen := make(map[enums.PaymentMethod]bool, len(sale.Payments))
		for _, p := range sale.Payments {
			tender := summary.ByPaymentMethod[p.Method]
			tender.TotalCents += p.AmountCents
			if !seen[p.Method] {
				tender.Transactions++
				seen[p.Method] = true
			}
			summary.ByPaymentMethod[p.Method] = tender
		}
		for _, item := range sale.Items {
			summary.ItemsSold += item.Quantity
			summary.CostCents += item.UnitCostCents * int64(item.Quantity)
			agg, ok := byProduct[item.ProductID]
			if !ok {
				agg = &ProductSales{ProductID: item.ProductID, Name: item.ProductName}
				byProduct[item.ProductID] = agg
			}
			agg.Quantity += item.Quantity
			agg.RevenueCents += item.TotalCents
		}
	}
	summary.NetCents = summary.GrossCents - summary.CostCents
	summary.AverageCents = average(summary.GrossCents, summary.Transactions)

	top := make([]ProductSales, 0, len(byProduct))
	for _, agg := range byProduct {
		top = append(top, *agg)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		if top[i].RevenueCents != top[j].RevenueCents {
			return top[i].RevenueCents > top[j].RevenueCents
		}
		return top[i].Name < top[j].Name
	})
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	summary.TopProducts = top
	return summary
}

// InventorySummary values stock at cost and lists products needing attention.
type InventorySummary struct {
	TotalProducts  int
	TotalUnits     int
	StockCostCents int64
	StockSaleCents int64
	LowStock       []models.Product
	OutOfStock     []models.Product
}

// SummarizeInventory classifies products. Out-of-stock products are not also
// listed as low stock.
func SummarizeInventory(products []models.Product, threshold int) InventorySummary {
	summary := InventorySummary{LowStock: []models.Product{}, OutOfStock: []models.Product{}}
	for _, p := range products {
		summary.TotalProducts++
		summary.TotalUnits += p.Stock
		summary.StockCostCents += p.CostPriceCents * int64(p.Stock)
		summary.StockSaleCents += p.SalePriceCents * int64(p.Stock)
		switch {
		case p.Stock <= 0:
			summary.OutOfStock = append(summary.OutOfStock, p)
		case p.IsLowStock(threshold):
			summary.LowStock = append(summary.LowStock, p)
		}
	}
	return summary
}

// EmployeeSales is one row of the employee performance report.
type EmployeeSales struct {
	EmployeeID   uuid.UUID
	Name         string
	Transactions int
	TotalCents   int64
	AverageCents int64
	LastSaleAt   *time.Time
}

// SortKey selects the employee report ordering.
type SortKey string

const (
	SortByTotal        SortKey = "total"
	SortByTransactions SortKey = "transactions"
	SortByAverage      SortKey = "average"
	SortByName         SortKey = "name"
)

// SummarizeEmployees groups sales per employee. Employees without sales are
// included with zero totals so the report lists the whole staff.
func SummarizeEmployees(rows []models.Sale, staff []models.Employee, key SortKey, ascending bool) []EmployeeSales {
	byEmployee := make(map[uuid.UUID]*EmployeeSales, len(staff))
	order := make([]uuid.UUID, 0, len(staff))
	for _, e := range staff {
		byEmployee[e.ID] = &EmployeeSales{EmployeeID: e.ID, Name: e.FullName()}
		order = append(order, e.ID)
	}
	for _, sale := range rows {
		agg, ok := byEmployee[sale.EmployeeID]
		if !ok {
			agg = &EmployeeSales{EmployeeID: sale.EmployeeID, Name: "Unknown"}
			byEmployee[sale.EmployeeID] = agg
			order = append(order, sale.EmployeeID)
		}
		agg.Transactions++
		agg.TotalCents += sale.TotalCents
		if agg.LastSaleAt == nil || sale.SaleTime.After(*agg.LastSaleAt) {
			at := sale.SaleTime
			agg.LastSaleAt = &at
		}
	}

	out := make([]EmployeeSales, 0, len(order))
	for _, id := range order {
		agg := byEmployee[id]
		agg.AverageCents = average(agg.TotalCents, agg.Transactions)
		out = append(out, *agg)
	}

	less := func(a, b EmployeeSales) bool {
		switch key {
		case SortByTransactions:
			return a.Transactions < b.Transactions
		case SortByAverage:
			return a.AverageCents < b.AverageCents
		case SortByName:
			return a.Name < b.Name
		default:
			return a.TotalCents < b.TotalCents
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

// average rounds half away from zero to whole cents.
func average(totalCents int64, n int) int64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(totalCents).
		Div(decimal.NewFromInt(int64(n))).
		Round(0).
		IntPart()
}
