package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/money"
)

// ProductDTO is the product payload returned to clients. Prices are decimal strings.
type ProductDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Code        string     `json:"code"`
	Barcode     *string    `json:"barcode,omitempty"`
	CostPrice   string     `json:"cost_price"`
	SalePrice   string     `json:"sale_price"`
	Stock       int        `json:"stock"`
	MinStock    int        `json:"min_stock"`
	LowStock    bool       `json:"low_stock"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewProductDTO maps the persisted model. threshold feeds the low-stock flag.
func NewProductDTO(p *models.Product, threshold int) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Code:        p.Code,
		Barcode:     p.Barcode,
		CostPrice:   money.Format(p.CostPriceCents),
		SalePrice:   money.Format(p.SalePriceCents),
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		LowStock:    p.IsLowStock(threshold),
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		ExpiryDate:  p.ExpiryDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewCategoryDTO(c *models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

type SupplierDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contact_name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewSupplierDTO(s *models.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:          s.ID,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		CreatedAt:   s.CreatedAt,
	}
}
