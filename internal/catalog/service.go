package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/money"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	LookupProduct(ctx context.Context, code, barcode string) (*ProductDTO, error)
	ListLowStock(ctx context.Context) ([]ProductDTO, error)

	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateSupplier(ctx context.Context, input SupplierInput) (*SupplierDTO, error)
	ListSuppliers(ctx context.Context) ([]SupplierDTO, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name           string
	Description    *string
	Code           string
	Barcode        *string
	CostPriceCents int64
	SalePriceCents int64
	Stock          int
	MinStock       int
	CategoryID     *uuid.UUID
	SupplierID     *uuid.UUID
	ExpiryDate     *time.Time
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name           *string
	Description    *string
	Code           *string
	Barcode        *string
	CostPriceCents *int64
	SalePriceCents *int64
	Stock          *int
	MinStock       *int
	CategoryID     *uuid.UUID
	SupplierID     *uuid.UUID
	ExpiryDate     *time.Time
}

// ListProductsInput filters and paginates the product listing.
type ListProductsInput struct {
	Query      string
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
	Pagination pagination.Params
}

type CategoryInput struct {
	Name        string
	Description *string
}

type SupplierInput struct {
	Name        string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
}

type service struct {
	repo              *Repository
	lowStockThreshold int
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must be non-negative")
	}
	return &service{repo: repo, lowStockThreshold: lowStockThreshold}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Name:           strings.TrimSpace(input.Name),
		Description:    trimPtr(input.Description),
		Code:           strings.TrimSpace(input.Code),
		Barcode:        trimPtr(input.Barcode),
		CostPriceCents: input.CostPriceCents,
		SalePriceCents: input.SalePriceCents,
		Stock:          input.Stock,
		MinStock:       input.MinStock,
		CategoryID:     input.CategoryID,
		SupplierID:     input.SupplierID,
		ExpiryDate:     input.ExpiryDate,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, translateWriteErr(err, "insert product")
	}
	dto := NewProductDTO(created, s.lowStockThreshold)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, translateLookupErr(err, "product not found")
	}

	applyUpdateToProduct(product, input)
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, translateWriteErr(err, "update product")
	}
	dto := NewProductDTO(updated, s.lowStockThreshold)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	removed, err := s.repo.DeleteProduct(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, translateLookupErr(err, "product not found")
	}
	dto := NewProductDTO(product, s.lowStockThreshold)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListProducts(ctx, productListQuery{
		Query:      input.Query,
		CategoryID: input.CategoryID,
		SupplierID: input.SupplierID,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i], s.lowStockThreshold))
	}
	return &ProductListResult{Products: out, NextCursor: next}, nil
}

// LookupProduct resolves scanner input. Exactly one of code or barcode must be set.
func (s *service) LookupProduct(ctx context.Context, code, barcode string) (*ProductDTO, error) {
	code, barcode = strings.TrimSpace(code), strings.TrimSpace(barcode)
	var (
		product *models.Product
		err     error
	)
	switch {
	case code != "" && barcode != "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide either code or barcode, not both")
	case code != "":
		product, err = s.repo.FindByCode(ctx, code)
	case barcode != "":
		product, err = s.repo.FindByBarcode(ctx, barcode)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code or barcode is required")
	}
	if err != nil {
		return nil, translateLookupErr(err, "product not found")
	}
	dto := NewProductDTO(product, s.lowStockThreshold)
	return &dto, nil
}

func (s *service) ListLowStock(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewProductDTO(&rows[i], s.lowStockThreshold))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	created, err := s.repo.CreateCategory(ctx, &models.Category{Name: name, Description: trimPtr(input.Description)})
	if err != nil {
		return nil, translateWriteErr(err, "insert category")
	}
	dto := NewCategoryDTO(created)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewCategoryDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) CreateSupplier(ctx context.Context, input SupplierInput) (*SupplierDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	created, err := s.repo.CreateSupplier(ctx, &models.Supplier{
		Name:        name,
		ContactName: trimPtr(input.ContactName),
		Email:       trimPtr(input.Email),
		Phone:       trimPtr(input.Phone),
		Address:     trimPtr(input.Address),
	})
	if err != nil {
		return nil, translateWriteErr(err, "insert supplier")
	}
	dto := NewSupplierDTO(created)
	return &dto, nil
}

func (s *service) ListSuppliers(ctx context.Context) ([]SupplierDTO, error) {
	rows, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewSupplierDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	removed, err := s.repo.DeleteSupplier(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return nil
}

// MaxStock bounds on-hand units per product so line totals stay within int64.
const MaxStock = 1_000_000

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Code == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	case p.CostPriceCents < 0 || p.SalePriceCents < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must be non-negative")
	case p.CostPriceCents > money.MaxCents || p.SalePriceCents > money.MaxCents:
		return pkgerrors.New(pkgerrors.CodeValidation, "prices must not exceed "+money.Format(money.MaxCents))
	case p.Stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	case p.Stock > MaxStock:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("stock must not exceed %d", MaxStock))
	case p.MinStock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "min_stock must be non-negative")
	}
	return nil
}

func applyUpdateToProduct(p *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		p.Description = trimPtr(input.Description)
	}
	if input.Code != nil {
		p.Code = strings.TrimSpace(*input.Code)
	}
	if input.Barcode != nil {
		p.Barcode = trimPtr(input.Barcode)
	}
	if input.CostPriceCents != nil {
		p.CostPriceCents = *input.CostPriceCents
	}
	if input.SalePriceCents != nil {
		p.SalePriceCents = *input.SalePriceCents
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.MinStock != nil {
		p.MinStock = *input.MinStock
	}
	if input.CategoryID != nil {
		p.CategoryID = input.CategoryID
	}
	if input.SupplierID != nil {
		p.SupplierID = input.SupplierID
	}
	if input.ExpiryDate != nil {
		p.ExpiryDate = input.ExpiryDate
	}
}

// trimPtr trims the value and maps blank strings to nil.
func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func translateWriteErr(err error, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a record with that name, code or barcode already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
