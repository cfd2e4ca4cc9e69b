package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/api/responses"
	"github.com/angelmondragon/stockpos-backend/api/validators"
	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/money"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

type createProductRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	Code        string     `json:"code" validate:"required,max=64,product_code"`
	Barcode     *string    `json:"barcode,omitempty" validate:"omitempty,max=64"`
	CostPrice   string     `json:"cost_price" validate:"required"`
	SalePrice   string     `json:"sale_price" validate:"required"`
	Stock       int        `json:"stock" validate:"min=0,max=1000000"`
	MinStock    int        `json:"min_stock" validate:"min=0"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

func (r createProductRequest) toInput() (catalog.CreateProductInput, error) {
	cost, err := parsePrice("cost_price", r.CostPrice)
	if err != nil {
		return catalog.CreateProductInput{}, err
	}
	sale, err := parsePrice("sale_price", r.SalePrice)
	if err != nil {
		return catalog.CreateProductInput{}, err
	}
	return catalog.CreateProductInput{
		Name:           validators.SanitizeString(r.Name, 200),
		Description:    validators.SanitizeOptional(r.Description, 500),
		Code:           validators.SanitizeString(r.Code, 64),
		Barcode:        r.Barcode,
		CostPriceCents: cost,
		SalePriceCents: sale,
		Stock:          r.Stock,
		MinStock:       r.MinStock,
		CategoryID:     r.CategoryID,
		SupplierID:     r.SupplierID,
		ExpiryDate:     r.ExpiryDate,
	}, nil
}

type updateProductRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty"`
	Code        *string    `json:"code,omitempty" validate:"omitempty,max=64,product_code"`
	Barcode     *string    `json:"barcode,omitempty" validate:"omitempty,max=64"`
	CostPrice   *string    `json:"cost_price,omitempty"`
	SalePrice   *string    `json:"sale_price,omitempty"`
	Stock       *int       `json:"stock,omitempty" validate:"omitempty,min=0,max=1000000"`
	MinStock    *int       `json:"min_stock,omitempty" validate:"omitempty,min=0"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

func (r updateProductRequest) toInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Code:        r.Code,
		Barcode:     r.Barcode,
		Stock:       r.Stock,
		MinStock:    r.MinStock,
		CategoryID:  r.CategoryID,
		SupplierID:  r.SupplierID,
		ExpiryDate:  r.ExpiryDate,
	}
	if r.CostPrice != nil {
		cents, err := parsePrice("cost_price", *r.CostPrice)
		if err != nil {
			return input, err
		}
		input.CostPriceCents = &cents
	}
	if r.SalePrice != nil {
		cents, err := parsePrice("sale_price", *r.SalePrice)
		if err != nil {
			return input, err
		}
		input.SalePriceCents = &cents
	}
	return input, nil
}

func parsePrice(field, value string) (int64, error) {
	cents, err := money.ParseCents(value)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price").
			WithDetails(map[string]any{"field": field})
	}
	return cents, nil
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
}

type supplierRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	ContactName *string `json:"contact_name,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address     *string `json:"address,omitempty"`
}

// ProductList pages through the catalog, optionally filtered by ?q=, category and supplier.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), catalog.ListProductsInput{
			Query:      validators.SanitizeString(r.URL.Query().Get("q"), 100),
			CategoryID: categoryID,
			SupplierID: supplierID,
			Pagination: pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, result.Products, result.NextCursor)
	}
}

// ProductLookup resolves a scanned ?code= or ?barcode=.
func ProductLookup(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		product, err := svc.LookupProduct(r.Context(), strings.TrimSpace(q.Get("code")), strings.TrimSpace(q.Get("barcode")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductLowStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func CategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:        validators.SanitizeString(payload.Name, 100),
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func CategoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SupplierList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suppliers, err := svc.ListSuppliers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suppliers)
	}
}

func SupplierCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload supplierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.CreateSupplier(r.Context(), catalog.SupplierInput{
			Name:        validators.SanitizeString(payload.Name, 200),
			ContactName: payload.ContactName,
			Email:       payload.Email,
			Phone:       payload.Phone,
			Address:     payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

func SupplierDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteSupplier(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
