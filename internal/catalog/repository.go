package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

// ErrStockChanged is returned when a conditional stock decrement matched no row,
// meaning the product vanished or its stock dropped below the requested quantity.
var ErrStockChanged = errors.New("product stock changed")

// Repository persists products, categories and suppliers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCode loads a product by its unique store code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "code = ?", strings.TrimSpace(code)).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByBarcode loads a product by scanner barcode.
func (r *Repository) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "barcode = ?", strings.TrimSpace(barcode)).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every product in ids. Missing ids are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// ListAll returns the full catalog ordered by name.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID and reports whether a row was removed.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// DecrementStock subtracts quantity from the product stock only when enough stock
// remains, returning ErrStockChanged otherwise. The guard holds even against
// writers that bypass the checkout lock.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockChanged
	}
	return nil
}

type productListQuery struct {
	Query      string
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
	Pagination pagination.Params
}

// ListProducts pages through products ordered by newest first.
func (r *Repository) ListProducts(ctx context.Context, query productListQuery) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if search := strings.TrimSpace(query.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR barcode = ?)", pattern, pattern, search)
	}
	if query.CategoryID != nil {
		qb = qb.Where("category_id = ?", *query.CategoryID)
	}
	if query.SupplierID != nil {
		qb = qb.Where("supplier_id = ?", *query.SupplierID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ListLowStock returns products at or below their own minimum or the shared threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("stock <= min_stock OR stock <= ?", threshold).
		Order("stock ASC").
		Order("name ASC").
		Find(&rows).
		Error
	return rows, err
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns all categories by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// DeleteCategory removes the category and detaches its products.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	return res.RowsAffected > 0, res.Error
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

// ListSuppliers returns all suppliers by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var rows []models.Supplier
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// DeleteSupplier removes the supplier and detaches its products.
func (r *Repository) DeleteSupplier(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("supplier_id = ?", id).
		Update("supplier_id", nil).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Supplier{})
	return res.RowsAffected > 0, res.Error
}
