package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

// Filter narrows sale listings. Zero values are ignored.
type Filter struct {
	EmployeeID *uuid.UUID
	Status     *enums.SaleStatus
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// Repository persists sales. Sales are append-only.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AppendSale inserts the sale with its items and payments inside tx.
func (r *Repository) AppendSale(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(sale).Error
}

// FindByID loads a sale with items and payments.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&sale, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales pages through sales newest first.
func (r *Repository) ListSales(ctx context.Context, filter Filter) ([]models.Sale, string, error) {
	pageSize := pagination.NormalizeLimit(filter.Pagination.Limit)
	cursor, err := pagination.ParseCursor(filter.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.applyFilter(r.db.WithContext(ctx).Model(&models.Sale{}), filter)
	if cursor != nil {
		qb = qb.Where("(sale_time < ?) OR (sale_time = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}

	var rows []models.Sale
	err = qb.Preload("Items").
		Preload("Payments").
		Order("sale_time DESC").
		Order("id DESC").
		Limit(pageSize + 1).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{At: last.SaleTime, ID: last.ID})
	}
	return rows, next, nil
}

// ListInRange returns every sale in [from, to) with items, for reporting.
func (r *Repository) ListInRange(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("sale_time >= ? AND sale_time < ?", from, to).
		Where("status = ?", enums.SaleStatusCompleted).
		Order("sale_time ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *Repository) applyFilter(qb *gorm.DB, filter Filter) *gorm.DB {
	if filter.EmployeeID != nil {
		qb = qb.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Status != nil {
		qb = qb.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		qb = qb.Where("sale_time >= ?", *filter.From)
	}
	if filter.To != nil {
		qb = qb.Where("sale_time < ?", *filter.To)
	}
	return qb
}
