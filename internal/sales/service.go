package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/internal/receipts"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

type receiptRenderer interface {
	Render(ctx context.Context, sale *models.Sale) (*receipts.Receipt, error)
}

// Service exposes read access to recorded sales.
type Service interface {
	List(ctx context.Context, filter Filter) (*SaleListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error)
	Receipt(ctx context.Context, id uuid.UUID) (*receipts.Receipt, error)
}

type service struct {
	repo     *Repository
	renderer receiptRenderer
}

func NewService(repo *Repository, renderer receiptRenderer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("receipt renderer required")
	}
	return &service{repo: repo, renderer: renderer}, nil
}

func (s *service) List(ctx context.Context, filter Filter) (*SaleListResult, error) {
	if _, err := pagination.ParseCursor(filter.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	rows, next, err := s.repo.ListSales(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	out := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewSaleDTO(&rows[i]))
	}
	return &SaleListResult{Sales: out, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error) {
	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewSaleDTO(sale)
	return &dto, nil
}

// Receipt re-renders the receipt for a recorded sale.
func (s *service) Receipt(ctx context.Context, id uuid.UUID) (*receipts.Receipt, error) {
	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt, err := s.renderer.Render(ctx, sale)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeReceiptRenderFailure, err, "render receipt")
	}
	return receipt, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}
