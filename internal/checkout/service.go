package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/internal/receipts"
	"github.com/angelmondragon/stockpos-backend/internal/sales"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

type settler interface {
	Settle(ctx context.Context, current *cart.Cart, input SettleInput) (*Result, error)
}

// Service settles an employee's stored register cart.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*Result, error)
}

// CheckoutInput is the payment step submitted by the register.
type CheckoutInput struct {
	EmployeeID       uuid.UUID
	RoleID           *uuid.UUID
	PaymentMethod    enums.PaymentMethod
	PaymentReference *string
	CustomerID       *uuid.UUID
}

type service struct {
	carts       cart.Service
	coordinator settler
}

func NewService(carts cart.Service, coordinator settler) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("settlement coordinator required")
	}
	return &service{carts: carts, coordinator: coordinator}, nil
}

// Checkout settles the stored cart while holding the employee's cart lock so
// no concurrent edit can slip in between validation and clearing. A failed
// settlement leaves the stored cart untouched.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*Result, error) {
	var result *Result
	_, err := s.carts.Update(context.WithoutCancel(ctx), input.EmployeeID, func(current *cart.Cart) error {
		res, err := s.coordinator.Settle(ctx, current, SettleInput{
			EmployeeID:       input.EmployeeID,
			RoleID:           input.RoleID,
			PaymentMethod:    input.PaymentMethod,
			PaymentReference: input.PaymentReference,
			CustomerID:       input.CustomerID,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if result == nil {
			return nil, err
		}
		// The sale is committed; only saving the cleared cart failed.
		result.Warnings = append(result.Warnings, Warning{
			Code:    pkgerrors.CodeDependency,
			Message: "sale completed but the cart could not be cleared",
		})
	}
	return result, nil
}

// ResultDTO is the checkout response body.
type ResultDTO struct {
	Sale     sales.SaleDTO     `json:"sale"`
	Receipt  *receipts.Receipt `json:"receipt,omitempty"`
	Warnings []Warning         `json:"warnings"`
}

func NewResultDTO(r *Result) ResultDTO {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []Warning{}
	}
	return ResultDTO{
		Sale:     sales.NewSaleDTO(r.Sale),
		Receipt:  r.Receipt,
		Warnings: warnings,
	}
}
