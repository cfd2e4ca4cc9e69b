package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/api/middleware"
	"github.com/angelmondragon/stockpos-backend/api/responses"
	"github.com/angelmondragon/stockpos-backend/api/validators"
	"github.com/angelmondragon/stockpos-backend/internal/checkout"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
)

type checkoutRequest struct {
	PaymentMethod    string     `json:"payment_method" validate:"required,payment_method"`
	PaymentReference *string    `json:"payment_reference,omitempty" validate:"omitempty,max=128"`
	CustomerID       *uuid.UUID `json:"customer_id,omitempty"`
}

// Checkout settles the employee's cart into a sale.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		employeeID, err := employeeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
				WithDetails(map[string]any{"field": "payment_method"}))
			return
		}

		input := checkout.CheckoutInput{
			EmployeeID:       employeeID,
			PaymentMethod:    method,
			PaymentReference: payload.PaymentReference,
			CustomerID:       payload.CustomerID,
		}
		if roleID, ok := middleware.RoleIDFromContext(r.Context()); ok {
			input.RoleID = &roleID
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithSaleID(r.Context(), result.Sale.ID.String())
			logg.Info(ctx, "checkout.completed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkout.NewResultDTO(result))
	}
}
