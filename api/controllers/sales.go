package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/stockpos-backend/api/responses"
	"github.com/angelmondragon/stockpos-backend/api/validators"
	"github.com/angelmondragon/stockpos-backend/internal/sales"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/pagination"
)

// SaleList pages through recorded sales with optional employee, status and date filters.
func SaleList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseSaleFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, result.Sales, result.NextCursor)
	}
}

func SaleGet(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

// SaleReceipt re-renders the printable receipt. JSON is returned when the client asks for it.
func SaleReceipt(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		receipt, err := svc.Receipt(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.Contains(r.Header.Get("Accept"), "application/json") {
			responses.WriteSuccess(w, receipt)
			return
		}
		responses.WriteText(w, http.StatusOK, receipt.Body)
	}
}

func parseSaleFilter(r *http.Request) (sales.Filter, error) {
	var filter sales.Filter

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filter, err
	}
	filter.Pagination = pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}

	if filter.EmployeeID, err = validators.ParseQueryUUID(r, "employee_id"); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseSaleStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"field": "status"})
		}
		filter.Status = &status
	}
	if filter.From, err = validators.ParseQueryTime(r, "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = validators.ParseQueryTime(r, "to", true); err != nil {
		return filter, err
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	return filter, nil
}
