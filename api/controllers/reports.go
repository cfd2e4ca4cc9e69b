package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/stockpos-backend/api/responses"
	"github.com/angelmondragon/stockpos-backend/api/validators"
	"github.com/angelmondragon/stockpos-backend/internal/reports"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
)

const defaultReportDays = 30

func ReportSales(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseReportRange(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Sales(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func ReportInventory(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Inventory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// ReportEmployees ranks staff over the range; ?sort= is total, transactions, average or name.
func ReportEmployees(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseReportRange(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Employees(r.Context(), reports.EmployeeReportInput{
			RangeInput: input,
			SortBy:     r.URL.Query().Get("sort"),
			Ascending:  strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("order")), "asc"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// parseReportRange defaults to the trailing 30 days ending at the close of today (UTC).
func parseReportRange(r *http.Request, now time.Time) (reports.RangeInput, error) {
	var input reports.RangeInput

	top, err := validators.ParseQueryInt(r, "top", 0, 0, 100)
	if err != nil {
		return input, err
	}
	input.Top = top

	from, err := validators.ParseQueryTime(r, "from", false)
	if err != nil {
		return input, err
	}
	to, err := validators.ParseQueryTime(r, "to", true)
	if err != nil {
		return input, err
	}

	if to != nil {
		input.To = *to
	} else {
		y, m, d := now.UTC().Date()
		input.To = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}
	if from != nil {
		input.From = *from
	} else {
		input.From = input.To.AddDate(0, 0, -defaultReportDays)
	}
	return input, nil
}
