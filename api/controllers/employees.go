package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/api/responses"
	"github.com/angelmondragon/stockpos-backend/api/validators"
	"github.com/angelmondragon/stockpos-backend/internal/employees"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
)

type createEmployeeRequest struct {
	Username  string     `json:"username" validate:"required,min=3,max=64,username"`
	Password  string     `json:"password" validate:"required,min=8"`
	FirstName string     `json:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" validate:"required,max=100"`
	Email     *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	RoleID    uuid.UUID  `json:"role_id" validate:"required"`
	HiredAt   *time.Time `json:"hired_at,omitempty"`
}

type roleRequest struct {
	Name        string   `json:"name" validate:"required,max=50"`
	Description *string  `json:"description,omitempty"`
	Permissions []string `json:"permissions" validate:"required,dive,required"`
}

func (r roleRequest) toInput() employees.RoleInput {
	return employees.RoleInput{
		Name:        validators.SanitizeString(r.Name, 50),
		Description: validators.SanitizeOptional(r.Description, 200),
		Permissions: r.Permissions,
	}
}

// EmployeeList returns active staff; ?include_inactive=true adds deactivated accounts.
func EmployeeList(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := false
		if raw := strings.TrimSpace(r.URL.Query().Get("include_inactive")); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid include_inactive"))
				return
			}
			includeInactive = parsed
		}
		list, err := svc.ListEmployees(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func EmployeeGet(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		employee, err := svc.GetEmployee(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, employee)
	}
}

func EmployeeCreate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createEmployeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		employee, err := svc.CreateEmployee(r.Context(), employees.CreateEmployeeInput{
			Username:  payload.Username,
			Password:  payload.Password,
			FirstName: validators.SanitizeString(payload.FirstName, 100),
			LastName:  validators.SanitizeString(payload.LastName, 100),
			Email:     payload.Email,
			Phone:     validators.SanitizeOptional(payload.Phone, 32),
			RoleID:    payload.RoleID,
			HiredAt:   payload.HiredAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, employee)
	}
}

// EmployeeDeactivate disables the account; sales history keeps pointing at it.
func EmployeeDeactivate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if self, err := employeeFromContext(r); err == nil && self == id {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot deactivate your own account"))
			return
		}
		if err := svc.DeactivateEmployee(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RoleList(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles, err := svc.ListRoles(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, roles)
	}
}

func RoleGet(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.GetRole(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, role)
	}
}

func RoleCreate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload roleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.CreateRole(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, role)
	}
}

func RoleUpdate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload roleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := svc.UpdateRole(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, role)
	}
}

func RoleDelete(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "roleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteRole(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
