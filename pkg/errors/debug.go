package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE codes the register path cares about.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// constraintFields maps unique indexes to the request field they guard.
var constraintFields = map[string]string{
	"idx_products_code":        "code",
	"idx_products_barcode":     "barcode",
	"idx_categories_name":      "name",
	"idx_suppliers_name":       "name",
	"idx_employees_username":   "username",
	"idx_roles_name":           "name",
	"idx_sales_receipt_number": "receipt_number",
}

// ErrorDump is a flattened view of an error for structured logs.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Field is the request field behind a known unique index.
	Field string `json:"field,omitempty"`
	// Transient marks serialization failures and deadlocks.
	Transient bool `json:"transient,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode, d.PGConstraint = pgxErr.Code, pgxErr.ConstraintName
		d.PGTable, d.PGColumn = pgxErr.TableName, pgxErr.ColumnName
		d.PGDetail, d.PGMessage = pgxErr.Detail, pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode, d.PGConstraint = string(pqErr.Code), pqErr.Constraint
		d.PGTable, d.PGColumn = pqErr.Table, pqErr.Column
		d.PGDetail, d.PGMessage = pqErr.Detail, pqErr.Message
	default:
		return d
	}

	if d.PGCode == pgUniqueViolation {
		d.Field = constraintFields[d.PGConstraint]
	}
	d.Transient = d.PGCode == pgSerializationFailure || d.PGCode == pgDeadlockDetected
	return d
}

// LogFields renders the dump for logger.WithFields, omitting empty pg fields.
func (d ErrorDump) LogFields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.PGCode == "" {
		return fields
	}
	fields["pg_code"] = d.PGCode
	fields["pg_message"] = d.PGMessage
	for key, val := range map[string]string{
		"pg_detail":     d.PGDetail,
		"pg_table":      d.PGTable,
		"pg_column":     d.PGColumn,
		"pg_constraint": d.PGConstraint,
		"pg_field":      d.Field,
	} {
		if val != "" {
			fields[key] = val
		}
	}
	if d.Transient {
		fields["pg_transient"] = true
	}
	return fields
}
