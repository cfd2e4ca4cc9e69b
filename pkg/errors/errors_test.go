package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeEmptyCart, status: http.StatusUnprocessableEntity, publicMsg: "cart is empty", detailsOK: true},
		{code: CodeOutOfStock, status: http.StatusConflict, publicMsg: "product is out of stock", retryable: true, detailsOK: true},
		{code: CodeStockExceeded, status: http.StatusConflict, publicMsg: "requested quantity exceeds stock", retryable: true, detailsOK: true},
		{code: CodeProductMissing, status: http.StatusConflict, publicMsg: "product no longer exists", retryable: true, detailsOK: true},
		{code: CodeDuplicateReceipt, status: http.StatusConflict, publicMsg: "receipt number collision", retryable: true},
		{code: CodePersistenceFailure, status: http.StatusServiceUnavailable, publicMsg: "sale could not be saved", retryable: true, detailsOK: true},
		{code: CodeReceiptRenderFailure, status: http.StatusInternalServerError, publicMsg: "receipt could not be rendered"},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsAndRetryableFollowWrappedChain(t *testing.T) {
	inner := New(CodeStockExceeded, "not enough")
	outer := fmt.Errorf("settle: %w", inner)

	if !Is(outer, CodeStockExceeded) {
		t.Fatalf("expected Is to find wrapped code")
	}
	if Is(outer, CodeEmptyCart) {
		t.Fatalf("unexpected code match")
	}
	if !Retryable(outer) {
		t.Fatalf("stock exceeded should be retryable")
	}
	if Retryable(New(CodeEmptyCart, "empty")) {
		t.Fatalf("empty cart should not be retryable")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodePersistenceFailure, stdErrors.New("disk full"), "append sale")
	d := Dump(err)
	if d.Code != CodePersistenceFailure {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
	if Dump(nil).TopMessage != "" {
		t.Fatalf("expected empty dump for nil")
	}
}

func TestDumpMapsUniqueIndexToField(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_sales_receipt_number", TableName: "sales"}
	d := Dump(Wrap(CodeDuplicateReceipt, pgErr, "append sale"))
	if d.Field != "receipt_number" || d.PGTable != "sales" {
		t.Fatalf("unexpected dump %+v", d)
	}
	fields := d.LogFields()
	if fields["pg_field"] != "receipt_number" {
		t.Fatalf("expected pg_field in log fields, got %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty pg fields should be omitted")
	}
}

func TestDumpFlagsTransientFailures(t *testing.T) {
	d := Dump(&pgconn.PgError{Code: "40P01"})
	if !d.Transient {
		t.Fatalf("deadlock should be transient")
	}
	if _, ok := Dump(stdErrors.New("plain")).LogFields()["pg_code"]; ok {
		t.Fatalf("non-pg errors should not carry pg fields")
	}
}
