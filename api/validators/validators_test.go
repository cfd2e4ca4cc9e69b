package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

type checkoutPayload struct {
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
	Username      string `json:"username,omitempty" validate:"omitempty,username"`
}

func decode(t *testing.T, body string) (checkoutPayload, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest checkoutPayload
	return dest, DecodeJSONBody(req, &dest)
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBodyAcceptsKnownPaymentMethod(t *testing.T) {
	got, err := decode(t, `{"payment_method":"card"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PaymentMethod != "card" {
		t.Fatalf("payment method = %q", got.PaymentMethod)
	}
}

func TestDecodeJSONBodyRejectsUnknownPaymentMethod(t *testing.T) {
	_, err := decode(t, `{"payment_method":"barter"}`)
	details := validationDetails(t, err)
	if !strings.Contains(details["payment_method"], "must be one of") {
		t.Fatalf("details = %v", details)
	}
}

func TestDecodeJSONBodyRejectsBadUsername(t *testing.T) {
	_, err := decode(t, `{"payment_method":"cash","username":"a b"}`)
	if _, ok := validationDetails(t, err)["username"]; !ok {
		t.Fatalf("expected username detail")
	}
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":   ``,
		"unknown": `{"payment_method":"cash","tip":1}`,
		"trailer": `{"payment_method":"cash"}{"payment_method":"cash"}`,
		"large":   `{"payment_method":"` + strings.Repeat("x", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := decode(t, body); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseQueryTimeBareDateIsInclusive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-01", nil)
	from, err := ParseQueryTime(req, "from", false)
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	to, err := ParseQueryTime(req, "to", true)
	if err != nil {
		t.Fatalf("to: %v", err)
	}
	if !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if to.Sub(*from) != 24*time.Hour {
		t.Fatalf("to = %v", to)
	}
}

func TestParseQueryHelpersRejectGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=abc&employee_id=nope&from=yesterday&top=500", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); err == nil {
		t.Fatal("expected limit error")
	}
	if _, err := ParseQueryInt(req, "top", 0, 0, 100); err == nil {
		t.Fatal("expected range error")
	}
	if _, err := ParseQueryUUID(req, "employee_id"); err == nil {
		t.Fatal("expected uuid error")
	}
	if _, err := ParseQueryTime(req, "from", false); err == nil {
		t.Fatal("expected time error")
	}
	if v, err := ParseQueryUUID(req, "missing"); err != nil || v != nil {
		t.Fatalf("missing key = %v, %v", v, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Café   con\tleche  ", 0); got != "Café con leche" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeString("ñandú ñandú", 5); got != "ñandú" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeOptional(ptr("   "), 10); got != nil {
		t.Fatalf("expected nil, got %q", *got)
	}
}

func ptr(s string) *string { return &s }
