package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/shopspring/decimal"
)

func TestCreateCharge_ReturnsQRPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" || r.Method != http.MethodPost {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header %q", got)
		}

		var req chargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Amount != "229.90" {
			t.Errorf("amount %q, want fixed two decimals", req.Amount)
		}
		if req.PayerEmail != "ana@example.com" {
			t.Errorf("payer email %q", req.PayerEmail)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"qr_text":         "00020126pix-payload",
			"qr_image_base64": "aW1hZ2U=",
		})
	}))
	defer srv.Close()

	g := NewPixGateway(PixConfig{BaseURL: srv.URL, Token: "tok"})

	charge, err := g.CreateCharge(context.Background(), decimal.RequireFromString("229.90"), "ana@example.com", "sale sale-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.QRText != "00020126pix-payload" || charge.QRImageBase64 != "aW1hZ2U=" {
		t.Errorf("charge payload mismatch: %+v", charge)
	}
}

func TestCreateCharge_MissingTokenIsNotConfigured(t *testing.T) {
	g := NewPixGateway(PixConfig{BaseURL: "http://unused"})

	_, err := g.CreateCharge(context.Background(), decimal.RequireFromString("10.00"), "ana@example.com", "x")
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateCharge_DeclineIsTypedPaymentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "payer account blocked"})
	}))
	defer srv.Close()

	g := NewPixGateway(PixConfig{BaseURL: srv.URL, Token: "tok"})

	_, err := g.CreateCharge(context.Background(), decimal.RequireFromString("10.00"), "ana@example.com", "x")
	var payErr *domain.PaymentError
	if !errors.As(err, &payErr) {
		t.Fatalf("expected PaymentError, got %v", err)
	}
	if payErr.Status != http.StatusUnprocessableEntity || payErr.Message != "payer account blocked" {
		t.Errorf("unexpected payment error: %+v", payErr)
	}
}

func TestCreateCharge_DeclineWithoutBodyKeepsDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewPixGateway(PixConfig{BaseURL: srv.URL, Token: "tok"})

	_, err := g.CreateCharge(context.Background(), decimal.RequireFromString("10.00"), "ana@example.com", "x")
	var payErr *domain.PaymentError
	if !errors.As(err, &payErr) {
		t.Fatalf("expected PaymentError, got %v", err)
	}
	if payErr.Message != "charge rejected" {
		t.Errorf("expected fallback message, got %q", payErr.Message)
	}
}
