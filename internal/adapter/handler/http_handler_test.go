package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/decantaria/fulfillment/internal/adapter/storage"
	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/core/service"
	"github.com/decantaria/fulfillment/internal/port"
	"github.com/shopspring/decimal"
)

type stubAddresses struct{}

func (stubAddresses) ByPostalCode(ctx context.Context, code string) (*domain.Destination, error) {
	if code == "00000000" {
		return nil, domain.ErrAddressNotFound
	}
	return &domain.Destination{PostalCode: code, Locality: "São Paulo", State: "SP"}, nil
}

type stubGateway struct {
	charge *domain.Charge
	err    error
}

func (g *stubGateway) CreateCharge(ctx context.Context, amount decimal.Decimal, payerEmail, description string) (*domain.Charge, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.charge, nil
}

type stubProvider struct{ offers []domain.Offer }

func (stubProvider) ID() string   { return "pickup" }
func (stubProvider) Name() string { return "Local pickup" }
func (s stubProvider) Quote(ctx context.Context, dest domain.Destination, pkg domain.Package) ([]domain.Offer, error) {
	return s.offers, nil
}

func newTestMux(t *testing.T, gateway port.PaymentGateway) (*http.ServeMux, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	store.AddProduct(domain.Product{
		ID: "decant-10", Name: "Aventus 10ml decant", Price: decimal.RequireFromString("42.50"),
		Stock: 25, Kind: domain.KindDecant, WeightKg: 0.05,
	})
	store.AddProduct(domain.Product{
		ID: "sealed-100", Name: "Aventus 100ml", Price: decimal.RequireFromString("120.00"),
		Stock: 1, Kind: domain.KindSealed, WeightKg: 0.6,
	})

	resolver := service.NewShippingResolver([]port.RateProvider{
		stubProvider{offers: []domain.Offer{
			{ProviderID: "pickup", Service: "Local pickup", Price: decimal.Zero},
		}},
	}, time.Second)
	checkout := service.NewCheckoutService(store, store, nil, nil)

	mux := http.NewServeMux()
	NewHTTPHandler(resolver, checkout, gateway, stubAddresses{}).Register(mux)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func checkoutBody(requestID string, qty int) map[string]any {
	return map[string]any{
		"request_id": requestID,
		"customer":   map[string]any{"name": "Ana", "email": "ana@example.com"},
		"items":      []map[string]any{{"product_id": "decant-10", "quantity": qty}},
		"shipping":   map[string]any{"provider_id": "pickup", "service": "Local pickup", "price": "0"},
	}
}

func TestQuote_ReturnsOffersWithDefault(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	rec := doJSON(t, mux, http.MethodPost, "/api/shipping/quote", map[string]any{
		"postal_code": "01310100",
		"items":       []map[string]any{{"product_id": "decant-10", "quantity": 2}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Offers []struct {
			ProviderID string `json:"provider_id"`
			Price      string `json:"price"`
		} `json:"offers"`
		DefaultIndex        int  `json:"default_index"`
		NoShippingAvailable bool `json:"no_shipping_available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Offers) != 1 || resp.DefaultIndex != 0 || resp.NoShippingAvailable {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Offers[0].Price != "0.00" {
		t.Errorf("expected formatted price, got %q", resp.Offers[0].Price)
	}
}

func TestQuote_UnknownPostalCode(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	rec := doJSON(t, mux, http.MethodPost, "/api/shipping/quote", map[string]any{
		"postal_code": "00000000",
		"items":       []map[string]any{{"product_id": "decant-10", "quantity": 1}},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestQuote_RejectsMissingFields(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	rec := doJSON(t, mux, http.MethodPost, "/api/shipping/quote", map[string]any{
		"postal_code": "01310100",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestCheckout_CreatesSale(t *testing.T) {
	mux, store := newTestMux(t, &stubGateway{})

	rec := doJSON(t, mux, http.MethodPost, "/api/checkout", checkoutBody("req-1", 2))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SaleID string `json:"sale_id"`
		Total  string `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != "85.00" {
		t.Errorf("total %q, want 85.00", resp.Total)
	}

	p, _ := store.GetProduct(context.Background(), "decant-10")
	if p.Stock != 23 {
		t.Errorf("expected stock 23 after checkout, got %d", p.Stock)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	body := checkoutBody("req-2", 1)
	body["items"] = []map[string]any{{"product_id": "sealed-100", "quantity": 2}}

	rec := doJSON(t, mux, http.MethodPost, "/api/checkout", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["product_id"] != "sealed-100" {
		t.Errorf("expected offending product in body, got %v", resp)
	}
}

func TestCheckout_UnknownProduct(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	body := checkoutBody("req-3", 1)
	body["items"] = []map[string]any{{"product_id": "ghost", "quantity": 1}}

	if rec := doJSON(t, mux, http.MethodPost, "/api/checkout", body); rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestCheckout_InvalidShippingPrice(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	body := checkoutBody("req-4", 1)
	body["shipping"] = map[string]any{"provider_id": "pickup", "price": "-5.00"}

	if rec := doJSON(t, mux, http.MethodPost, "/api/checkout", body); rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestGetSale_RoundTrip(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	rec := doJSON(t, mux, http.MethodPost, "/api/checkout", checkoutBody("req-5", 1))
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: %d", rec.Code)
	}
	var created struct {
		SaleID string `json:"sale_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, http.MethodGet, "/api/sales/"+created.SaleID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sale: %d: %s", rec.Code, rec.Body.String())
	}

	var sale struct {
		ID    string `json:"id"`
		Items []struct {
			ProductID string `json:"product_id"`
			UnitPrice string `json:"unit_price"`
		} `json:"items"`
		Total string `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sale); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sale.ID != created.SaleID || len(sale.Items) != 1 || sale.Items[0].UnitPrice != "42.50" {
		t.Errorf("unexpected sale: %+v", sale)
	}

	if rec := doJSON(t, mux, http.MethodGet, "/api/sales/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing sale status %d, want 404", rec.Code)
	}
}

func TestInitiatePayment_ReturnsQR(t *testing.T) {
	gateway := &stubGateway{charge: &domain.Charge{QRText: "pix-payload", QRImageBase64: "aW1n"}}
	mux, _ := newTestMux(t, gateway)

	rec := doJSON(t, mux, http.MethodPost, "/api/checkout", checkoutBody("req-6", 1))
	var created struct {
		SaleID string `json:"sale_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, http.MethodPost, "/api/sales/"+created.SaleID+"/payment", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		QRText string `json:"qr_text"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.QRText != "pix-payload" {
		t.Errorf("unexpected payment response: %+v", resp)
	}
}

func TestInitiatePayment_GatewayNotConfigured(t *testing.T) {
	gateway := &stubGateway{err: domain.ErrNotConfigured}
	mux, _ := newTestMux(t, gateway)

	rec := doJSON(t, mux, http.MethodPost, "/api/checkout", checkoutBody("req-7", 1))
	var created struct {
		SaleID string `json:"sale_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, http.MethodPost, "/api/sales/"+created.SaleID+"/payment", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d, want 503", rec.Code)
	}
}

func TestInitiatePayment_Decline(t *testing.T) {
	gateway := &stubGateway{err: &domain.PaymentError{Status: 422, Message: "payer account blocked"}}
	mux, _ := newTestMux(t, gateway)

	rec := doJSON(t, mux, http.MethodPost, "/api/checkout", checkoutBody("req-8", 1))
	var created struct {
		SaleID string `json:"sale_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, mux, http.MethodPost, "/api/sales/"+created.SaleID+"/payment", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", rec.Code)
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "payer account blocked" {
		t.Errorf("expected gateway message surfaced, got %v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	mux, _ := newTestMux(t, &stubGateway{})

	rec := doJSON(t, mux, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
}
