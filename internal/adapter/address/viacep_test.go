package address

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

func TestByPostalCode_ResolvesDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/01310100/json/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"cep":        "01310-100",
			"logradouro": "Avenida Paulista",
			"localidade": "São Paulo",
			"uf":         "SP",
		})
	}))
	defer srv.Close()

	c := NewViaCEPClient(srv.URL)

	dest, err := c.ByPostalCode(context.Background(), "01310-100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.PostalCode != "01310100" || dest.Locality != "São Paulo" || dest.State != "SP" || dest.Street != "Avenida Paulista" {
		t.Errorf("unexpected destination: %+v", dest)
	}
}

func TestByPostalCode_MalformedCode(t *testing.T) {
	c := NewViaCEPClient("http://unused")

	for _, code := range []string{"", "123", "123456789"} {
		if _, err := c.ByPostalCode(context.Background(), code); !errors.Is(err, domain.ErrAddressNotFound) {
			t.Errorf("%q: expected ErrAddressNotFound, got %v", code, err)
		}
	}
}

func TestByPostalCode_UnknownCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ViaCEP signals unknown codes with a 200 and an erro flag
		json.NewEncoder(w).Encode(map[string]any{"erro": true})
	}))
	defer srv.Close()

	c := NewViaCEPClient(srv.URL)

	if _, err := c.ByPostalCode(context.Background(), "99999999"); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestByPostalCode_BadRequestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewViaCEPClient(srv.URL)

	if _, err := c.ByPostalCode(context.Background(), "00000000"); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("expected ErrAddressNotFound, got %v", err)
	}
}
