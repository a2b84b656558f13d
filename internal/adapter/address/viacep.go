package address

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/decantaria/fulfillment/internal/core/domain"
)

const DefaultBaseURL = "https://viacep.com.br"

// ViaCEPClient resolves postal codes through the public ViaCEP lookup.
// An unknown code is domain.ErrAddressNotFound, never a provider error.
type ViaCEPClient struct {
	baseURL string
	httpc   *http.Client
}

func NewViaCEPClient(baseURL string) *ViaCEPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ViaCEPClient{
		baseURL: baseURL,
		httpc:   &http.Client{},
	}
}

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	Erro       bool   `json:"erro"`
}

func (c *ViaCEPClient) ByPostalCode(ctx context.Context, code string) (*domain.Destination, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "-", "")
	if len(code) != 8 {
		return nil, domain.ErrAddressNotFound
	}

	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postal code lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrAddressNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postal code lookup returned status %s", resp.Status)
	}

	var parsed viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if parsed.Erro {
		return nil, domain.ErrAddressNotFound
	}

	return &domain.Destination{
		PostalCode: code,
		Street:     parsed.Logradouro,
		Locality:   parsed.Localidade,
		State:      parsed.UF,
	}, nil
}
