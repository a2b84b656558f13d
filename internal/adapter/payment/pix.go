package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/shopspring/decimal"
)

type PixConfig struct {
	BaseURL string
	Token   string
}

// PixGateway opens QR-code instant-payment charges against the processor's
// HTTP API. It only knows the request/response contract; no vendor SDK types
// leak past this boundary.
type PixGateway struct {
	cfg   PixConfig
	httpc *http.Client
}

func NewPixGateway(cfg PixConfig) *PixGateway {
	return &PixGateway{
		cfg: cfg,
		httpc: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

type chargeRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	PayerEmail  string `json:"payer_email"`
}

type chargeResponse struct {
	QRText        string `json:"qr_text"`
	QRImageBase64 string `json:"qr_image_base64"`
}

type chargeError struct {
	Message string `json:"message"`
}

// CreateCharge opens a payment session for amount. A missing credential is a
// typed configuration error, distinguishable from a payment decline.
func (g *PixGateway) CreateCharge(ctx context.Context, amount decimal.Decimal, payerEmail, description string) (*domain.Charge, error) {
	if g.cfg.Token == "" {
		return nil, fmt.Errorf("pix gateway: %w", domain.ErrNotConfigured)
	}

	body, err := json.Marshal(chargeRequest{
		Amount:      amount.StringFixed(2),
		Description: description,
		PayerEmail:  payerEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := chargeError{Message: "charge rejected"}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, &domain.PaymentError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	var parsed chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	return &domain.Charge{
		QRText:        parsed.QRText,
		QRImageBase64: parsed.QRImageBase64,
	}, nil
}
