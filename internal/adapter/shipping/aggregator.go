package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/port"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	ServiceEconomy = "economy"
	ServiceExpress = "express"

	quoteCacheTTL = 10 * time.Minute
)

// retained is the subset of aggregator service codes the resolver keeps;
// everything else in the response is discarded.
var retained = map[string]string{
	ServiceEconomy: "Economy",
	ServiceExpress: "Express",
}

type AggregatorConfig struct {
	BaseURL          string
	Token            string
	OriginPostalCode string
}

// Aggregator quotes through a national carrier aggregator's rate API.
// A missing credential degrades to a "not configured" error offer upstream
// rather than failing the whole resolution.
type Aggregator struct {
	cfg   AggregatorConfig
	httpc *http.Client
	cache port.CacheRepository // optional
}

func NewAggregator(cfg AggregatorConfig, cache port.CacheRepository) *Aggregator {
	return &Aggregator{
		cfg: cfg,
		httpc: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		cache: cache,
	}
}

func (*Aggregator) ID() string   { return "aggregator" }
func (*Aggregator) Name() string { return "National carrier" }

type rateRequest struct {
	OriginPostalCode      string   `json:"origin_postal_code"`
	DestinationPostalCode string   `json:"destination_postal_code"`
	WeightKg              float64  `json:"weight_kg"`
	LengthCm              int      `json:"length_cm"`
	WidthCm               int      `json:"width_cm"`
	HeightCm              int      `json:"height_cm"`
	Services              []string `json:"services"`
}

type rateResponse struct {
	Rates []struct {
		Service      string `json:"service"`
		Price        string `json:"price"`
		DeliveryDays int    `json:"delivery_days"`
	} `json:"rates"`
}

type rateError struct {
	Message string `json:"message"`
}

func (a *Aggregator) Quote(ctx context.Context, dest domain.Destination, pkg domain.Package) ([]domain.Offer, error) {
	if a.cfg.Token == "" {
		return nil, fmt.Errorf("%s: %w", a.ID(), domain.ErrNotConfigured)
	}

	cacheKey := "rates:" + dest.PostalCode + ":" + strconv.FormatFloat(pkg.WeightKg, 'f', 3, 64)
	if a.cache != nil {
		if offers, ok, err := a.cache.GetQuotes(ctx, cacheKey); err == nil && ok {
			return offers, nil
		} else if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("quote cache read failed")
		}
	}

	body, err := json.Marshal(rateRequest{
		OriginPostalCode:      a.cfg.OriginPostalCode,
		DestinationPostalCode: dest.PostalCode,
		WeightKg:              pkg.WeightKg,
		LengthCm:              pkg.LengthCm,
		WidthCm:               pkg.WidthCm,
		HeightCm:              pkg.HeightCm,
		Services:              []string{ServiceEconomy, ServiceExpress},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/api/v1/rates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr rateError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("aggregator returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("aggregator returned status %s", resp.Status)
	}

	var parsed rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}

	offers := make([]domain.Offer, 0, len(retained))
	for _, rate := range parsed.Rates {
		label, keep := retained[rate.Service]
		if !keep {
			continue
		}
		price, err := decimal.NewFromString(rate.Price)
		if err != nil || price.IsNegative() {
			zerolog.Ctx(ctx).Warn().
				Str("service", rate.Service).
				Str("price", rate.Price).
				Msg("dropping rate with unparseable price")
			continue
		}
		offers = append(offers, domain.Offer{
			ProviderID:   a.ID(),
			Service:      label,
			Price:        price,
			DeliveryDays: rate.DeliveryDays,
		})
	}

	if a.cache != nil && len(offers) > 0 {
		if err := a.cache.SetQuotes(ctx, cacheKey, offers, quoteCacheTTL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("quote cache write failed")
		}
	}
	return offers, nil
}
