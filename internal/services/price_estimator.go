// internal/services/price_estimator.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ustock-backend/internal/config"
)

// DefaultFallbackPrice is substituted whenever the estimator cannot answer.
var DefaultFallbackPrice = decimal.RequireFromString("3.00")

type PriceRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	ContentSize string `json:"content_size"`
	Category    string `json:"category"`
}

type priceResponse struct {
	Price *json.Number `json:"price"`
}

// PriceEstimatorClient calls the price estimation API. It never returns an
// error: any failure, timeout or non-200 answer yields the fallback price.
type PriceEstimatorClient struct {
	url      string
	client   *http.Client
	fallback decimal.Decimal
}

func NewPriceEstimatorClient(cfg config.PriceEstimatorConfig) *PriceEstimatorClient {
	fallback := DefaultFallbackPrice
	if cfg.FallbackPrice != "" {
		if d, err := decimal.NewFromString(cfg.FallbackPrice); err == nil {
			fallback = d
		} else {
			logrus.WithError(err).WithField("value", cfg.FallbackPrice).
				Warn("Invalid fallback price, using default")
		}
	}

	return &PriceEstimatorClient{
		url:      cfg.URL,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
	}
}

func (c *PriceEstimatorClient) Estimate(ctx context.Context, req PriceRequest) decimal.Decimal {
	log := logrus.WithField("product_name", req.Name)

	price, err := c.estimate(ctx, req)
	if err != nil {
		log.WithError(err).Warn("Price estimation failed, using fallback price")
		return c.fallback
	}

	log.WithField("price", price.StringFixed(2)).Info("Estimated product price")
	return price
}

func (c *PriceEstimatorClient) estimate(ctx context.Context, req PriceRequest) (decimal.Decimal, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to marshal estimate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create estimate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to call price estimator: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read estimate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price estimator returned %d: %s", resp.StatusCode, string(body))
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse estimate response: %w", err)
	}
	if pr.Price == nil {
		return decimal.Zero, fmt.Errorf("estimate response has no price")
	}

	price, err := decimal.NewFromString(pr.Price.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", pr.Price.String(), err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", price)
	}
	return price.Round(2), nil
}
