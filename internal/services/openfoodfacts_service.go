// internal/services/openfoodfacts_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/models"
)

// MaxSearchResults caps external free-text search results.
const MaxSearchResults = 10

// ProductInfo is what the external catalog knows about a barcode.
type ProductInfo struct {
	Barcode     string
	Name        string
	Brand       string
	ContentSize string
	Nutriscore  string
	ImageURL    string
	Category    string
}

// OpenFoodFactsClient talks to the Open Food Facts public API. Calls are
// bounded by the client timeout and throttled client-side, as the service
// asks API consumers to do.
type OpenFoodFactsClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

type offProduct struct {
	Code            string `json:"code"`
	ProductName     string `json:"product_name"`
	Brands          string `json:"brands"`
	Quantity        string `json:"quantity"`
	NutriscoreGrade string `json:"nutriscore_grade"`
	ImageFrontURL   string `json:"image_front_url"`
	ImageURL        string `json:"image_url"`
	Categories      string `json:"categories"`
}

type offProductResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

func NewOpenFoodFactsClient(cfg config.OpenFoodFactsConfig) *OpenFoodFactsClient {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &OpenFoodFactsClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// Lookup fetches a single product by barcode. A barcode the catalog does not
// know yields ErrNotFound; transport failures yield ErrUpstreamUnavailable.
func (c *OpenFoodFactsClient) Lookup(ctx context.Context, barcode string) (*ProductInfo, error) {
	const op = "openfoodfacts.Lookup"

	u := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, wrapError(KindUpstreamUnavailable, op, "product lookup failed", err)
	}
	if status == http.StatusNotFound {
		return nil, newError(KindNotFound, op, "product not found in external catalog")
	}
	if status != http.StatusOK {
		return nil, wrapError(KindUpstreamUnavailable, op, "product lookup failed",
			fmt.Errorf("unexpected status %d", status))
	}

	var pr offProductResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, wrapError(KindUpstreamUnavailable, op, "product lookup failed",
			fmt.Errorf("failed to parse response: %w", err))
	}
	if pr.Status == 0 || pr.Product == nil || strings.TrimSpace(pr.Product.ProductName) == "" {
		return nil, newError(KindNotFound, op, "product not found in external catalog")
	}

	p := pr.Product
	image := p.ImageFrontURL
	if image == "" {
		image = p.ImageURL
	}
	return &ProductInfo{
		Barcode:     barcode,
		Name:        strings.TrimSpace(p.ProductName),
		Brand:       strings.TrimSpace(p.Brands),
		ContentSize: strings.TrimSpace(p.Quantity),
		Nutriscore:  p.NutriscoreGrade,
		ImageURL:    image,
		Category:    firstCategory(p.Categories),
	}, nil
}

// Search runs a free-text search and returns at most limit hits.
func (c *OpenFoodFactsClient) Search(ctx context.Context, query string, limit int) ([]models.ProductSummary, error) {
	const op = "openfoodfacts.Search"

	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", fmt.Sprint(limit))

	body, status, err := c.get(ctx, c.baseURL+"/cgi/search.pl?"+params.Encode())
	if err != nil {
		return nil, wrapError(KindUpstreamUnavailable, op, "product search failed", err)
	}
	if status != http.StatusOK {
		return nil, wrapError(KindUpstreamUnavailable, op, "product search failed",
			fmt.Errorf("unexpected status %d", status))
	}

	var sr offSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, wrapError(KindUpstreamUnavailable, op, "product search failed",
			fmt.Errorf("failed to parse response: %w", err))
	}

	results := make([]models.ProductSummary, 0, limit)
	for _, p := range sr.Products {
		if len(results) == limit {
			break
		}
		results = append(results, models.ProductSummary{
			Barcode:     p.Code,
			ProductName: p.ProductName,
			Brand:       p.Brands,
			ContentSize: p.Quantity,
			Nutriscore:  p.NutriscoreGrade,
			ImageURL:    p.ImageURL,
		})
	}
	return results, nil
}

func (c *OpenFoodFactsClient) get(ctx context.Context, u string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call Open Food Facts: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read Open Food Facts response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// firstCategory picks the first entry of the comma separated category list.
func firstCategory(categories string) string {
	first, _, _ := strings.Cut(categories, ",")
	return strings.TrimSpace(first)
}
