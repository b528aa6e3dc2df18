package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// productProjection flattens slug and image references so documents decode straight into sanityProduct.
const productProjection = `{_id, name, "slug": slug.current, price, "images": image[].asset._ref, details, ingredients, weight, delivery, sku}`

const (
	queryAllProducts   = `*[_type == "product"]` + productProjection
	queryProductBySlug = `*[_type == "product" && slug.current == $slug][0]` + productProjection
	queryProductByID   = `*[_type == "product" && _id == $id][0]` + productProjection
)

type SanityConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool

	// BaseURL overrides the project host, e.g. for tests.
	BaseURL       string
	HTTPClient    *http.Client
	MaxTries      uint
	RetryInterval time.Duration
}

// Sanity queries the Sanity content lake over its HTTP query API.
type Sanity struct {
	cfg    SanityConfig
	base   string
	client *http.Client
	logger *zap.Logger
}

// QueryError is a non-retryable response from the query API.
type QueryError struct {
	StatusCode int
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("sanity query failed (%d): %s", e.StatusCode, e.Body)
}

func NewSanity(cfg SanityConfig, logger *zap.Logger) (*Sanity, error) {
	if cfg.ProjectID == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("sanity project id is required")
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-12-16"
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 4
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 250 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	base := cfg.BaseURL
	if base == "" {
		host := "api"
		if cfg.UseCDN {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host)
	}

	return &Sanity{
		cfg:    cfg,
		base:   strings.TrimRight(base, "/"),
		client: client,
		logger: logger,
	}, nil
}

type sanityProduct struct {
	ID          string              `json:"_id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Price       decimal.NullDecimal `json:"price"`
	Images      []string            `json:"images"`
	Details     text                `json:"details"`
	Ingredients text                `json:"ingredients"`
	Weight      text                `json:"weight"`
	Delivery    text                `json:"delivery"`
	SKU         text                `json:"sku"`
}

func (d sanityProduct) product() Product {
	return Product{
		ID:          d.ID,
		Name:        d.Name,
		Slug:        d.Slug,
		Price:       d.Price,
		Images:      d.Images,
		Details:     string(d.Details),
		Ingredients: string(d.Ingredients),
		Weight:      string(d.Weight),
		Delivery:    string(d.Delivery),
		SKU:         string(d.SKU),
	}
}

func (s *Sanity) Products(ctx context.Context) ([]Product, error) {
	var docs []sanityProduct
	if _, err := s.query(ctx, queryAllProducts, nil, &docs); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.product())
	}
	return products, nil
}

func (s *Sanity) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.one(ctx, queryProductBySlug, map[string]any{"slug": slug}, slug)
}

func (s *Sanity) ProductByID(ctx context.Context, id string) (Product, error) {
	return s.one(ctx, queryProductByID, map[string]any{"id": id}, id)
}

func (s *Sanity) one(ctx context.Context, groq string, params map[string]any, key string) (Product, error) {
	var doc sanityProduct
	found, err := s.query(ctx, groq, params, &doc)
	if err != nil {
		return Product{}, err
	}
	if !found {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, key)
	}
	return doc.product(), nil
}

// query runs groq and decodes the result into out. It reports false when the result is null.
func (s *Sanity) query(ctx context.Context, groq string, params map[string]any, out any) (bool, error) {
	u, err := s.queryURL(groq, params)
	if err != nil {
		return false, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryInterval

	operation := func() (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if s.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			s.logger.Warn("sanity query failed, retrying", zap.Error(err))
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			s.logger.Warn("sanity query failed, retrying", zap.Int("status", resp.StatusCode))
			return nil, &QueryError{StatusCode: resp.StatusCode, Body: string(body)}
		case resp.StatusCode != http.StatusOK:
			return nil, backoff.Permanent(&QueryError{StatusCode: resp.StatusCode, Body: string(body)})
		}

		var envelope struct {
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to parse sanity response: %w", err))
		}
		return envelope.Result, nil
	}

	raw, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(s.cfg.MaxTries))
	if err != nil {
		return false, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode sanity result: %w", err)
	}
	return true, nil
}

func (s *Sanity) queryURL(groq string, params map[string]any) (string, error) {
	q := url.Values{}
	q.Set("query", groq)
	for name, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode query param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}
	return fmt.Sprintf("%s/v%s/data/query/%s?%s", s.base, s.cfg.APIVersion, url.PathEscape(s.cfg.Dataset), q.Encode()), nil
}
