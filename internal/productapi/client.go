// Package productapi is the HTTP client for the remote product service.
package productapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the product service's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client rooted at baseURL (e.g. "http://host/api").
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "product-api").Logger(),
	}
}

// ListProducts retrieves the full product list.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	c.logger.Debug().Int("count", len(products)).Msg("retrieved products")
	return products, nil
}

// GetProduct retrieves a single product. A 404 maps to model.ErrProductNotFound.
func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, &product); err != nil {
		if isNotFound(err) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// CreateProduct creates a product and returns the stored version.
func (c *Client) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	payload := *product
	payload.ID = 0

	var created model.Product
	if err := c.do(ctx, http.MethodPost, "/products", &payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	c.logger.Info().Int64("product_id", created.ID).Str("name", created.Name).Msg("product created")
	return &created, nil
}

// UpdateProduct replaces product id and returns the stored version.
func (c *Client) UpdateProduct(ctx context.Context, id int64, product *model.Product) (*model.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	payload := *product
	payload.ID = id

	var updated model.Product
	if err := c.do(ctx, http.MethodPut, productPath(id), &payload, &updated); err != nil {
		if isNotFound(err) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	if updated.ID == 0 {
		updated = payload
	}

	c.logger.Info().Int64("product_id", id).Msg("product updated")
	return &updated, nil
}

// DeleteProduct deletes product id.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, productPath(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	c.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("product API request failed")
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("product API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

func isNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.StatusCode == http.StatusNotFound
}
