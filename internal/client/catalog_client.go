// Package client talks to the remote catalog backend when one is configured.
// Every failure maps to an upstream error; the services decide whether a
// local snapshot can serve instead.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/pkg/config"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
)

// envelope is the wire shape the catalog backend responds with.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Catalog is an HTTP client for the remote products and orders API.
type Catalog struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewCatalog builds a client, or nil when no base URL is configured so
// callers can fall back to the local snapshot.
func NewCatalog(cfg config.CatalogConfig, logger *zap.Logger) *Catalog {
	if cfg.BaseURL == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Catalog{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListProducts fetches the full catalog.
func (c *Catalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product by id.
func (c *Catalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct registers a new product.
func (c *Catalog) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	var created models.Product
	if err := c.do(ctx, http.MethodPost, "/products", product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteProduct removes a product.
func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// ListOrders fetches all orders.
func (c *Catalog) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder submits a new order.
func (c *Catalog) CreateOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	var created models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AcceptOrder transitions an order to accepted on the backend.
func (c *Catalog) AcceptOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/accept", nil, nil)
}

// RejectOrder transitions an order to rejected on the backend.
func (c *Catalog) RejectOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/reject", nil, nil)
}

// do performs one request and decodes the envelope. No retries; a flaky
// upstream surfaces to the caller immediately.
func (c *Catalog) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "build catalog request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return appErrors.Clone(appErrors.ErrUpstream,
			fmt.Sprintf("catalog responded with status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode catalog response")
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = appErrors.ErrUpstream.Message
		}
		return appErrors.Clone(appErrors.ErrUpstream, message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode catalog payload")
	}
	return nil
}
