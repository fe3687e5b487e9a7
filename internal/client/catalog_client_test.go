package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/perfume-store-api/pkg/config"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
)

func newTestCatalog(t *testing.T, handler http.Handler) *Catalog {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCatalog(config.CatalogConfig{BaseURL: server.URL, Timeout: time.Second}, nil)
}

func TestNewCatalogNilWithoutBaseURL(t *testing.T) {
	assert.Nil(t, NewCatalog(config.CatalogConfig{}, nil))
}

func TestCatalogListProducts(t *testing.T) {
	c := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "1", "name": "Midnight Rose", "brand": "Essence", "price": 89.99},
				{"id": "2", "name": "Ocean Breeze", "brand": "Aqua", "price": 64.99},
			},
		})
	}))

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Midnight Rose", products[0].Name)
}

func TestCatalogAcceptOrder(t *testing.T) {
	var gotPath string
	c := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPut, r.Method)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	require.NoError(t, c.AcceptOrder(context.Background(), "ord-1"))
	assert.Equal(t, "/orders/ord-1/accept", gotPath)
}

func TestCatalogUpstreamFailure(t *testing.T) {
	c := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.ListProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestCatalogNotFound(t *testing.T) {
	c := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetProduct(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogEnvelopeFailure(t *testing.T) {
	c := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "catalog offline"})
	}))

	_, err := c.ListProducts(context.Background())
	require.Error(t, err)
	e := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstream.Code, e.Code)
	assert.Equal(t, "catalog offline", e.Message)
}
