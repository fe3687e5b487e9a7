package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/store"
)

// ProductRepository loads and persists the local catalog snapshot used when
// no remote backend is configured.
type ProductRepository struct {
	snapshots store.Snapshots
	key       string
	logger    *zap.Logger
}

// NewProductRepository builds a repository over the given snapshot key.
func NewProductRepository(snapshots store.Snapshots, key string, logger *zap.Logger) *ProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductRepository{snapshots: snapshots, key: key, logger: logger}
}

// Load reads and normalizes the catalog snapshot.
func (r *ProductRepository) Load(ctx context.Context) ([]models.Product, error) {
	records, err := r.snapshots.Load(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load products snapshot: %w", err)
	}

	products := make([]models.Product, 0, len(records))
	for i, record := range records {
		var raw models.RawProduct
		if err := json.Unmarshal(record, &raw); err != nil {
			r.logger.Warn("skipping undecodable product record",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		products = append(products, NormalizeProduct(raw, i))
	}
	return products, nil
}

// Save replaces the catalog snapshot.
func (r *ProductRepository) Save(ctx context.Context, products []models.Product) error {
	records := make([]json.RawMessage, 0, len(products))
	for _, product := range products {
		inStock := product.InStock
		payload, err := json.Marshal(models.RawProduct{
			ID:          product.ID,
			Name:        product.Name,
			Brand:       product.Brand,
			Price:       product.Price,
			ImageURL:    product.ImageURL,
			Description: product.Description,
			Category:    product.Category,
			Rating:      product.Rating,
			Reviews:     product.Reviews,
			InStock:     &inStock,
		})
		if err != nil {
			return fmt.Errorf("marshal product %s: %w", product.ID, err)
		}
		records = append(records, payload)
	}
	if err := r.snapshots.Save(ctx, r.key, records); err != nil {
		return fmt.Errorf("save products snapshot: %w", err)
	}
	return nil
}

// NormalizeProduct fills defaults for a stored catalog record. InStock
// defaults to true when absent.
func NormalizeProduct(raw models.RawProduct, index int) models.Product {
	product := models.Product{
		ID:          raw.ID,
		Name:        raw.Name,
		Brand:       raw.Brand,
		Price:       raw.Price,
		ImageURL:    raw.ImageURL,
		Description: raw.Description,
		Category:    raw.Category,
		Rating:      raw.Rating,
		Reviews:     raw.Reviews,
		InStock:     true,
	}
	if product.ID == "" {
		product.ID = strconv.Itoa(index + 1)
	}
	if raw.InStock != nil {
		product.InStock = *raw.InStock
	}
	return product
}
