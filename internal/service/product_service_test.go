package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/perfume-store-api/internal/models"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
)

type mockProductRepo struct {
	products []models.Product
	saveErr  error
	saves    int
}

func (m *mockProductRepo) Load(_ context.Context) ([]models.Product, error) {
	return append([]models.Product{}, m.products...), nil
}

func (m *mockProductRepo) Save(_ context.Context, products []models.Product) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.products = append([]models.Product{}, products...)
	m.saves++
	return nil
}

func TestProductServiceSeedsCatalogOnEmptyStore(t *testing.T) {
	repo := &mockProductRepo{}
	svc := NewProductService(ProductServiceConfig{Repo: repo})

	products, err := svc.List(context.Background())
	require.NoError(t, err)

	require.Len(t, products, 8)
	assert.Equal(t, "Midnight Rose", products[0].Name)
	assert.Equal(t, "Urban Explorer", products[7].Name)
	assert.Equal(t, 1, repo.saves, "seed is written back")
}

func TestProductServiceFeaturedAndNewArrivals(t *testing.T) {
	svc := NewProductService(ProductServiceConfig{Repo: &mockProductRepo{}})

	featured, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 4)
	assert.Equal(t, "1", featured[0].ID)
	assert.Equal(t, "4", featured[3].ID)

	arrivals, err := svc.NewArrivals(context.Background())
	require.NoError(t, err)
	require.Len(t, arrivals, 4)
	assert.Equal(t, "5", arrivals[0].ID)
	assert.Equal(t, "8", arrivals[3].ID)
}

func TestProductServiceGet(t *testing.T) {
	svc := NewProductService(ProductServiceConfig{Repo: &mockProductRepo{}})

	product, err := svc.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Royal Oak", product.Name)

	_, err = svc.Get(context.Background(), "999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProductServiceCreate(t *testing.T) {
	repo := &mockProductRepo{}
	notifier := &recordingNotifier{}
	svc := NewProductService(ProductServiceConfig{Repo: repo, Notifier: notifier})

	product, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "Amber Nights", Brand: "Test Brand", Price: 99.99, Category: "unisex",
	})
	require.NoError(t, err)

	assert.Equal(t, "9", product.ID, "next id after the seeded catalog")
	assert.True(t, product.InStock)
	assert.Contains(t, notifier.all(), "Product added successfully!")

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 9)
}

func TestProductServiceCreateValidation(t *testing.T) {
	svc := NewProductService(ProductServiceConfig{Repo: &mockProductRepo{}})

	_, err := svc.Create(context.Background(), CreateProductRequest{Name: "No Brand", Price: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateProductRequest{
		Name: "Free", Brand: "B", Price: 0,
	})
	require.Error(t, err, "price must be positive")
}

func TestProductServiceDelete(t *testing.T) {
	repo := &mockProductRepo{}
	notifier := &recordingNotifier{}
	svc := NewProductService(ProductServiceConfig{Repo: repo, Notifier: notifier})

	require.NoError(t, svc.Delete(context.Background(), "1"))

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 7)
	assert.Contains(t, notifier.all(), "Product deleted successfully!")

	err = svc.Delete(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProductServiceSearchLocal(t *testing.T) {
	svc := NewProductService(ProductServiceConfig{Repo: &mockProductRepo{}})

	matched, err := svc.SearchLocal(context.Background(), "rose")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Midnight Rose", matched[0].Name)

	matched, err = svc.SearchLocal(context.Background(), "scents")
	require.NoError(t, err)
	assert.Len(t, matched, 3, "brand names match too")

	matched, err = svc.SearchLocal(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, matched, 8)
}
