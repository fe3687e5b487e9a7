package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
	"github.com/noah-isme/perfume-store-api/pkg/notify"
)

type productRepository interface {
	Load(ctx context.Context) ([]models.Product, error)
	Save(ctx context.Context, products []models.Product) error
}

// productRemote covers the catalog backend calls. When nil, the service
// serves the local snapshot, seeded with the built-in catalog on first use.
type productRemote interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CreateProductRequest is the admin payload for registering a product.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Brand       string  `json:"brand" validate:"required"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,url"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"omitempty,oneof=men women unisex"`
}

const featuredCount = 4

// ProductService serves the catalog: remote-backed when a backend is
// configured, local snapshot otherwise.
type ProductService struct {
	repo      productRepository
	remote    productRemote
	validator *validator.Validate
	logger    *zap.Logger
	notifier  notify.Notifier
	metrics   *MetricsService

	mu       sync.Mutex
	products []models.Product
	loaded   bool
}

// ProductServiceConfig wires the service's collaborators. Remote may be nil.
type ProductServiceConfig struct {
	Repo      productRepository
	Remote    productRemote
	Validator *validator.Validate
	Logger    *zap.Logger
	Notifier  notify.Notifier
	Metrics   *MetricsService
}

// NewProductService creates an instance of ProductService.
func NewProductService(cfg ProductServiceConfig) *ProductService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	return &ProductService{
		repo:      cfg.Repo,
		remote:    cfg.Remote,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
	}
}

// List returns the whole catalog.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	if s.remote != nil {
		return s.remote.ListProducts(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]models.Product{}, s.products...), nil
}

// Featured returns the storefront's featured strip, the first four products.
func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > featuredCount {
		products = products[:featuredCount]
	}
	return products, nil
}

// NewArrivals returns the last four products of the catalog.
func (s *ProductService) NewArrivals(ctx context.Context) ([]models.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > featuredCount {
		products = products[len(products)-featuredCount:]
	}
	return products, nil
}

// Get returns a product by ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	if s.remote != nil {
		return s.remote.GetProduct(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	for _, product := range s.products {
		if product.ID == id {
			p := product
			return &p, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
}

// Create registers a new product.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}

	product := models.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Category:    req.Category,
		InStock:     true,
	}
	if product.Category == "" {
		product.Category = "unisex"
	}

	if s.remote != nil {
		created, err := s.remote.CreateProduct(ctx, product)
		if err != nil {
			return nil, err
		}
		s.publish("Product added successfully!")
		return created, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	product.ID = s.nextID()
	rollback := s.products
	s.products = append(append([]models.Product{}, s.products...), product)
	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	s.publish("Product added successfully!")
	return &product, nil
}

// Delete removes a product from the catalog.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if s.remote != nil {
		if err := s.remote.DeleteProduct(ctx, id); err != nil {
			return err
		}
		s.publish("Product deleted successfully!")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := -1
	for i := range s.products {
		if s.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "product not found")
	}

	rollback := s.products
	s.products = append(append([]models.Product{}, s.products[:idx]...), s.products[idx+1:]...)
	if err := s.persist(ctx, rollback); err != nil {
		return err
	}

	s.publish("Product deleted successfully!")
	return nil
}

// ensureLoaded reads the local snapshot once, seeding the built-in catalog
// when the store holds nothing. Caller must hold the mutex.
func (s *ProductService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	products, err := s.repo.Load(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load products")
	}
	if len(products) == 0 {
		products = defaultCatalog()
		if err := s.repo.Save(ctx, products); err != nil {
			s.logger.Warn("failed to persist seeded catalog", zap.Error(err))
		}
	}
	s.products = products
	s.loaded = true
	s.metrics.SetCollectionSize("products", len(products))
	return nil
}

func (s *ProductService) persist(ctx context.Context, rollback []models.Product) error {
	if err := s.repo.Save(ctx, s.products); err != nil {
		s.products = rollback
		return appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, appErrors.ErrStoreWrite.Message)
	}
	s.metrics.SetCollectionSize("products", len(s.products))
	return nil
}

func (s *ProductService) publish(message string) {
	if s.notifier != nil {
		s.notifier.Publish(message)
	}
}

func (s *ProductService) nextID() string {
	max := 0
	for _, product := range s.products {
		if n, err := strconv.Atoi(product.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// defaultCatalog is the built-in storefront catalog used when the store
// holds no products yet.
func defaultCatalog() []models.Product {
	unsplash := func(id string) string {
		return "https://images.unsplash.com/" + id + "?auto=format&fit=crop&w=400&q=80"
	}
	products := []models.Product{
		{ID: "1", Name: "Midnight Rose", Brand: "Luxury Scents", Price: 129.99,
			ImageURL:    unsplash("photo-1541643600914-78b084683601"),
			Description: "A captivating blend of rose and musk",
			Category:    "women", Rating: 4.5, Reviews: 128, InStock: true},
		{ID: "2", Name: "Ocean Breeze", Brand: "Aqua Fresh", Price: 89.99,
			ImageURL:    unsplash("photo-1590736969956-8bc5afa6b1e9"),
			Description: "Fresh aquatic scent for everyday wear",
			Category:    "unisex", Rating: 4.2, Reviews: 95, InStock: true},
		{ID: "3", Name: "Royal Oak", Brand: "Gentleman's Choice", Price: 159.99,
			ImageURL:    unsplash("photo-1584917865442-de89df76afd3"),
			Description: "Woody and sophisticated fragrance",
			Category:    "men", Rating: 4.8, Reviews: 210, InStock: true},
		{ID: "4", Name: "Vanilla Dream", Brand: "Sweet Essence", Price: 75.99,
			ImageURL:    unsplash("photo-1590736969956-8bc5afa6b1e9"),
			Description: "Warm and sweet vanilla fragrance",
			Category:    "women", Rating: 4.3, Reviews: 87, InStock: true},
		{ID: "5", Name: "Citrus Burst", Brand: "Fresh Finds", Price: 69.99,
			ImageURL:    unsplash("photo-1541643600914-78b084683601"),
			Description: "Energizing citrus blend",
			Category:    "unisex", Rating: 4.1, Reviews: 63, InStock: true},
		{ID: "6", Name: "Dark Knight", Brand: "Premium Scents", Price: 179.99,
			ImageURL:    unsplash("photo-1584917865442-de89df76afd3"),
			Description: "Mysterious and intense fragrance",
			Category:    "men", Rating: 4.7, Reviews: 142, InStock: true},
		{ID: "7", Name: "Lavender Fields", Brand: "Botanical Bliss", Price: 95.99,
			ImageURL:    unsplash("photo-1590736969956-8bc5afa6b1e9"),
			Description: "Calming lavender scent",
			Category:    "women", Rating: 4.4, Reviews: 105, InStock: true},
		{ID: "8", Name: "Urban Explorer", Brand: "Modern Scents", Price: 119.99,
			ImageURL:    unsplash("photo-1541643600914-78b084683601"),
			Description: "Contemporary urban fragrance",
			Category:    "unisex", Rating: 4.6, Reviews: 178, InStock: true},
	}
	return products
}

// SearchLocal filters the local catalog by a case-insensitive term over name
// and brand. Remote-backed deployments search on the backend instead.
func (s *ProductService) SearchLocal(ctx context.Context, term string) ([]models.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products, nil
	}
	matched := make([]models.Product, 0, len(products))
	for _, product := range products {
		if strings.Contains(strings.ToLower(product.Name), term) ||
			strings.Contains(strings.ToLower(product.Brand), term) {
			matched = append(matched, product)
		}
	}
	return matched, nil
}
