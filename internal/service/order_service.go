package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/view"
	appErrors "github.com/noah-isme/perfume-store-api/pkg/errors"
	"github.com/noah-isme/perfume-store-api/pkg/notify"
)

type orderRepository interface {
	Load(ctx context.Context) ([]models.Order, error)
	Save(ctx context.Context, orders []models.Order) error
}

// orderRemote covers the backend calls orders go through before the local
// snapshot is updated. When configured, the backend is the source of truth:
// the collection loads from it and checkout submits to it first.
type orderRemote interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	CreateOrder(ctx context.Context, order models.Order) (*models.Order, error)
	AcceptOrder(ctx context.Context, id string) error
	RejectOrder(ctx context.Context, id string) error
}

// CreateOrderRequest is the storefront checkout payload.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customerName" validate:"required"`
	CustomerEmail string             `json:"customerEmail" validate:"required,email"`
	CustomerPhone string             `json:"customerPhone"`
	Items         []models.OrderItem `json:"items" validate:"required,min=1,dive"`
}

// OrderService owns the orders collection. Accept and reject go through the
// remote backend first when one is configured; only a successful remote call
// is written back locally.
type OrderService struct {
	repo      orderRepository
	remote    orderRemote
	validator *validator.Validate
	logger    *zap.Logger
	notifier  notify.Notifier
	metrics   *MetricsService
	pageSize  int
	now       func() time.Time

	mu        sync.Mutex
	orders    []models.Order
	loaded    bool
	lastQuery view.Params
}

// OrderServiceConfig wires the service's collaborators. Remote may be nil.
type OrderServiceConfig struct {
	Repo      orderRepository
	Remote    orderRemote
	Validator *validator.Validate
	Logger    *zap.Logger
	Notifier  notify.Notifier
	Metrics   *MetricsService
	PageSize  int
}

// NewOrderService creates an instance of OrderService.
func NewOrderService(cfg OrderServiceConfig) *OrderService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 6
	}
	return &OrderService{
		repo:      cfg.Repo,
		remote:    cfg.Remote,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		pageSize:  cfg.PageSize,
		now:       time.Now,
	}
}

func orderSpec() view.Spec[models.Order] {
	return view.Spec[models.Order]{
		Folded: []func(models.Order) string{
			func(o models.Order) string { return o.CustomerName },
			func(o models.Order) string { return o.CustomerEmail },
			func(o models.Order) string { return o.ID },
		},
		Exact: []func(models.Order) string{
			func(o models.Order) string { return o.CustomerPhone },
		},
		Dimensions: map[string]func(models.Order) string{
			"status": func(o models.Order) string { return string(o.Status) },
		},
		Compare: map[view.Key]func(a, b models.Order) int{
			view.SortDate: func(a, b models.Order) int {
				return strings.Compare(b.CreatedAt, a.CreatedAt)
			},
			view.SortTotal: func(a, b models.Order) int {
				switch {
				case a.Total > b.Total:
					return -1
				case a.Total < b.Total:
					return 1
				}
				return 0
			},
			view.SortName: func(a, b models.Order) int {
				return strings.Compare(strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName))
			},
		},
	}
}

// List computes the current page of the orders view.
func (s *OrderService) List(ctx context.Context, params view.Params) (*view.View[models.Order], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if params.PageSize <= 0 {
		params.PageSize = s.pageSize
	}
	params = params.Rebase(s.lastQuery)
	s.lastQuery = params

	result := orderSpec().Compute(s.orders, params)
	return &result, nil
}

// Get returns an order by ID.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
	}
	order := s.orders[idx]
	return &order, nil
}

// Create validates and records a new pending order.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}

	total := 0.0
	for _, item := range req.Items {
		total += item.Price * float64(item.Quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	order := models.Order{
		ID:            uuid.NewString(),
		CustomerName:  req.CustomerName,
		CustomerEmail: strings.ToLower(req.CustomerEmail),
		CustomerPhone: req.CustomerPhone,
		Items:         req.Items,
		Total:         total,
		Status:        models.OrderPending,
		CreatedAt:     models.Today(s.now()),
	}

	// Submit to the backend first; the snapshot records what it acknowledged,
	// backend-assigned id included.
	if s.remote != nil {
		created, err := s.remote.CreateOrder(ctx, order)
		if err != nil {
			return nil, err
		}
		if created != nil {
			order = *created
		}
	}

	rollback := s.orders
	s.orders = append(append([]models.Order{}, s.orders...), order)
	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	s.publish("Order placed successfully!")
	return &order, nil
}

// Accept transitions a pending order to accepted.
func (s *OrderService) Accept(ctx context.Context, id string) (*models.Order, error) {
	return s.decide(ctx, id, models.OrderAccepted)
}

// Reject transitions a pending order to rejected.
func (s *OrderService) Reject(ctx context.Context, id string) (*models.Order, error) {
	return s.decide(ctx, id, models.OrderRejected)
}

func (s *OrderService) decide(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
	}
	if s.orders[idx].Status != models.OrderPending {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("order already %s", s.orders[idx].Status))
	}

	// Remote decision first; the snapshot only reflects what the backend
	// acknowledged.
	if s.remote != nil {
		var err error
		if status == models.OrderAccepted {
			err = s.remote.AcceptOrder(ctx, id)
		} else {
			err = s.remote.RejectOrder(ctx, id)
		}
		if err != nil {
			return nil, err
		}
	}

	rollback := s.orders
	s.orders = append([]models.Order{}, s.orders...)
	s.orders[idx].Status = status
	if err := s.persist(ctx, rollback); err != nil {
		return nil, err
	}

	order := s.orders[idx]
	s.publish(fmt.Sprintf("Order #%s %s", order.ID, status))
	return &order, nil
}

// Stats aggregates the live orders collection. Revenue counts accepted
// orders only.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	stats := &models.OrderStats{Total: len(s.orders)}
	for _, order := range s.orders {
		switch order.Status {
		case models.OrderPending:
			stats.Pending++
		case models.OrderAccepted:
			stats.Accepted++
			stats.Revenue += order.Total
		case models.OrderRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// ensureLoaded populates the collection once: from the backend when one is
// configured, from the local snapshot otherwise. Caller must hold the mutex.
func (s *OrderService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	var (
		orders []models.Order
		err    error
	)
	if s.remote != nil {
		orders, err = s.remote.ListOrders(ctx)
		if err != nil {
			return err
		}
	} else {
		orders, err = s.repo.Load(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load orders")
		}
	}

	s.orders = orders
	s.loaded = true
	s.metrics.SetCollectionSize("orders", len(orders))
	return nil
}

func (s *OrderService) persist(ctx context.Context, rollback []models.Order) error {
	if err := s.repo.Save(ctx, s.orders); err != nil {
		s.orders = rollback
		return appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, appErrors.ErrStoreWrite.Message)
	}
	s.metrics.SetCollectionSize("orders", len(s.orders))
	return nil
}

func (s *OrderService) publish(message string) {
	if s.notifier != nil {
		s.notifier.Publish(message)
	}
}

func (s *OrderService) indexOf(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}
