package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/store"
)

// OrderRepository loads and persists the orders collection.
type OrderRepository struct {
	snapshots store.Snapshots
	key       string
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderRepository builds a repository over the given snapshot key.
func NewOrderRepository(snapshots store.Snapshots, key string, logger *zap.Logger) *OrderRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderRepository{snapshots: snapshots, key: key, logger: logger, now: time.Now}
}

// Load reads and normalizes the orders snapshot.
func (r *OrderRepository) Load(ctx context.Context) ([]models.Order, error) {
	records, err := r.snapshots.Load(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load orders snapshot: %w", err)
	}

	orders := make([]models.Order, 0, len(records))
	for i, record := range records {
		var raw models.RawOrder
		if err := json.Unmarshal(record, &raw); err != nil {
			r.logger.Warn("skipping undecodable order record",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		orders = append(orders, NormalizeOrder(raw, i, r.now()))
	}
	return orders, nil
}

// Save replaces the orders snapshot.
func (r *OrderRepository) Save(ctx context.Context, orders []models.Order) error {
	records := make([]json.RawMessage, 0, len(orders))
	for _, order := range orders {
		payload, err := json.Marshal(DenormalizeOrder(order))
		if err != nil {
			return fmt.Errorf("marshal order %s: %w", order.ID, err)
		}
		records = append(records, payload)
	}
	if err := r.snapshots.Save(ctx, r.key, records); err != nil {
		return fmt.Errorf("save orders snapshot: %w", err)
	}
	return nil
}

// NormalizeOrder fills defaults for a stored order record.
func NormalizeOrder(raw models.RawOrder, index int, now time.Time) models.Order {
	order := models.Order{
		ID:            raw.ID,
		CustomerName:  raw.CustomerName,
		CustomerEmail: raw.CustomerEmail,
		CustomerPhone: raw.CustomerPhone,
		Items:         raw.Items,
		Total:         raw.Total,
		CreatedAt:     raw.CreatedAt,
	}

	if order.ID == "" {
		order.ID = strconv.Itoa(index + 1)
	}

	switch models.OrderStatus(raw.Status) {
	case models.OrderPending, models.OrderAccepted, models.OrderRejected:
		order.Status = models.OrderStatus(raw.Status)
	default:
		order.Status = models.OrderPending
	}

	if order.CreatedAt == "" {
		order.CreatedAt = models.Today(now)
	}

	// Recompute the total when the stored record never carried one.
	if order.Total == 0 {
		for _, item := range order.Items {
			order.Total += item.Price * float64(item.Quantity)
		}
	}

	return order
}

// DenormalizeOrder maps the canonical order back to the stored shape.
func DenormalizeOrder(order models.Order) models.RawOrder {
	return models.RawOrder{
		ID:            order.ID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		Items:         order.Items,
		Total:         order.Total,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
	}
}
