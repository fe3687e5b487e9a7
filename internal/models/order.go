package models

// OrderStatus enumerates order lifecycle states.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderRejected OrderStatus = "rejected"
)

// OrderItem is one catalog line inside an order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order is the canonical order entity.
type Order struct {
	ID            string      `json:"id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	Status        OrderStatus `json:"status"`
	CreatedAt     string      `json:"created_at"`
}

// RawOrder is the stored order shape; status defaults to pending.
type RawOrder struct {
	ID            string      `json:"id,omitempty"`
	CustomerName  string      `json:"customerName,omitempty"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	Items         []OrderItem `json:"items,omitempty"`
	Total         float64     `json:"total,omitempty"`
	Status        string      `json:"status,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
}

// OrderStats aggregates the live order collection.
type OrderStats struct {
	Total    int     `json:"total"`
	Pending  int     `json:"pending"`
	Accepted int     `json:"accepted"`
	Rejected int     `json:"rejected"`
	Revenue  float64 `json:"revenue"`
}
