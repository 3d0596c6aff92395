package domain

import (
	"context"
	"time"
)

type OrderRepository interface {
	Insert(ctx context.Context, o *Order) error
	// FindAll returns all orders, newest first.
	FindAll(ctx context.Context) ([]Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	// UpdateStatus sets the order status and optional tracking number and
	// returns the updated order.
	UpdateStatus(ctx context.Context, id string, status Status, tracking string) (*Order, error)
}

// FallbackStore keeps a secondary copy of every order so a checkout
// survives a database outage.
type FallbackStore interface {
	GetOrders(ctx context.Context) ([]Order, error)
	SaveOrders(ctx context.Context, orders []Order) error
}

// PaymentGateway is the boundary to the payment provider. Charge returns
// the provider's transaction reference.
type PaymentGateway interface {
	Charge(ctx context.Context, orderNumber string, amount float64, method PaymentMethod) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// OrderCreated is published to the message bus after a successful checkout.
type OrderCreated struct {
	Event         string        `json:"event"`
	Number        string        `json:"orderNumber"`
	CustomerName  string        `json:"customerName"`
	CustomerEmail string        `json:"customerEmail"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// EventOrderCreated tags OrderCreated on the wire.
const EventOrderCreated = "order.created"
