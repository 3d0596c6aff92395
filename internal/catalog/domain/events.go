package domain

import (
	"context"
	"time"
)

// EventPublisher pushes catalog lifecycle events onto the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

type ProductCreated struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductUpdated struct {
	ProductID string    `json:"product_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
