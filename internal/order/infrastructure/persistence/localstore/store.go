// Package localstore adapts the shared filestore into the order fallback
// store.
package localstore

import (
	"context"

	"github.com/punjabheritage/storefront/internal/order/domain"
	"github.com/punjabheritage/storefront/pkg/filestore"
)

// Key is the well-known fallback collection holding the order list.
const Key = "orders"

type store struct {
	fs *filestore.Store
}

func New(fs *filestore.Store) domain.FallbackStore {
	return &store{fs: fs}
}

func (s *store) GetOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.fs.Get(ctx, Key, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *store) SaveOrders(ctx context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	return s.fs.Set(ctx, Key, orders)
}
