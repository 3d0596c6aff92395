// Package localstore adapts the shared filestore into the catalog's
// fallback product store.
package localstore

import (
	"context"

	"github.com/punjabheritage/storefront/internal/catalog/domain"
	"github.com/punjabheritage/storefront/pkg/filestore"
)

// Key is the well-known fallback collection holding the product list.
const Key = "products"

type store struct {
	fs *filestore.Store
}

// New wraps a filestore as the catalog fallback store.
func New(fs *filestore.Store) domain.FallbackStore {
	return &store{fs: fs}
}

func (s *store) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.fs.Get(ctx, Key, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *store) SaveProducts(ctx context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	return s.fs.Set(ctx, Key, products)
}
