// Package localstorage persists the shopper's cart between sessions, the
// same role browser local storage plays for the storefront.
package localstorage

import (
	"context"

	"github.com/punjabheritage/storefront/internal/cart/domain"
	"github.com/punjabheritage/storefront/pkg/filestore"
)

// Key is the well-known entry holding the cart item list.
const Key = "punjabi-heritage-cart"

type Storage struct {
	fs *filestore.Store
}

func New(fs *filestore.Store) *Storage {
	return &Storage{fs: fs}
}

// Load reads the persisted item list. A missing entry yields an empty
// list; a corrupted one yields the unmarshal error so the caller can
// discard it.
func (s *Storage) Load(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := s.fs.Get(ctx, Key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// Save overwrites the persisted item list.
func (s *Storage) Save(ctx context.Context, items []domain.Item) error {
	if items == nil {
		items = []domain.Item{}
	}
	return s.fs.Set(ctx, Key, items)
}

// Clear resets the entry to an empty list.
func (s *Storage) Clear(ctx context.Context) error {
	return s.fs.Set(ctx, Key, []domain.Item{})
}
