package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/punjabheritage/storefront/internal/cart/domain"
	"gorm.io/gorm"
)

// CartService owns the server-side cart. It is the authority the session
// echoes come from: every mutation returns the full post-mutation item
// list for the shopper.
type CartService struct {
	repo domain.CartRepository
}

func NewCartService(repo domain.CartRepository) *CartService {
	return &CartService{repo: repo}
}

func (s *CartService) GetItems(ctx context.Context, userID string) ([]domain.Item, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.Snapshot(), nil
}

// AddItem merges the item into the shopper's cart. A request for more than
// the line's known stock is rejected outright; the cart is left unchanged.
func (s *CartService) AddItem(ctx context.Context, userID string, it domain.Item) ([]domain.Item, error) {
	if it.Stock > 0 && it.Quantity > it.Stock {
		return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, it.ProductID)
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Replace(domain.MergeItem(cart.Snapshot(), it))
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart.Snapshot(), nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID, size, color string, qty int) ([]domain.Item, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := cart.Snapshot()
	for _, line := range items {
		if line.Matches(productID, size, color) && line.Stock > 0 && qty > line.Stock {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, productID)
		}
	}

	cart.Replace(domain.SetQuantity(items, productID, size, color, qty))
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart.Snapshot(), nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID, size, color string) ([]domain.Item, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Replace(domain.RemoveLine(cart.Snapshot(), productID, size, color))
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart.Snapshot(), nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Cart{UserID: userID}, nil
	}
	return cart, err
}
