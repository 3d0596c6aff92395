package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/punjabheritage/storefront/internal/cart/domain"
	"gorm.io/gorm"
)

type cartRepository struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error; err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		// Replace() drops removed lines from the aggregate; delete their rows.
		keep := make([]uint, 0, len(cart.Items))
		for _, row := range cart.Items {
			if row.ID != 0 {
				keep = append(keep, row.ID)
			}
		}
		q := tx.Where("cart_id = ?", cart.ID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Delete(&domain.CartItem{}).Error; err != nil {
			return fmt.Errorf("prune cart items: %w", err)
		}
		return nil
	})
}

func (r *cartRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart domain.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load cart for delete: %w", err)
		}
		if err := tx.Delete(&domain.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := tx.Delete(&cart).Error; err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
}
