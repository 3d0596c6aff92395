package mysql

import (
	"context"
	"fmt"

	"github.com/punjabheritage/storefront/internal/notification/domain"
	"gorm.io/gorm"
)

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	if err := r.db.WithContext(ctx).Save(n).Error; err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) FindByOrder(ctx context.Context, orderNumber string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	return out, nil
}
