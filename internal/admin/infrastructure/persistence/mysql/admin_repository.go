package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/punjabheritage/storefront/internal/admin/domain"
	"gorm.io/gorm"
)

type adminRepository struct{ db *gorm.DB }

func NewAdminRepository(db *gorm.DB) domain.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Save(ctx context.Context, admin *domain.Admin) error {
	if err := r.db.WithContext(ctx).Save(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("save admin: %w", err)
	}
	return nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	var admin domain.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}
	return &admin, nil
}
