package mongodb

import (
	"context"

	"github.com/punjabheritage/storefront/internal/order/domain"
)

// unavailableRepository stands in when the database cannot be reached at
// startup; checkout then lands in the fallback store only.
type unavailableRepository struct {
	err error
}

func NewUnavailableRepository(err error) domain.OrderRepository {
	return &unavailableRepository{err: err}
}

func (r *unavailableRepository) Insert(context.Context, *domain.Order) error {
	return r.err
}

func (r *unavailableRepository) FindAll(context.Context) ([]domain.Order, error) {
	return nil, r.err
}

func (r *unavailableRepository) FindByNumber(context.Context, string) (*domain.Order, error) {
	return nil, r.err
}

func (r *unavailableRepository) UpdateStatus(context.Context, string, domain.Status, string) (*domain.Order, error) {
	return nil, r.err
}
