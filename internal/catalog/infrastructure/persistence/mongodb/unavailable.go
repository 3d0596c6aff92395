package mongodb

import (
	"context"

	"github.com/punjabheritage/storefront/internal/catalog/domain"
)

// unavailableRepository stands in when the database cannot be reached at
// startup. Every call fails with the dial error, which routes the sync
// service onto its fallback paths instead of crashing the service.
type unavailableRepository struct {
	err error
}

func NewUnavailableRepository(err error) domain.ProductRepository {
	return &unavailableRepository{err: err}
}

func (r *unavailableRepository) FindActiveSorted(context.Context) ([]domain.Product, error) {
	return nil, r.err
}

func (r *unavailableRepository) FindAll(context.Context) ([]domain.Product, error) {
	return nil, r.err
}

func (r *unavailableRepository) Insert(context.Context, *domain.Product) error {
	return r.err
}

func (r *unavailableRepository) FindByIDAndUpdate(context.Context, string, domain.Update) (*domain.Product, error) {
	return nil, r.err
}

func (r *unavailableRepository) FindByIDAndDelete(context.Context, string) error {
	return r.err
}

func (r *unavailableRepository) ExistsByNameOrID(context.Context, string, string) (bool, error) {
	return false, r.err
}

func (r *unavailableRepository) Count(context.Context) (int64, error) {
	return 0, r.err
}
