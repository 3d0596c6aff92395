package domain

import "context"

// ProductRepository is the primary (document database) product store.
type ProductRepository interface {
	// FindActiveSorted returns active products, newest first.
	FindActiveSorted(ctx context.Context) ([]Product, error)
	// FindAll returns every product, newest first, including inactive ones.
	FindAll(ctx context.Context) ([]Product, error)
	// Insert stores a new product and assigns its database identity.
	Insert(ctx context.Context, p *Product) error
	// FindByIDAndUpdate applies u to the product with the given id and
	// returns the updated view, or ErrProductNotFound.
	FindByIDAndUpdate(ctx context.Context, id string, u Update) (*Product, error)
	// FindByIDAndDelete removes the product with the given id.
	FindByIDAndDelete(ctx context.Context, id string) error
	// ExistsByNameOrID reports whether a record with the name or id exists.
	ExistsByNameOrID(ctx context.Context, name, id string) (bool, error)
	// Count returns the total number of products.
	Count(ctx context.Context) (int64, error)
}

// FallbackStore is the secondary product store: a single JSON array under a
// well-known key, backed by a file or by process memory.
type FallbackStore interface {
	GetProducts(ctx context.Context) ([]Product, error)
	SaveProducts(ctx context.Context, products []Product) error
}
