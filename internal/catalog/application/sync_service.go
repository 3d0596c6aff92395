package application

import (
	"context"
	"time"

	"github.com/punjabheritage/storefront/internal/catalog/domain"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
)

// SyncService presents one logical product catalog over two physical
// stores: the document database as source of truth and the file/memory
// fallback that keeps the catalog readable when the database is not.
// No operation fails because a single backend is unreachable; the only
// hard error is both backends rejecting a write.
type SyncService struct {
	products domain.ProductRepository
	fallback domain.FallbackStore
	events   domain.EventPublisher
	topic    string
	metrics  *metrics.Metrics
	now      func() time.Time
}

// SyncReport summarizes a force-reconcile run.
type SyncReport struct {
	DatabaseCount int  `json:"databaseCount"`
	FallbackCount int  `json:"fallbackCount"`
	Synced        bool `json:"synced"`
}

func NewSyncService(products domain.ProductRepository, fallback domain.FallbackStore, events domain.EventPublisher, topic string, m *metrics.Metrics) *SyncService {
	return &SyncService{
		products: products,
		fallback: fallback,
		events:   events,
		topic:    topic,
		metrics:  m,
		now:      time.Now,
	}
}

// ListActive returns the active catalog, newest first. The database list is
// authoritative when available and is mirrored into the fallback store;
// otherwise the fallback list is served. A database that answers with zero
// records while the fallback is non-empty is treated as behind: the
// fallback list wins and is pushed back into the database best-effort.
func (s *SyncService) ListActive(ctx context.Context) ([]domain.Product, error) {
	var dbProducts []domain.Product
	dbOK := false
	if products, err := s.products.FindActiveSorted(ctx); err != nil {
		pkglogger.Warn(ctx, "database unavailable, falling back to local storage", "error", err)
	} else {
		dbProducts = products
		dbOK = true
	}

	fbProducts, err := s.fallback.GetProducts(ctx)
	if err != nil {
		pkglogger.Warn(ctx, "fallback store unavailable", "error", err)
	}

	if dbOK && len(dbProducts) > 0 {
		if err := s.fallback.SaveProducts(ctx, dbProducts); err != nil {
			pkglogger.Warn(ctx, "failed to mirror database products to fallback store", "error", err)
		}
		return dbProducts, nil
	}

	if len(fbProducts) > 0 {
		if s.metrics != nil {
			s.metrics.ProductSyncFallbackReads.Inc()
		}
		s.pushFallbackToDatabase(ctx, fbProducts)
		return fbProducts, nil
	}

	return []domain.Product{}, nil
}

// Add inserts the product into the database first and always appends it to
// the fallback store: the database record verbatim on success, or a copy
// under a time-based surrogate id on failure. Both writes failing yields
// ErrNoStorage.
func (s *SyncService) Add(ctx context.Context, p domain.Product) (*domain.Product, error) {
	product, err := domain.NewProduct(p)
	if err != nil {
		return nil, err
	}

	dbErr := s.products.Insert(ctx, product)
	if dbErr != nil {
		pkglogger.Warn(ctx, "failed to save product to database", "name", product.Name, "error", dbErr)
		product.ID = domain.SurrogateID(s.now())
	}

	fbProducts, fbErr := s.fallback.GetProducts(ctx)
	if fbErr == nil {
		fbProducts = append(fbProducts, *product)
		fbErr = s.fallback.SaveProducts(ctx, fbProducts)
	}
	if fbErr != nil {
		pkglogger.Warn(ctx, "failed to save product to fallback store", "name", product.Name, "error", fbErr)
		if dbErr != nil {
			if s.metrics != nil {
				s.metrics.ProductSyncFailures.Inc()
			}
			return nil, domain.ErrNoStorage
		}
	}

	s.publish(ctx, product.ID, domain.ProductCreated{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Price:     product.Price,
		CreatedAt: product.CreatedAt,
	})
	return product, nil
}

// Update applies the edit to whichever stores currently hold the record and
// returns the database view when available, the fallback view otherwise.
func (s *SyncService) Update(ctx context.Context, id string, u domain.Update) (*domain.Product, error) {
	var dbView *domain.Product
	if updated, err := s.products.FindByIDAndUpdate(ctx, id, u); err != nil {
		pkglogger.Warn(ctx, "failed to update product in database", "id", id, "error", err)
	} else {
		dbView = updated
	}

	fbView := s.updateFallback(ctx, id, u)

	if dbView != nil {
		s.publish(ctx, id, domain.ProductUpdated{ProductID: id, UpdatedAt: dbView.UpdatedAt})
		return dbView, nil
	}
	if fbView != nil {
		s.publish(ctx, id, domain.ProductUpdated{ProductID: id, UpdatedAt: fbView.UpdatedAt})
		return fbView, nil
	}
	return nil, domain.ErrProductNotFound
}

// Delete removes the record from both stores independently. Partial
// deletion is logged, never reported: a record left in one store is a
// tolerated inconsistency.
func (s *SyncService) Delete(ctx context.Context, id string) error {
	if err := s.products.FindByIDAndDelete(ctx, id); err != nil {
		pkglogger.Warn(ctx, "failed to delete product from database", "id", id, "error", err)
	}

	fbProducts, err := s.fallback.GetProducts(ctx)
	if err != nil {
		pkglogger.Warn(ctx, "failed to read fallback store for delete", "id", id, "error", err)
	} else {
		kept := fbProducts[:0]
		for _, p := range fbProducts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		if err := s.fallback.SaveProducts(ctx, kept); err != nil {
			pkglogger.Warn(ctx, "failed to delete product from fallback store", "id", id, "error", err)
		}
	}

	s.publish(ctx, id, domain.ProductDeleted{ProductID: id, DeletedAt: s.now().UTC()})
	return nil
}

// ForceSync reconciles the stores with the count heuristic: the larger
// collection wins wholesale. Divergent edits to the same record are not
// merged; the smaller store's copy is discarded. That data-loss risk is
// accepted for compatibility with the storefront's established behavior.
func (s *SyncService) ForceSync(ctx context.Context) (SyncReport, error) {
	var dbProducts []domain.Product
	dbOK := false
	if products, err := s.products.FindAll(ctx); err != nil {
		pkglogger.Warn(ctx, "database unavailable for force sync", "error", err)
	} else {
		dbProducts = products
		dbOK = true
	}

	fbProducts, err := s.fallback.GetProducts(ctx)
	if err != nil {
		pkglogger.Warn(ctx, "fallback store unavailable for force sync", "error", err)
	}

	report := SyncReport{DatabaseCount: len(dbProducts), FallbackCount: len(fbProducts)}

	if len(dbProducts) >= len(fbProducts) {
		if err := s.fallback.SaveProducts(ctx, dbProducts); err != nil {
			pkglogger.Warn(ctx, "failed to sync database products to fallback store", "error", err)
		} else {
			report.Synced = true
		}
		return report, nil
	}

	if dbOK {
		s.pushFallbackToDatabase(ctx, fbProducts)
		report.Synced = true
	}
	return report, nil
}

// updateFallback locates the record by its database id or surrogate id and
// applies the edit in place. Returns nil when the record is absent or the
// store is unreachable.
func (s *SyncService) updateFallback(ctx context.Context, id string, u domain.Update) *domain.Product {
	fbProducts, err := s.fallback.GetProducts(ctx)
	if err != nil {
		pkglogger.Warn(ctx, "failed to read fallback store for update", "id", id, "error", err)
		return nil
	}

	for i := range fbProducts {
		if fbProducts[i].ID != id {
			continue
		}
		u.Apply(&fbProducts[i])
		if err := s.fallback.SaveProducts(ctx, fbProducts); err != nil {
			pkglogger.Warn(ctx, "failed to update product in fallback store", "id", id, "error", err)
			return nil
		}
		updated := fbProducts[i]
		return &updated
	}
	return nil
}

// pushFallbackToDatabase best-effort inserts fallback records the database
// does not know yet, matched by name or id to avoid duplicates.
func (s *SyncService) pushFallbackToDatabase(ctx context.Context, products []domain.Product) {
	for _, p := range products {
		exists, err := s.products.ExistsByNameOrID(ctx, p.Name, p.ID)
		if err != nil {
			pkglogger.Warn(ctx, "failed to check product in database", "name", p.Name, "error", err)
			return
		}
		if exists {
			continue
		}
		record := p
		if err := s.products.Insert(ctx, &record); err != nil {
			pkglogger.Warn(ctx, "failed to sync product to database", "name", p.Name, "error", err)
		}
	}
}

func (s *SyncService) publish(ctx context.Context, key string, event any) {
	if s.events == nil || s.topic == "" {
		return
	}
	if err := s.events.Publish(ctx, s.topic, key, event); err != nil {
		pkglogger.Warn(ctx, "failed to publish catalog event", "key", key, "error", err)
	}
}
