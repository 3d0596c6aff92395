package application

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/punjabheritage/storefront/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errDown = errors.New("connection refused")

type fakeRepo struct {
	store map[string]domain.Product
	order []string
	down  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{store: make(map[string]domain.Product)}
}

func (r *fakeRepo) FindActiveSorted(ctx context.Context) ([]domain.Product, error) {
	if r.down {
		return nil, errDown
	}
	var out []domain.Product
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.store[r.order[i]]
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	if r.down {
		return nil, errDown
	}
	var out []domain.Product
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.store[r.order[i]])
	}
	return out, nil
}

func (r *fakeRepo) Insert(ctx context.Context, p *domain.Product) error {
	if r.down {
		return errDown
	}
	p.ObjectID = primitive.NewObjectID()
	p.ID = p.ObjectID.Hex()
	r.store[p.ID] = *p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *fakeRepo) FindByIDAndUpdate(ctx context.Context, id string, u domain.Update) (*domain.Product, error) {
	if r.down {
		return nil, errDown
	}
	p, ok := r.store[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	u.Apply(&p)
	r.store[id] = p
	return &p, nil
}

func (r *fakeRepo) FindByIDAndDelete(ctx context.Context, id string) error {
	if r.down {
		return errDown
	}
	if _, ok := r.store[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.store, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRepo) ExistsByNameOrID(ctx context.Context, name, id string) (bool, error) {
	if r.down {
		return false, errDown
	}
	if _, ok := r.store[id]; ok {
		return true, nil
	}
	for _, p := range r.store {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) Count(ctx context.Context) (int64, error) {
	if r.down {
		return 0, errDown
	}
	return int64(len(r.store)), nil
}

type fakeFallback struct {
	products []domain.Product
	down     bool
	saves    int
}

func (f *fakeFallback) GetProducts(ctx context.Context) ([]domain.Product, error) {
	if f.down {
		return nil, errDown
	}
	out := make([]domain.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeFallback) SaveProducts(ctx context.Context, products []domain.Product) error {
	if f.down {
		return errDown
	}
	f.products = make([]domain.Product, len(products))
	copy(f.products, products)
	f.saves++
	return nil
}

func testProduct(name string) domain.Product {
	return domain.Product{
		Name:        name,
		PunjabiName: name,
		Description: "hand embroidered",
		Price:       2499,
		Category:    domain.CategoryWomen,
		Images:      []string{"/images/" + name + ".jpg"},
		Colors:      []string{"Red"},
		Sizes:       []string{"M"},
		Stock:       10,
		IsActive:    true,
	}
}

func setup() (*SyncService, *fakeRepo, *fakeFallback) {
	repo := newFakeRepo()
	fb := &fakeFallback{}
	svc := NewSyncService(repo, fb, nil, "", nil)
	return svc, repo, fb
}

func TestListActiveFallsBackWhenDatabaseDown(t *testing.T) {
	svc, repo, fb := setup()
	fb.products = []domain.Product{testProduct("Phulkari Dupatta")}
	repo.down = true

	got, err := svc.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Phulkari Dupatta", got[0].Name)
}

func TestListActiveMirrorsDatabaseToFallback(t *testing.T) {
	svc, _, fb := setup()
	_, err := svc.Add(context.Background(), testProduct("Jutti"))
	require.NoError(t, err)
	fb.products = nil

	got, err := svc.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, fb.products, 1)
	assert.Equal(t, got[0].ID, fb.products[0].ID)
}

func TestListActivePrefersNonEmptyFallbackOverEmptyDatabase(t *testing.T) {
	svc, repo, fb := setup()
	fb.products = []domain.Product{testProduct("Patiala Salwar")}

	got, err := svc.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Patiala Salwar", got[0].Name)
	// The fallback record was pushed back into the database.
	n, _ := repo.Count(context.Background())
	assert.EqualValues(t, 1, n)
}

func TestListActiveBothEmpty(t *testing.T) {
	svc, _, _ := setup()
	got, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddStoresDatabaseIDInBothStores(t *testing.T) {
	svc, repo, fb := setup()

	saved, err := svc.Add(context.Background(), testProduct("Kurta"))

	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Contains(t, repo.store, saved.ID)
	require.Len(t, fb.products, 1)
	assert.Equal(t, saved.ID, fb.products[0].ID)
}

func TestAddAssignsSurrogateIDWhenDatabaseDown(t *testing.T) {
	svc, repo, fb := setup()
	repo.down = true

	saved, err := svc.Add(context.Background(), testProduct("Salwar Kameez"))

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d+$`), saved.ID)
	require.Len(t, fb.products, 1)
	assert.Equal(t, saved.ID, fb.products[0].ID)

	// A subsequent read-all includes the fallback-only record.
	got, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, saved.ID, got[0].ID)
}

func TestAddFailsWhenBothStoresDown(t *testing.T) {
	svc, repo, fb := setup()
	repo.down = true
	fb.down = true

	_, err := svc.Add(context.Background(), testProduct("Lehenga"))

	assert.ErrorIs(t, err, domain.ErrNoStorage)
}

func TestAddRejectsInvalidProduct(t *testing.T) {
	svc, _, _ := setup()
	p := testProduct("Bad Category")
	p.Category = "gadgets"
	_, err := svc.Add(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestUpdateAppliesToBothStores(t *testing.T) {
	svc, repo, fb := setup()
	saved, err := svc.Add(context.Background(), testProduct("Dupatta"))
	require.NoError(t, err)

	price := 1999.0
	updated, err := svc.Update(context.Background(), saved.ID, domain.Update{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, 1999.0, updated.Price)
	assert.Equal(t, 1999.0, repo.store[saved.ID].Price)
	assert.Equal(t, 1999.0, fb.products[0].Price)
}

func TestUpdateFallbackOnlyRecord(t *testing.T) {
	svc, repo, _ := setup()
	repo.down = true
	saved, err := svc.Add(context.Background(), testProduct("Suit"))
	require.NoError(t, err)

	stock := 3
	updated, err := svc.Update(context.Background(), saved.ID, domain.Update{Stock: &stock})

	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
}

func TestUpdateUnknownIDFails(t *testing.T) {
	svc, _, _ := setup()
	price := 100.0
	_, err := svc.Update(context.Background(), "missing", domain.Update{Price: &price})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDeleteToleratesPartialFailure(t *testing.T) {
	svc, repo, fb := setup()
	saved, err := svc.Add(context.Background(), testProduct("Chunni"))
	require.NoError(t, err)

	repo.down = true
	require.NoError(t, svc.Delete(context.Background(), saved.ID))
	assert.Empty(t, fb.products)
}

func TestForceSyncDatabaseWins(t *testing.T) {
	svc, _, fb := setup()
	_, err := svc.Add(context.Background(), testProduct("Jutti"))
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), testProduct("Kurta"))
	require.NoError(t, err)
	// Divergent fallback copy with fewer records.
	fb.products = fb.products[:1]

	report, err := svc.ForceSync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.DatabaseCount)
	assert.Equal(t, 1, report.FallbackCount)
	assert.True(t, report.Synced)
	assert.Len(t, fb.products, 2)
}

func TestForceSyncFallbackWinsInsertsMissingOnly(t *testing.T) {
	svc, repo, fb := setup()
	saved, err := svc.Add(context.Background(), testProduct("Jutti"))
	require.NoError(t, err)
	fb.products = append(fb.products, testProduct("Phulkari Shawl"))
	fb.products[1].ID = domain.SurrogateID(time.Now())

	report, err := svc.ForceSync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.DatabaseCount)
	assert.Equal(t, 2, report.FallbackCount)
	assert.True(t, report.Synced)

	n, _ := repo.Count(context.Background())
	assert.EqualValues(t, 2, n)
	// The record already known by id is not duplicated.
	exists, _ := repo.ExistsByNameOrID(context.Background(), "Jutti", saved.ID)
	assert.True(t, exists)
}
