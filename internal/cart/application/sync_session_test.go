package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/punjabheritage/storefront/internal/auth"
	"github.com/punjabheritage/storefront/internal/cart/domain"
	transport "github.com/punjabheritage/storefront/internal/cart/infrastructure/channel"
	"github.com/punjabheritage/storefront/internal/cart/infrastructure/localstorage"
	"github.com/punjabheritage/storefront/pkg/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const echoTimeout = 25 * time.Millisecond

type memoryCartRepo struct {
	carts  map[string]*domain.Cart
	nextID uint
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{carts: make(map[string]*domain.Cart)}
}

func (r *memoryCartRepo) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, ok := r.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *cart
	clone.Items = append([]domain.CartItem(nil), cart.Items...)
	return &clone, nil
}

func (r *memoryCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == 0 {
		r.nextID++
		cart.ID = r.nextID
	}
	clone := *cart
	clone.Items = append([]domain.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &clone
	return nil
}

func (r *memoryCartRepo) Delete(ctx context.Context, userID string) error {
	delete(r.carts, userID)
	return nil
}

// serveCarts answers channel requests from a real cart service, playing
// the role the dispatcher plays in production.
func serveCarts(t *testing.T, broker *transport.Broker, svc *CartService) {
	t.Helper()
	requests, err := broker.Requests(context.Background())
	require.NoError(t, err)

	go func() {
		for req := range requests {
			ctx := context.Background()
			var echo domain.Event
			switch e := req.Event.(type) {
			case domain.GetCart:
				items, err := svc.GetItems(ctx, req.UserID)
				echo = loadedOrError(items, err)
			case domain.AddToCart:
				items, err := svc.AddItem(ctx, req.UserID, e.Item)
				echo = updatedOrError(items, err)
			case domain.UpdateCartItem:
				items, err := svc.UpdateQuantity(ctx, req.UserID, e.ProductID, e.Size, e.Color, e.Quantity)
				echo = updatedOrError(items, err)
			case domain.RemoveFromCart:
				items, err := svc.RemoveItem(ctx, req.UserID, e.ProductID, e.Size, e.Color)
				echo = updatedOrError(items, err)
			case domain.ClearCart:
				if err := svc.Clear(ctx, req.UserID); err != nil {
					echo = domain.CartError{Code: "cart-failure", Message: err.Error()}
				} else {
					echo = domain.CartCleared{ClearedAt: time.Now()}
				}
			default:
				continue
			}
			_ = broker.Emit(ctx, req.UserID, echo)
		}
	}()
}

func loadedOrError(items []domain.Item, err error) domain.Event {
	if err != nil {
		return domain.CartError{Code: "cart-failure", Message: err.Error()}
	}
	count, total := domain.Totals(items)
	return domain.CartLoaded{Items: items, ItemCount: count, Total: total}
}

func updatedOrError(items []domain.Item, err error) domain.Event {
	if err != nil {
		return domain.CartError{Code: "insufficient-stock", Message: err.Error()}
	}
	count, total := domain.Totals(items)
	return domain.CartUpdated{Items: items, ItemCount: count, Total: total}
}

func cartLine(id string, qty, stock int, price float64) domain.Item {
	return domain.Item{
		ProductID: id,
		Name:      "Jutti " + id,
		Price:     price,
		Quantity:  qty,
		Size:      "M",
		Color:     "Red",
		Stock:     stock,
	}
}

func TestGuestMutationsApplyLocallyAndPersist(t *testing.T) {
	ctx := context.Background()
	storage := localstorage.New(filestore.NewMemory())
	session := NewSyncSession(auth.Guest(), nil, storage, nil, echoTimeout, 1)
	session.Initialize(ctx)

	require.NoError(t, session.Add(ctx, cartLine("p1", 2, 10, 100)))
	require.NoError(t, session.Add(ctx, cartLine("p1", 3, 10, 100)))

	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, session.ItemCount())
	assert.InDelta(t, 500, session.Total(), 0.001)
	assert.Equal(t, StateIdle, session.State())

	// Every mutation persists the full list.
	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 5, persisted[0].Quantity)

	// Quantity zero removes the line.
	require.NoError(t, session.UpdateQuantity(ctx, "p1", "M", "Red", 0))
	assert.Empty(t, session.Items())
	persisted, err = storage.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestGuestMergeClampsToStock(t *testing.T) {
	ctx := context.Background()
	storage := localstorage.New(filestore.NewMemory())
	session := NewSyncSession(auth.Guest(), nil, storage, nil, echoTimeout, 1)
	session.Initialize(ctx)

	require.NoError(t, session.Add(ctx, cartLine("p1", 50, 5, 100)))
	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestInitializeDiscardsCorruptedEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, localstorage.Key+".json")
	require.NoError(t, os.WriteFile(path, []byte("{definitely not json"), 0o644))

	storage := localstorage.New(filestore.New(dir))
	session := NewSyncSession(auth.Guest(), nil, storage, nil, echoTimeout, 1)
	session.Initialize(context.Background())

	assert.Empty(t, session.Items())
	assert.Equal(t, StateIdle, session.State())

	// The entry was reset, so the next load succeeds.
	items, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInitializeAdoptsServerCartWithoutMerge(t *testing.T) {
	ctx := context.Background()
	broker := transport.NewBroker()
	defer broker.Close()
	svc := NewCartService(newMemoryCartRepo())
	serveCarts(t, broker, svc)

	// Server already holds a different cart for this shopper.
	_, err := svc.AddItem(ctx, "user-1", cartLine("server-item", 1, 5, 999))
	require.NoError(t, err)

	// Local storage holds a stale guest cart.
	storage := localstorage.New(filestore.NewMemory())
	require.NoError(t, storage.Save(ctx, []domain.Item{cartLine("local-item", 2, 5, 100)}))

	session := NewSyncSession(auth.User("user-1"), broker.Client("user-1"), storage, nil, time.Second, 1)
	session.Initialize(ctx)

	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "server-item", items[0].ProductID)

	// The initial load is never persisted.
	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "local-item", persisted[0].ProductID)
}

func TestMutationAdoptsServerEcho(t *testing.T) {
	ctx := context.Background()
	broker := transport.NewBroker()
	defer broker.Close()
	svc := NewCartService(newMemoryCartRepo())
	serveCarts(t, broker, svc)

	storage := localstorage.New(filestore.NewMemory())
	session := NewSyncSession(auth.User("user-1"), broker.Client("user-1"), storage, nil, time.Second, 1)
	session.Initialize(ctx)

	require.NoError(t, session.Add(ctx, cartLine("p1", 2, 10, 250)))

	items := session.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, StateIdle, session.State())

	// The echo was persisted.
	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)

	// The server cart agrees.
	serverItems, err := svc.GetItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, serverItems, 1)
}

func TestServerRejectionLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	broker := transport.NewBroker()
	defer broker.Close()
	svc := NewCartService(newMemoryCartRepo())
	serveCarts(t, broker, svc)

	storage := localstorage.New(filestore.NewMemory())
	session := NewSyncSession(auth.User("user-1"), broker.Client("user-1"), storage, nil, time.Second, 1)
	session.Initialize(ctx)

	err := session.Add(ctx, cartLine("p1", 10, 2, 250))

	assert.ErrorIs(t, err, domain.ErrCartRejected)
	assert.Empty(t, session.Items())
	assert.Equal(t, StateIdle, session.State())
}

func TestEchoTimeoutRetriesOnceThenStalls(t *testing.T) {
	ctx := context.Background()
	// No server is attached: requests pile up unanswered.
	broker := transport.NewBroker()
	defer broker.Close()

	storage := localstorage.New(filestore.NewMemory())
	session := NewSyncSession(auth.User("user-1"), broker.Client("user-1"), storage, nil, echoTimeout, 1)

	require.NoError(t, session.Add(ctx, cartLine("p1", 1, 5, 100)))

	assert.Equal(t, StateStalled, session.State())
	// The mutation still landed locally and was persisted.
	require.Len(t, session.Items(), 1)
	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)

	// Exactly two sends: the original and one retry.
	requests, err := broker.Requests(ctx)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		select {
		case req := <-requests:
			assert.Equal(t, domain.TypeAddToCart, req.Event.EventType())
		case <-time.After(time.Second):
			t.Fatal("expected a buffered cart request")
		}
	}
	select {
	case req := <-requests:
		t.Fatalf("unexpected extra request %s", req.Event.EventType())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStallClearsOnNextSuccessfulEcho(t *testing.T) {
	ctx := context.Background()
	broker := transport.NewBroker()
	defer broker.Close()

	storage := localstorage.New(filestore.NewMemory())
	session := NewSyncSession(auth.User("user-1"), broker.Client("user-1"), storage, nil, echoTimeout, 1)

	require.NoError(t, session.Add(ctx, cartLine("p1", 1, 5, 100)))
	require.Equal(t, StateStalled, session.State())

	// Drain the unanswered requests, then bring the server up.
	requests, err := broker.Requests(ctx)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		<-requests
	}
	svc := NewCartService(newMemoryCartRepo())
	serveCarts(t, broker, svc)

	require.NoError(t, session.Add(ctx, cartLine("p2", 1, 5, 50)))
	assert.Equal(t, StateIdle, session.State())
}
