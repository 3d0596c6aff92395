package channel

import (
	"context"
	"testing"
	"time"

	"github.com/punjabheritage/storefront/internal/cart/application"
	"github.com/punjabheritage/storefront/internal/cart/domain"
	transport "github.com/punjabheritage/storefront/internal/cart/infrastructure/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCartRepo struct {
	carts  map[string]*domain.Cart
	nextID uint
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*domain.Cart)}
}

func (r *fakeCartRepo) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, ok := r.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *cart
	clone.Items = append([]domain.CartItem(nil), cart.Items...)
	return &clone, nil
}

func (r *fakeCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == 0 {
		r.nextID++
		cart.ID = r.nextID
	}
	clone := *cart
	clone.Items = append([]domain.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &clone
	return nil
}

func (r *fakeCartRepo) Delete(ctx context.Context, userID string) error {
	delete(r.carts, userID)
	return nil
}

func startDispatcher(t *testing.T) (*transport.Broker, context.CancelFunc) {
	t.Helper()
	broker := transport.NewBroker()
	d := NewDispatcher(application.NewCartService(newFakeCartRepo()), broker)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	return broker, func() {
		cancel()
		broker.Close()
	}
}

func waitEvent(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cart event")
		return nil
	}
}

func sampleItem(qty, stock int) domain.Item {
	return domain.Item{
		ProductID: "p1",
		Name:      "Phulkari Dupatta",
		Price:     1499,
		Quantity:  qty,
		Size:      "M",
		Color:     "Red",
		Stock:     stock,
	}
}

func TestDispatcherLoadsEmptyCart(t *testing.T) {
	broker, stop := startDispatcher(t)
	defer stop()
	client := broker.Client("user-1")

	require.NoError(t, client.Send(context.Background(), domain.GetCart{}))

	loaded, ok := waitEvent(t, client.Receive()).(domain.CartLoaded)
	require.True(t, ok)
	assert.Empty(t, loaded.Items)
	assert.Zero(t, loaded.ItemCount)
}

func TestDispatcherEchoesAuthoritativeCartAfterAdd(t *testing.T) {
	broker, stop := startDispatcher(t)
	defer stop()
	client := broker.Client("user-1")
	ctx := context.Background()

	require.NoError(t, client.Send(ctx, domain.AddToCart{Item: sampleItem(2, 5)}))
	updated, ok := waitEvent(t, client.Receive()).(domain.CartUpdated)
	require.True(t, ok)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 2, updated.ItemCount)
	assert.InDelta(t, 2998, updated.Total, 0.001)

	// Same composite identity merges instead of adding a line.
	require.NoError(t, client.Send(ctx, domain.AddToCart{Item: sampleItem(1, 5)}))
	updated, ok = waitEvent(t, client.Receive()).(domain.CartUpdated)
	require.True(t, ok)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 3, updated.Items[0].Quantity)
}

func TestDispatcherRejectsOverstock(t *testing.T) {
	broker, stop := startDispatcher(t)
	defer stop()
	client := broker.Client("user-1")
	ctx := context.Background()

	require.NoError(t, client.Send(ctx, domain.AddToCart{Item: sampleItem(10, 2)}))
	cartErr, ok := waitEvent(t, client.Receive()).(domain.CartError)
	require.True(t, ok)
	assert.Equal(t, "insufficient-stock", cartErr.Code)

	// The cart is untouched.
	require.NoError(t, client.Send(ctx, domain.GetCart{}))
	loaded, ok := waitEvent(t, client.Receive()).(domain.CartLoaded)
	require.True(t, ok)
	assert.Empty(t, loaded.Items)
}

func TestDispatcherClearsCart(t *testing.T) {
	broker, stop := startDispatcher(t)
	defer stop()
	client := broker.Client("user-1")
	ctx := context.Background()

	require.NoError(t, client.Send(ctx, domain.AddToCart{Item: sampleItem(1, 5)}))
	waitEvent(t, client.Receive())

	require.NoError(t, client.Send(ctx, domain.ClearCart{}))
	_, ok := waitEvent(t, client.Receive()).(domain.CartCleared)
	require.True(t, ok)
}

func TestDispatcherDemandsIdentity(t *testing.T) {
	broker, stop := startDispatcher(t)
	defer stop()
	client := broker.Client("")

	require.NoError(t, client.Send(context.Background(), domain.GetCart{}))
	_, ok := waitEvent(t, client.Receive()).(domain.AuthRequired)
	require.True(t, ok)
}
