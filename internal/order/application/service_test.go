package application

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/punjabheritage/storefront/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errDown = errors.New("connection refused")

type fakeOrderRepo struct {
	orders map[string]domain.Order
	order  []string
	down   bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]domain.Order)}
}

func (r *fakeOrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	if r.down {
		return errDown
	}
	o.ObjectID = primitive.NewObjectID()
	o.ID = o.ObjectID.Hex()
	r.orders[o.ID] = *o
	r.order = append(r.order, o.ID)
	return nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	if r.down {
		return nil, errDown
	}
	var out []domain.Order
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.orders[r.order[i]])
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if r.down {
		return nil, errDown
	}
	for _, o := range r.orders {
		if o.Number == number {
			found := o
			return &found, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.Status, tracking string) (*domain.Order, error) {
	if r.down {
		return nil, errDown
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Status = status
	if tracking != "" {
		o.TrackingNumber = tracking
	}
	r.orders[id] = o
	return &o, nil
}

type fakeOrderFallback struct {
	orders []domain.Order
	down   bool
}

func (f *fakeOrderFallback) GetOrders(ctx context.Context) ([]domain.Order, error) {
	if f.down {
		return nil, errDown
	}
	out := make([]domain.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeOrderFallback) SaveOrders(ctx context.Context, orders []domain.Order) error {
	if f.down {
		return errDown
	}
	f.orders = make([]domain.Order, len(orders))
	copy(f.orders, orders)
	return nil
}

type fakeGateway struct {
	charges int
	fail    bool
}

func (g *fakeGateway) Charge(ctx context.Context, orderNumber string, amount float64, method domain.PaymentMethod) (string, error) {
	g.charges++
	if g.fail {
		return "", errors.New("card declined")
	}
	return "txn_test", nil
}

func checkoutCmd(method domain.PaymentMethod, items ...domain.LineItem) CheckoutCommand {
	return CheckoutCommand{
		Customer: domain.Customer{Name: "Harpreet Kaur", Email: "harpreet@example.com", Phone: "+91 98765 43210"},
		ShippingAddress: domain.Address{
			Line1:      "12 Mall Road",
			City:       "Amritsar",
			State:      "Punjab",
			PostalCode: "143001",
			Country:    "IN",
		},
		Items:         items,
		PaymentMethod: method,
	}
}

func orderLine(price float64, qty int) domain.LineItem {
	return domain.LineItem{
		ProductID: "p1",
		Name:      "Phulkari Dupatta",
		Price:     price,
		Quantity:  qty,
		Size:      "M",
		Color:     "Red",
	}
}

func setupOrders() (*Service, *fakeOrderRepo, *fakeOrderFallback, *fakeGateway) {
	repo := newFakeOrderRepo()
	fb := &fakeOrderFallback{}
	gw := &fakeGateway{}
	svc := NewService(repo, fb, gw, nil, "", nil)
	svc.suffix = func() string { return "abc123" }
	return svc, repo, fb, gw
}

func TestCheckoutComputesTotalsWithFreeShipping(t *testing.T) {
	svc, _, _, _ := setupOrders()

	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(1499, 2)))

	require.NoError(t, err)
	assert.InDelta(t, 2998, order.Subtotal, 0.001)
	assert.Zero(t, order.Shipping)
	assert.InDelta(t, 149.90, order.Tax, 0.001)
	assert.InDelta(t, 3147.90, order.Total, 0.001)
	assert.Regexp(t, regexp.MustCompile(`^PH-\d+-ABC123$`), order.Number)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
}

func TestCheckoutFlatShippingUnderThreshold(t *testing.T) {
	svc, _, _, _ := setupOrders()

	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(899, 1)))

	require.NoError(t, err)
	assert.InDelta(t, 899, order.Subtotal, 0.001)
	assert.InDelta(t, 99, order.Shipping, 0.001)
	assert.InDelta(t, 44.95, order.Tax, 0.001)
	assert.InDelta(t, 1042.95, order.Total, 0.001)
}

func TestCheckoutWritesBothStores(t *testing.T) {
	svc, repo, fb, _ := setupOrders()

	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))

	require.NoError(t, err)
	assert.Contains(t, repo.orders, order.ID)
	require.Len(t, fb.orders, 1)
	assert.Equal(t, order.ID, fb.orders[0].ID)
}

func TestCheckoutSurvivesDatabaseOutage(t *testing.T) {
	svc, repo, fb, _ := setupOrders()
	repo.down = true

	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d+$`), order.ID)
	require.Len(t, fb.orders, 1)
	assert.Equal(t, order.ID, fb.orders[0].ID)
}

func TestCheckoutFailsWhenBothStoresDown(t *testing.T) {
	svc, repo, fb, _ := setupOrders()
	repo.down = true
	fb.down = true

	_, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))

	assert.ErrorIs(t, err, domain.ErrNoStorage)
}

func TestCheckoutChargesOnlinePayments(t *testing.T) {
	svc, _, _, gw := setupOrders()

	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentRazorpay, orderLine(500, 1)))

	require.NoError(t, err)
	assert.Equal(t, 1, gw.charges)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "txn_test", order.PaymentRef)
}

func TestCheckoutRejectsDeclinedPayment(t *testing.T) {
	svc, repo, fb, gw := setupOrders()
	gw.fail = true

	_, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentRazorpay, orderLine(500, 1)))

	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	assert.Empty(t, repo.orders)
	assert.Empty(t, fb.orders)
}

func TestCheckoutRejectsEmptyOrder(t *testing.T) {
	svc, _, _, _ := setupOrders()
	_, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD))
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestOrderSnapshotIsImmutable(t *testing.T) {
	svc, repo, _, _ := setupOrders()
	lines := []domain.LineItem{orderLine(1000, 1)}
	cmd := checkoutCmd(domain.PaymentCOD, lines...)

	order, err := svc.Checkout(context.Background(), cmd)
	require.NoError(t, err)

	// A later catalog price change must not reach the stored order.
	lines[0].Price = 1
	stored := repo.orders[order.ID]
	assert.InDelta(t, 1000, stored.Items[0].Price, 0.001)
	assert.InDelta(t, 1000, stored.Subtotal, 0.001)
	assert.InDelta(t, 1000, order.Items[0].Price, 0.001)
}

func TestListFallsBackWhenDatabaseDown(t *testing.T) {
	svc, repo, _, _ := setupOrders()
	_, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))
	require.NoError(t, err)
	repo.down = true

	orders, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestUpdateStatusPrefersDatabaseView(t *testing.T) {
	svc, repo, fb, _ := setupOrders()
	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, domain.StatusShipped, "TRK-42")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, updated.Status)
	assert.Equal(t, "TRK-42", updated.TrackingNumber)
	assert.Equal(t, domain.StatusShipped, repo.orders[order.ID].Status)
	assert.Equal(t, domain.StatusShipped, fb.orders[0].Status)
}

func TestUpdateStatusReachesFallbackOnlyOrders(t *testing.T) {
	svc, repo, _, _ := setupOrders()
	repo.down = true
	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, domain.StatusConfirmed, "")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := setupOrders()
	_, err := svc.UpdateStatus(context.Background(), "any", domain.Status("teleported"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, _, _, _ := setupOrders()
	_, err := svc.UpdateStatus(context.Background(), "missing", domain.StatusShipped, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetByNumberChecksFallback(t *testing.T) {
	svc, repo, _, _ := setupOrders()
	repo.down = true
	order, err := svc.Checkout(context.Background(), checkoutCmd(domain.PaymentCOD, orderLine(500, 1)))
	require.NoError(t, err)

	found, err := svc.GetByNumber(context.Background(), order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetByNumber(context.Background(), "PH-0-NOPE")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// The surrogate ids are clock-based; pin the clock to keep them distinct
// from real ids in assertions above.
func TestSurrogateIDFormat(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "1772359200000", domain.SurrogateID(at))
}
