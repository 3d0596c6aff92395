package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/punjabheritage/storefront/internal/order/domain"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
)

// Service owns checkout and order management with the same dual-backend
// discipline as the catalog: the document database is primary, the file
// store keeps a copy, and a single unreachable backend never fails an
// operation.
type Service struct {
	orders   domain.OrderRepository
	fallback domain.FallbackStore
	gateway  domain.PaymentGateway
	events   domain.EventPublisher
	topic    string
	metrics  *metrics.Metrics
	now      func() time.Time
	suffix   func() string
}

func NewService(orders domain.OrderRepository, fallback domain.FallbackStore, gateway domain.PaymentGateway, events domain.EventPublisher, topic string, m *metrics.Metrics) *Service {
	return &Service{
		orders:   orders,
		fallback: fallback,
		gateway:  gateway,
		events:   events,
		topic:    topic,
		metrics:  m,
		now:      time.Now,
		suffix:   func() string { return uuid.NewString()[:6] },
	}
}

type CheckoutCommand struct {
	UserID          string
	Customer        domain.Customer
	ShippingAddress domain.Address
	Items           []domain.LineItem
	PaymentMethod   domain.PaymentMethod
	Notes           string
}

// Checkout freezes the draft into an order, charges online payments
// through the gateway, stores the order in both backends and announces it
// on the bus.
func (s *Service) Checkout(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error) {
	order, err := domain.NewOrder(cmd.UserID, cmd.Customer, cmd.ShippingAddress, cmd.Items, cmd.PaymentMethod, s.now(), s.suffix())
	if err != nil {
		return nil, err
	}
	order.Notes = cmd.Notes

	// COD and bank transfer stay pending until settled out of band.
	if cmd.PaymentMethod == domain.PaymentRazorpay {
		ref, err := s.gateway.Charge(ctx, order.Number, order.Total, cmd.PaymentMethod)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
		}
		order.PaymentStatus = domain.PaymentPaid
		order.PaymentRef = ref
	}

	dbErr := s.orders.Insert(ctx, order)
	if dbErr != nil {
		pkglogger.Warn(ctx, "failed to save order to database", "order", order.Number, "error", dbErr)
		order.ID = domain.SurrogateID(s.now())
	}

	fbOrders, fbErr := s.fallback.GetOrders(ctx)
	if fbErr == nil {
		fbOrders = append(fbOrders, *order)
		fbErr = s.fallback.SaveOrders(ctx, fbOrders)
	}
	if fbErr != nil {
		pkglogger.Warn(ctx, "failed to save order to fallback store", "order", order.Number, "error", fbErr)
		if dbErr != nil {
			return nil, domain.ErrNoStorage
		}
	}

	if s.metrics != nil {
		s.metrics.OrdersTotal.Inc()
		s.metrics.OrderRevenue.Add(order.Total)
	}
	s.publish(ctx, order.Number, domain.OrderCreated{
		Event:         domain.EventOrderCreated,
		Number:        order.Number,
		CustomerName:  order.Customer.Name,
		CustomerEmail: order.Customer.Email,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt,
	})
	return order, nil
}

// List returns all orders, newest first, from the database when it
// answers and from the fallback store otherwise.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err == nil {
		return orders, nil
	}
	pkglogger.Warn(ctx, "database unavailable, listing orders from fallback store", "error", err)

	fbOrders, fbErr := s.fallback.GetOrders(ctx)
	if fbErr != nil {
		return nil, fmt.Errorf("list orders: %w", fbErr)
	}
	// Fallback appends chronologically; reverse for newest first.
	for i, j := 0, len(fbOrders)-1; i < j; i, j = i+1, j-1 {
		fbOrders[i], fbOrders[j] = fbOrders[j], fbOrders[i]
	}
	return fbOrders, nil
}

// GetByNumber looks the order up in the database first, then the fallback
// store.
func (s *Service) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) {
		pkglogger.Warn(ctx, "database unavailable for order lookup", "order", number, "error", err)
	}

	fbOrders, fbErr := s.fallback.GetOrders(ctx)
	if fbErr != nil {
		return nil, domain.ErrOrderNotFound
	}
	for i := range fbOrders {
		if fbOrders[i].Number == number {
			return &fbOrders[i], nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// UpdateStatus applies the transition to both stores best-effort and
// returns the database view when available, the fallback view otherwise.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status, tracking string) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	var dbView *domain.Order
	if updated, err := s.orders.UpdateStatus(ctx, id, status, tracking); err != nil {
		pkglogger.Warn(ctx, "failed to update order status in database", "id", id, "error", err)
	} else {
		dbView = updated
	}

	fbView := s.updateFallbackStatus(ctx, id, status, tracking)

	if dbView != nil {
		return dbView, nil
	}
	if fbView != nil {
		return fbView, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (s *Service) updateFallbackStatus(ctx context.Context, id string, status domain.Status, tracking string) *domain.Order {
	fbOrders, err := s.fallback.GetOrders(ctx)
	if err != nil {
		pkglogger.Warn(ctx, "failed to read fallback store for status update", "id", id, "error", err)
		return nil
	}

	for i := range fbOrders {
		if fbOrders[i].ID != id {
			continue
		}
		fbOrders[i].Status = status
		if tracking != "" {
			fbOrders[i].TrackingNumber = tracking
		}
		fbOrders[i].UpdatedAt = s.now().UTC()
		if err := s.fallback.SaveOrders(ctx, fbOrders); err != nil {
			pkglogger.Warn(ctx, "failed to update order status in fallback store", "id", id, "error", err)
			return nil
		}
		updated := fbOrders[i]
		return &updated
	}
	return nil
}

func (s *Service) publish(ctx context.Context, key string, event any) {
	if s.events == nil || s.topic == "" {
		return
	}
	if err := s.events.Publish(ctx, s.topic, key, event); err != nil {
		pkglogger.Warn(ctx, "failed to publish order event", "key", key, "error", err)
	}
}
