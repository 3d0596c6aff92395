package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/punjabheritage/storefront/internal/auth"
	"github.com/punjabheritage/storefront/internal/cart/domain"
	"github.com/punjabheritage/storefront/internal/cart/infrastructure/localstorage"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/metrics"
)

// State is the session's sync status.
type State string

const (
	// StateIdle means the last operation settled.
	StateIdle State = "idle"
	// StateLoading means a server round trip is in flight.
	StateLoading State = "loading"
	// StateStalled means the last round trip timed out after a retry and
	// the mutation was applied locally instead. It clears on the next
	// successful echo.
	StateStalled State = "stalled"
)

// SyncSession keeps one shopper's cart consistent across local storage and
// the server cart. Authenticated shoppers with a live channel mutate
// through the server and adopt its echoes wholesale; guests and
// disconnected shoppers mutate locally. Either way the full item list is
// persisted after every change.
type SyncSession struct {
	mu       sync.Mutex
	identity auth.Context
	channel  domain.Channel
	storage  *localstorage.Storage
	metrics  *metrics.Metrics

	echoTimeout time.Duration
	echoRetries int

	items     []domain.Item
	itemCount int
	total     float64
	state     State
}

// NewSyncSession builds a session. channel may be nil for a pure-local
// session; identity decides whether it is ever used.
func NewSyncSession(identity auth.Context, ch domain.Channel, storage *localstorage.Storage, m *metrics.Metrics, echoTimeout time.Duration, echoRetries int) *SyncSession {
	if echoTimeout <= 0 {
		echoTimeout = 3 * time.Second
	}
	if echoRetries < 0 {
		echoRetries = 0
	}
	return &SyncSession{
		identity:    identity,
		channel:     ch,
		storage:     storage,
		metrics:     m,
		echoTimeout: echoTimeout,
		echoRetries: echoRetries,
		items:       []domain.Item{},
		state:       StateIdle,
	}
}

// Initialize loads the persisted cart and, for an authenticated connected
// shopper, requests the server cart, whose arrival replaces the local list
// outright. Nothing is persisted during initialization: the stored entry
// already holds what was read, and the server list becomes visible state
// only, so a reload before the next mutation shows the same local cart.
func (s *SyncSession) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.storage.Load(ctx)
	if err != nil {
		pkglogger.Warn(ctx, "discarding unreadable cart entry", "error", err)
		items = []domain.Item{}
		if err := s.storage.Clear(ctx); err != nil {
			pkglogger.Warn(ctx, "failed to reset cart entry", "error", err)
		}
	}
	s.setItems(ctx, items, false)

	if !s.online() {
		return
	}
	echo, ok := s.roundTrip(ctx, domain.GetCart{})
	if !ok {
		pkglogger.Warn(ctx, "server cart unavailable, keeping local cart", "user_id", s.identity.UserID)
		return
	}
	if loaded, isLoaded := echo.(domain.CartLoaded); isLoaded {
		s.setItems(ctx, loaded.Items, false)
	}
}

// Add merges the item into the cart.
func (s *SyncSession) Add(ctx context.Context, it domain.Item) error {
	return s.mutate(ctx, "add", domain.AddToCart{Item: it}, func(items []domain.Item) []domain.Item {
		return domain.MergeItem(items, it)
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *SyncSession) UpdateQuantity(ctx context.Context, productID, size, color string, qty int) error {
	req := domain.UpdateCartItem{ProductID: productID, Size: size, Color: color, Quantity: qty}
	return s.mutate(ctx, "update", req, func(items []domain.Item) []domain.Item {
		return domain.SetQuantity(items, productID, size, color, qty)
	})
}

// Remove drops the line with the given composite identity.
func (s *SyncSession) Remove(ctx context.Context, productID, size, color string) error {
	req := domain.RemoveFromCart{ProductID: productID, Size: size, Color: color}
	return s.mutate(ctx, "remove", req, func(items []domain.Item) []domain.Item {
		return domain.RemoveLine(items, productID, size, color)
	})
}

// Clear empties the cart.
func (s *SyncSession) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", domain.ClearCart{}, func([]domain.Item) []domain.Item {
		return []domain.Item{}
	})
}

// Items returns a copy of the current item list.
func (s *SyncSession) Items() []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *SyncSession) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCount
}

func (s *SyncSession) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *SyncSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SyncSession) mutate(ctx context.Context, kind string, req domain.Event, local func([]domain.Item) []domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.CartMutationsTotal.WithLabelValues(kind).Inc()
	}

	if s.online() {
		s.state = StateLoading
		echo, ok := s.roundTrip(ctx, req)
		if !ok {
			// Final timeout: surface the stall and fall back to the
			// local reducer so the shopper's action is not lost.
			s.state = StateStalled
			if s.metrics != nil {
				s.metrics.CartSyncStalls.Inc()
			}
			s.setItems(ctx, local(s.items), true)
			return nil
		}

		switch e := echo.(type) {
		case domain.CartLoaded:
			s.setItems(ctx, e.Items, true)
			s.state = StateIdle
			return nil
		case domain.CartUpdated:
			s.setItems(ctx, e.Items, true)
			s.state = StateIdle
			return nil
		case domain.CartCleared:
			s.setItems(ctx, nil, true)
			s.state = StateIdle
			return nil
		case domain.CartError:
			s.state = StateIdle
			return fmt.Errorf("%w: %s", domain.ErrCartRejected, e.Message)
		case domain.AuthRequired:
			pkglogger.Warn(ctx, "server requires authentication, applying cart mutation locally", "kind", kind)
		}
	}

	s.setItems(ctx, local(s.items), true)
	if s.state == StateLoading {
		s.state = StateIdle
	}
	return nil
}

// roundTrip sends the request and waits for any server push within the
// echo timeout, retrying while attempts remain. ok is false when every
// attempt timed out or the channel failed.
func (s *SyncSession) roundTrip(ctx context.Context, req domain.Event) (domain.Event, bool) {
	for attempt := 0; attempt <= s.echoRetries; attempt++ {
		if err := s.channel.Send(ctx, req); err != nil {
			pkglogger.Warn(ctx, "failed to send cart request", "type", req.EventType(), "error", err)
			return nil, false
		}

		timer := time.NewTimer(s.echoTimeout)
		select {
		case echo, open := <-s.channel.Receive():
			timer.Stop()
			if !open {
				return nil, false
			}
			return echo, true
		case <-timer.C:
			pkglogger.Warn(ctx, "cart echo timed out", "type", req.EventType(), "attempt", attempt+1)
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		}
	}
	return nil, false
}

func (s *SyncSession) online() bool {
	return s.identity.Authenticated && s.channel != nil && s.channel.Connected()
}

// setItems replaces the list and recomputes the derived totals. persist
// is false only during initialization.
func (s *SyncSession) setItems(ctx context.Context, items []domain.Item, persist bool) {
	if items == nil {
		items = []domain.Item{}
	}
	s.items = items
	s.itemCount, s.total = domain.Totals(items)

	if !persist {
		return
	}
	if err := s.storage.Save(ctx, items); err != nil {
		pkglogger.Warn(ctx, "failed to persist cart", "error", err)
	}
}
