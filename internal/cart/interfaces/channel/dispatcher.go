// Package channel dispatches client cart requests arriving over the
// real-time link to the cart service and pushes the authoritative echo
// back to the shopper.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/punjabheritage/storefront/internal/cart/application"
	"github.com/punjabheritage/storefront/internal/cart/domain"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
)

type handlerFunc func(ctx context.Context, userID string, event domain.Event) domain.Event

type Dispatcher struct {
	app      *application.CartService
	server   domain.ServerChannel
	handlers map[string]handlerFunc
}

func NewDispatcher(app *application.CartService, server domain.ServerChannel) *Dispatcher {
	d := &Dispatcher{app: app, server: server}
	d.handlers = map[string]handlerFunc{
		domain.TypeGetCart:        d.getCart,
		domain.TypeAddToCart:      d.addToCart,
		domain.TypeUpdateCartItem: d.updateItem,
		domain.TypeRemoveFromCart: d.removeItem,
		domain.TypeClearCart:      d.clearCart,
	}
	return d
}

// Run consumes requests until the context is cancelled or the transport
// closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	requests, err := d.server.Requests(ctx)
	if err != nil {
		return err
	}
	for req := range requests {
		d.handle(ctx, req)
	}
	return ctx.Err()
}

func (d *Dispatcher) handle(ctx context.Context, req domain.Request) {
	if req.UserID == "" {
		d.emit(ctx, req.UserID, domain.AuthRequired{})
		return
	}

	handler, ok := d.handlers[req.Event.EventType()]
	if !ok {
		// Server pushes looping back on the request channel are ignored.
		return
	}
	d.emit(ctx, req.UserID, handler(ctx, req.UserID, req.Event))
}

func (d *Dispatcher) emit(ctx context.Context, userID string, event domain.Event) {
	if event == nil {
		return
	}
	if err := d.server.Emit(ctx, userID, event); err != nil {
		pkglogger.Warn(ctx, "failed to push cart event", "user_id", userID, "type", event.EventType(), "error", err)
	}
}

func (d *Dispatcher) getCart(ctx context.Context, userID string, _ domain.Event) domain.Event {
	items, err := d.app.GetItems(ctx, userID)
	if err != nil {
		return errorEvent(err)
	}
	count, total := domain.Totals(items)
	return domain.CartLoaded{Items: items, ItemCount: count, Total: total}
}

func (d *Dispatcher) addToCart(ctx context.Context, userID string, event domain.Event) domain.Event {
	req, ok := event.(domain.AddToCart)
	if !ok {
		return errorEvent(errors.New("malformed add-to-cart payload"))
	}
	items, err := d.app.AddItem(ctx, userID, req.Item)
	if err != nil {
		return errorEvent(err)
	}
	return updatedEvent(items)
}

func (d *Dispatcher) updateItem(ctx context.Context, userID string, event domain.Event) domain.Event {
	req, ok := event.(domain.UpdateCartItem)
	if !ok {
		return errorEvent(errors.New("malformed update-cart-item payload"))
	}
	items, err := d.app.UpdateQuantity(ctx, userID, req.ProductID, req.Size, req.Color, req.Quantity)
	if err != nil {
		return errorEvent(err)
	}
	return updatedEvent(items)
}

func (d *Dispatcher) removeItem(ctx context.Context, userID string, event domain.Event) domain.Event {
	req, ok := event.(domain.RemoveFromCart)
	if !ok {
		return errorEvent(errors.New("malformed remove-from-cart payload"))
	}
	items, err := d.app.RemoveItem(ctx, userID, req.ProductID, req.Size, req.Color)
	if err != nil {
		return errorEvent(err)
	}
	return updatedEvent(items)
}

func (d *Dispatcher) clearCart(ctx context.Context, userID string, _ domain.Event) domain.Event {
	if err := d.app.Clear(ctx, userID); err != nil {
		return errorEvent(err)
	}
	return domain.CartCleared{ClearedAt: time.Now().UTC()}
}

func updatedEvent(items []domain.Item) domain.Event {
	count, total := domain.Totals(items)
	return domain.CartUpdated{Items: items, ItemCount: count, Total: total}
}

func errorEvent(err error) domain.Event {
	code := "cart-failure"
	if errors.Is(err, domain.ErrInsufficientStock) {
		code = "insufficient-stock"
	}
	return domain.CartError{Code: code, Message: err.Error()}
}
