package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one tagged variant of the cart channel protocol. Server pushes
// carry the full authoritative item list; client requests carry only the
// mutation parameters.
type Event interface {
	EventType() string
}

// Server push events.
const (
	TypeCartLoaded   = "cart-loaded"
	TypeCartUpdated  = "cart-updated"
	TypeCartCleared  = "cart-cleared"
	TypeCartError    = "cart-error"
	TypeAuthRequired = "auth-required"
)

// Client mutation requests.
const (
	TypeAddToCart      = "add-to-cart"
	TypeRemoveFromCart = "remove-from-cart"
	TypeUpdateCartItem = "update-cart-item"
	TypeClearCart      = "clear-cart"
	TypeGetCart        = "get-cart"
)

type CartLoaded struct {
	Items     []Item  `json:"items"`
	ItemCount int     `json:"itemCount"`
	Total     float64 `json:"total"`
}

func (CartLoaded) EventType() string { return TypeCartLoaded }

type CartUpdated struct {
	Items     []Item  `json:"items"`
	ItemCount int     `json:"itemCount"`
	Total     float64 `json:"total"`
}

func (CartUpdated) EventType() string { return TypeCartUpdated }

type CartCleared struct {
	ClearedAt time.Time `json:"clearedAt"`
}

func (CartCleared) EventType() string { return TypeCartCleared }

type CartError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (CartError) EventType() string { return TypeCartError }

type AuthRequired struct{}

func (AuthRequired) EventType() string { return TypeAuthRequired }

type AddToCart struct {
	Item Item `json:"item"`
}

func (AddToCart) EventType() string { return TypeAddToCart }

type RemoveFromCart struct {
	ProductID string `json:"id"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

func (RemoveFromCart) EventType() string { return TypeRemoveFromCart }

type UpdateCartItem struct {
	ProductID string `json:"id"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (UpdateCartItem) EventType() string { return TypeUpdateCartItem }

type ClearCart struct{}

func (ClearCart) EventType() string { return TypeClearCart }

type GetCart struct{}

func (GetCart) EventType() string { return TypeGetCart }

// Envelope is the wire frame: the variant tag, the shopper it concerns and
// the variant payload.
type Envelope struct {
	Type   string          `json:"type"`
	UserID string          `json:"userId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Encode frames the event for the wire.
func Encode(userID string, e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cart event %s: %w", e.EventType(), err)
	}
	return json.Marshal(Envelope{Type: e.EventType(), UserID: userID, Data: data})
}

// Decode parses a wire frame back into its typed variant. Unknown tags are
// an error; the protocol has no catch-all payloads.
func Decode(raw []byte) (string, Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal cart envelope: %w", err)
	}

	event, err := decodeVariant(env.Type, env.Data)
	if err != nil {
		return "", nil, err
	}
	return env.UserID, event, nil
}

func decodeVariant(tag string, data json.RawMessage) (Event, error) {
	var event Event
	switch tag {
	case TypeCartLoaded:
		event = &CartLoaded{}
	case TypeCartUpdated:
		event = &CartUpdated{}
	case TypeCartCleared:
		event = &CartCleared{}
	case TypeCartError:
		event = &CartError{}
	case TypeAuthRequired:
		event = &AuthRequired{}
	case TypeAddToCart:
		event = &AddToCart{}
	case TypeRemoveFromCart:
		event = &RemoveFromCart{}
	case TypeUpdateCartItem:
		event = &UpdateCartItem{}
	case TypeClearCart:
		event = &ClearCart{}
	case TypeGetCart:
		event = &GetCart{}
	default:
		return nil, fmt.Errorf("unknown cart event type %q", tag)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, event); err != nil {
			return nil, fmt.Errorf("unmarshal cart event %s: %w", tag, err)
		}
	}
	return deref(event), nil
}

// deref returns the value variant so callers can type-switch on concrete
// structs rather than pointers.
func deref(e Event) Event {
	switch v := e.(type) {
	case *CartLoaded:
		return *v
	case *CartUpdated:
		return *v
	case *CartCleared:
		return *v
	case *CartError:
		return *v
	case *AuthRequired:
		return *v
	case *AddToCart:
		return *v
	case *RemoveFromCart:
		return *v
	case *UpdateCartItem:
		return *v
	case *ClearCart:
		return *v
	case *GetCart:
		return *v
	default:
		return e
	}
}
