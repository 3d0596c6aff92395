package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/punjabheritage/storefront/internal/cart/domain"
)

var errBrokerClosed = errors.New("cart channel broker closed")

// Broker is an in-process loopback transport. It implements the server end
// directly; Client hands out shopper ends bound to it.
type Broker struct {
	mu       sync.Mutex
	requests chan domain.Request
	clients  map[string][]*MemoryClient
	closed   bool
}

func NewBroker() *Broker {
	return &Broker{
		requests: make(chan domain.Request, 64),
		clients:  make(map[string][]*MemoryClient),
	}
}

func (b *Broker) Requests(ctx context.Context) (<-chan domain.Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBrokerClosed
	}
	return b.requests, nil
}

func (b *Broker) Emit(ctx context.Context, userID string, event domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBrokerClosed
	}
	for _, c := range b.clients[userID] {
		select {
		case c.events <- event:
		default:
		}
	}
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.requests)
	for _, clients := range b.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	b.clients = map[string][]*MemoryClient{}
	return nil
}

// Client returns a shopper end bound to this broker.
func (b *Broker) Client(userID string) *MemoryClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &MemoryClient{
		broker: b,
		userID: userID,
		events: make(chan domain.Event, 16),
	}
	b.clients[userID] = append(b.clients[userID], c)
	return c
}

type MemoryClient struct {
	broker *Broker
	userID string
	events chan domain.Event
	closed bool
}

func (c *MemoryClient) Connected() bool {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return !c.broker.closed && !c.closed
}

func (c *MemoryClient) Send(ctx context.Context, event domain.Event) error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	if c.broker.closed || c.closed {
		return errBrokerClosed
	}
	select {
	case c.broker.requests <- domain.Request{UserID: c.userID, Event: event}:
		return nil
	default:
		return errors.New("cart request buffer full")
	}
}

func (c *MemoryClient) Receive() <-chan domain.Event { return c.events }

func (c *MemoryClient) Close() error {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	peers := c.broker.clients[c.userID]
	for i, peer := range peers {
		if peer == c {
			c.broker.clients[c.userID] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	close(c.events)
	return nil
}
