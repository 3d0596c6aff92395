package domain

import "context"

// Channel is the shopper-side end of the real-time cart link. Delivery is
// best effort: a request may never be answered, so callers bound their wait.
type Channel interface {
	// Connected reports whether the link is currently usable. A false
	// answer routes the session to its local-only path.
	Connected() bool
	// Send emits a mutation request to the server.
	Send(ctx context.Context, event Event) error
	// Receive yields server push events for this shopper. The channel is
	// closed when the link shuts down.
	Receive() <-chan Event
	Close() error
}

// Request is one client mutation as seen by the server side of the link.
type Request struct {
	UserID string
	Event  Event
}

// ServerChannel is the service-side end of the link.
type ServerChannel interface {
	// Requests subscribes to incoming client mutations.
	Requests(ctx context.Context) (<-chan Request, error)
	// Emit pushes an event to one shopper.
	Emit(ctx context.Context, userID string, event Event) error
	Close() error
}
