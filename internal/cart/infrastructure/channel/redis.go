// Package channel carries the real-time cart protocol. The redis
// implementation is the production transport; the in-memory broker serves
// tests and single-process deployments.
package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/punjabheritage/storefront/internal/cart/domain"
	"github.com/punjabheritage/storefront/pkg/cache"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// All client mutations share one request channel; the envelope carries the
// shopper id. Pushes go to a per-shopper channel.
const requestsChannel = "cart.requests"

func eventsChannel(userID string) string {
	return "cart.events." + userID
}

// RedisClient is the shopper-side end over redis pub/sub.
type RedisClient struct {
	cache  *cache.RedisCache
	userID string
	sub    *redis.PubSub
	events chan domain.Event
}

func NewRedisClient(ctx context.Context, rc *cache.RedisCache, userID string) (*RedisClient, error) {
	sub := rc.Subscribe(ctx, eventsChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe cart events: %w", err)
	}

	c := &RedisClient{
		cache:  rc,
		userID: userID,
		sub:    sub,
		events: make(chan domain.Event, 16),
	}
	go c.pump()
	return c, nil
}

func (c *RedisClient) pump() {
	defer close(c.events)
	for msg := range c.sub.Channel() {
		_, event, err := domain.Decode([]byte(msg.Payload))
		if err != nil {
			pkglogger.Warn(context.Background(), "dropping undecodable cart event", "error", err)
			continue
		}
		select {
		case c.events <- event:
		default:
			pkglogger.Warn(context.Background(), "cart event buffer full, dropping event", "type", event.EventType())
		}
	}
}

func (c *RedisClient) Connected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.cache.GetClient().Ping(ctx).Err() == nil
}

func (c *RedisClient) Send(ctx context.Context, event domain.Event) error {
	payload, err := domain.Encode(c.userID, event)
	if err != nil {
		return err
	}
	return c.cache.Publish(ctx, requestsChannel, payload)
}

func (c *RedisClient) Receive() <-chan domain.Event { return c.events }

func (c *RedisClient) Close() error { return c.sub.Close() }

// RedisServer is the service-side end.
type RedisServer struct {
	cache *cache.RedisCache
	sub   *redis.PubSub
}

func NewRedisServer(rc *cache.RedisCache) *RedisServer {
	return &RedisServer{cache: rc}
}

func (s *RedisServer) Requests(ctx context.Context) (<-chan domain.Request, error) {
	s.sub = s.cache.Subscribe(ctx, requestsChannel)
	if _, err := s.sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe cart requests: %w", err)
	}

	out := make(chan domain.Request, 64)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-s.sub.Channel():
				if !ok {
					return
				}
				userID, event, err := domain.Decode([]byte(msg.Payload))
				if err != nil {
					pkglogger.Warn(ctx, "dropping undecodable cart request", "error", err)
					continue
				}
				out <- domain.Request{UserID: userID, Event: event}
			}
		}
	}()
	return out, nil
}

func (s *RedisServer) Emit(ctx context.Context, userID string, event domain.Event) error {
	payload, err := domain.Encode(userID, event)
	if err != nil {
		return err
	}
	return s.cache.Publish(ctx, eventsChannel(userID), payload)
}

func (s *RedisServer) Close() error {
	if s.sub != nil {
		return s.sub.Close()
	}
	return nil
}
