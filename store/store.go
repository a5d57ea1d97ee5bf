// Package store persists assembled plans in Redis so downstream consumers
// (report formatters, dashboards) can fetch the latest plan or subscribe
// to new ones without touching the engine.
package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/patchplan-ai/engine/plan"
)

// ErrPlanNotFound is returned when the requested plan does not exist.
var ErrPlanNotFound = errors.New("store: plan not found")

const (
	planKeyPrefix = "patchplan:plan:"
	latestKey     = "patchplan:latest"
	planChannel   = "patchplan:plans"
)

// Store defines plan persistence and publication.
type Store interface {
	// Save persists the plan by ID and marks it as the latest.
	Save(ctx context.Context, p *plan.Plan) error

	// Get returns a plan by ID, or ErrPlanNotFound.
	Get(ctx context.Context, id string) (*plan.Plan, error)

	// Latest returns the most recently saved plan, or ErrPlanNotFound.
	Latest(ctx context.Context) (*plan.Plan, error)

	// Publish sends the plan to the plan pub/sub channel.
	Publish(ctx context.Context, p *plan.Plan) error

	// Subscribe streams newly published plans until the context is
	// cancelled.
	Subscribe(ctx context.Context) (<-chan *plan.Plan, error)

	// Close closes the underlying connection.
	Close() error
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection
	// establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// RedisStore implements Store using go-redis/v9.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a plan store backed by the Redis instance at
// opts.URL and verifies connectivity.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Save persists the plan under its ID and points the latest key at it.
func (s *RedisStore) Save(ctx context.Context, p *plan.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	if err := s.client.Set(ctx, planKeyPrefix+p.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save plan %s: %w", p.ID, err)
	}
	if err := s.client.Set(ctx, latestKey, p.ID, 0).Err(); err != nil {
		return fmt.Errorf("failed to update latest plan pointer: %w", err)
	}
	return nil
}

// Get returns the plan stored under the given ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	data, err := s.client.Get(ctx, planKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan %s: %w", id, err)
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan %s: %w", id, err)
	}
	return &p, nil
}

// Latest returns the most recently saved plan.
func (s *RedisStore) Latest(ctx context.Context) (*plan.Plan, error) {
	id, err := s.client.Get(ctx, latestKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to resolve latest plan: %w", err)
	}
	return s.Get(ctx, id)
}

// Publish sends the plan to the plan channel for subscribers.
func (s *RedisStore) Publish(ctx context.Context, p *plan.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := s.client.Publish(ctx, planChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish plan %s: %w", p.ID, err)
	}
	return nil
}

// Subscribe creates a subscription to the plan channel. The returned
// channel closes when the context is cancelled.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan *plan.Plan, error) {
	pubsub := s.client.Subscribe(ctx, planChannel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to plan channel: %w", err)
	}

	plans := make(chan *plan.Plan)

	go func() {
		defer close(plans)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var p plan.Plan
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					// Skip malformed payloads but keep the subscription alive.
					continue
				}

				select {
				case plans <- &p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return plans, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
