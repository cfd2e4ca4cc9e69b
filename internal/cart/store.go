package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists one cart per employee register session.
type Store interface {
	Load(ctx context.Context, employeeID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, employeeID uuid.UUID, cart *Cart) error
	Delete(ctx context.Context, employeeID uuid.UUID) error
}

// Updater is implemented by stores that apply a cart read-modify-write as a
// single atomic step, so writers on other replicas cannot be overwritten.
type Updater interface {
	Update(ctx context.Context, employeeID uuid.UUID, fn func(*Cart) error) (*Cart, error)
}

// maxSwapAttempts bounds the optimistic retries of RedisStore.Update.
const maxSwapAttempts = 5

var errCartContended = errors.New("cart changed concurrently, retries exhausted")

// redisStore defines the operations used by RedisStore.
type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CompareAndSwap(ctx context.Context, key, expected, next string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(employeeID string) string
}

// RedisStore keeps carts as JSON documents with a sliding TTL.
type RedisStore struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed cart store.
func NewRedisStore(client redisStore, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart store")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Load returns an empty cart when none is stored.
func (s *RedisStore) Load(ctx context.Context, employeeID uuid.UUID) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(employeeID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return decodeCart(raw)
}

// Update reloads the stored cart, applies fn and writes the result only if the
// stored document is unchanged since the read. On conflict it starts over.
func (s *RedisStore) Update(ctx context.Context, employeeID uuid.UUID, fn func(*Cart) error) (*Cart, error) {
	key := s.client.CartKey(employeeID.String())
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		raw, err := s.client.Get(ctx, key)
		switch {
		case errors.Is(err, redis.Nil):
			raw = ""
		case err != nil:
			return nil, fmt.Errorf("read cart: %w", err)
		}
		cart := New()
		if raw != "" {
			if cart, err = decodeCart(raw); err != nil {
				return nil, err
			}
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		payload, err := json.Marshal(cart)
		if err != nil {
			return nil, fmt.Errorf("encode cart: %w", err)
		}
		swapped, err := s.client.CompareAndSwap(ctx, key, raw, string(payload), s.ttl)
		if err != nil {
			return nil, fmt.Errorf("write cart: %w", err)
		}
		if swapped {
			return cart, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, errCartContended
}

func decodeCart(raw string) (*Cart, error) {
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = []Line{}
	}
	return &cart, nil
}

func (s *RedisStore) Save(ctx context.Context, employeeID uuid.UUID, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(employeeID.String()), string(payload), s.ttl); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, employeeID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CartKey(employeeID.String())); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// MemoryStore keeps carts in process memory. Used when redis carts are
// disabled and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[uuid.UUID]*Cart{}}
}

func (s *MemoryStore) Load(_ context.Context, employeeID uuid.UUID) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[employeeID]; ok {
		return cart.Clone(), nil
	}
	return New(), nil
}

func (s *MemoryStore) Save(_ context.Context, employeeID uuid.UUID, cart *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[employeeID] = cart.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, employeeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, employeeID)
	return nil
}
