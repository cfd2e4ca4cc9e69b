package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	// beforeSwap runs ahead of each compare-and-swap, standing in for a
	// writer on another replica.
	beforeSwap func(key string)
	swaps      int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) CompareAndSwap(_ context.Context, key, expected, next string, ttl time.Duration) (bool, error) {
	f.swaps++
	if f.beforeSwap != nil {
		f.beforeSwap(key)
	}
	current, ok := f.values[key]
	if (!ok && expected == "") || (ok && current == expected) {
		f.values[key] = next
		f.ttls[key] = ttl
		return true, nil
	}
	return false, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeRedis) CartKey(employeeID string) string {
	return "sp:cart:" + employeeID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	employeeID := uuid.New()

	empty, err := store.Load(ctx, employeeID)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c := New()
	require.NoError(t, c.AddItem(testProduct(3, 450)))
	require.NoError(t, store.Save(ctx, employeeID, c))
	assert.Equal(t, time.Hour, client.ttls["sp:cart:"+employeeID.String()])

	loaded, err := store.Load(ctx, employeeID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, c.Lines[0], loaded.Lines[0])
	assert.Equal(t, int64(450), loaded.Total())

	require.NoError(t, store.Delete(ctx, employeeID))
	loaded, err = store.Load(ctx, employeeID)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestRedisStoreRejectsCorruptPayload(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client, time.Hour)
	require.NoError(t, err)
	employeeID := uuid.New()
	client.values[client.CartKey(employeeID.String())] = "{not json"

	_, err = store.Load(context.Background(), employeeID)
	require.Error(t, err)
}

func TestRedisStoreUpdateKeepsConcurrentWrite(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	employeeID := uuid.New()

	other := testProduct(5, 200)
	mine := testProduct(5, 300)
	client.beforeSwap = func(key string) {
		client.beforeSwap = nil
		remote := New()
		require.NoError(t, remote.AddItem(other))
		payload, err := json.Marshal(remote)
		require.NoError(t, err)
		client.values[key] = string(payload)
	}

	updated, err := store.Update(ctx, employeeID, func(c *Cart) error {
		return c.AddItem(mine)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, client.swaps)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, int64(500), updated.Total())

	loaded, err := store.Load(ctx, employeeID)
	require.NoError(t, err)
	assert.Len(t, loaded.Lines, 2)
	assert.Equal(t, time.Hour, client.ttls[client.CartKey(employeeID.String())])
}

func TestRedisStoreUpdateGivesUpUnderContention(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client, time.Hour)
	require.NoError(t, err)
	client.beforeSwap = func(key string) {
		client.values[key] = fmt.Sprintf(`{"lines":[],"rev":%d}`, client.swaps)
	}

	_, err = store.Update(context.Background(), uuid.New(), func(c *Cart) error {
		return c.AddItem(testProduct(1, 100))
	})
	require.ErrorIs(t, err, errCartContended)
	assert.Equal(t, maxSwapAttempts, client.swaps)
}

func TestServiceUsesAtomicStoreUpdate(t *testing.T) {
	client := newFakeRedis()
	store, err := NewRedisStore(client, time.Hour)
	require.NoError(t, err)
	p := testProduct(1, 100)
	svc, err := NewService(store, newStubProducts(p))
	require.NoError(t, err)
	ctx := context.Background()
	employeeID := uuid.New()

	_, err = svc.AddItem(ctx, employeeID, AddItemInput{ProductID: &p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, client.swaps)

	_, err = svc.AddItem(ctx, employeeID, AddItemInput{ProductID: &p.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStockExceeded))
	assert.Equal(t, 1, client.swaps)

	client.beforeSwap = func(key string) {
		client.values[key] = fmt.Sprintf(`{"lines":[],"rev":%d}`, client.swaps)
	}
	_, err = svc.RemoveItem(ctx, employeeID, p.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	employeeID := uuid.New()

	c := New()
	require.NoError(t, c.AddItem(testProduct(3, 100)))
	require.NoError(t, store.Save(ctx, employeeID, c))
	c.Clear()

	loaded, err := store.Load(ctx, employeeID)
	require.NoError(t, err)
	assert.Len(t, loaded.Lines, 1)
}
