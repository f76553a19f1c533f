package cache

import (
	"context"
	"testing"
	"time"

	"flowershop/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "order:status:42", statusKey(42))
}

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		name   string
		vals   map[string]string
		ok     bool
		status model.OrderStatus
	}{
		{"miss", map[string]string{}, false, ""},
		{"hit", map[string]string{"user_id": "3", "status": "on_the_way"}, true, model.OrderStatusOnTheWay},
		{"bad user", map[string]string{"user_id": "x", "status": "on_the_way"}, false, ""},
		{"unknown status", map[string]string{"user_id": "3", "status": "lost"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeStatus(tt.vals)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.status, got.Status)
			if ok {
				assert.Equal(t, int64(3), got.UserID)
			}
		})
	}
}

func newTestCache(t *testing.T, ttl time.Duration) (*OrderStatusCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewOrderStatusCache(rdb, ttl), mr
}

func statusEvent(orderID, userID int64, version int, status model.OrderStatus) model.OrderEvent {
	return model.OrderEvent{
		Order:     model.Order{ID: orderID, UserID: userID, Version: version, Status: status},
		NewStatus: status,
	}
}

func TestOrderStatusCache_OnOrderEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("in order events overwrite", func(t *testing.T) {
		c, _ := newTestCache(t, time.Hour)
		c.OnOrderEvent(ctx, statusEvent(7, 3, 0, model.OrderStatusAccepted))
		c.OnOrderEvent(ctx, statusEvent(7, 3, 1, model.OrderStatusAssembling))

		got, ok := c.Get(ctx, 7)
		require.True(t, ok)
		assert.Equal(t, model.OrderStatusAssembling, got.Status)
		assert.Equal(t, int64(3), got.UserID)
	})

	t.Run("older event arriving late does not regress", func(t *testing.T) {
		c, mr := newTestCache(t, time.Hour)
		c.OnOrderEvent(ctx, statusEvent(7, 3, 2, model.OrderStatusOnTheWay))
		c.OnOrderEvent(ctx, statusEvent(7, 3, 1, model.OrderStatusAssembling))

		got, ok := c.Get(ctx, 7)
		require.True(t, ok)
		assert.Equal(t, model.OrderStatusOnTheWay, got.Status)
		assert.Equal(t, "2", mr.HGet(statusKey(7), fieldVersion))
	})

	t.Run("ttl is applied", func(t *testing.T) {
		c, mr := newTestCache(t, 30*time.Minute)
		c.OnOrderEvent(ctx, statusEvent(7, 3, 0, model.OrderStatusAccepted))
		assert.Equal(t, 30*time.Minute, mr.TTL(statusKey(7)))
	})

	t.Run("no ttl when disabled", func(t *testing.T) {
		c, mr := newTestCache(t, 0)
		c.OnOrderEvent(ctx, statusEvent(7, 3, 0, model.OrderStatusAccepted))
		assert.Equal(t, time.Duration(0), mr.TTL(statusKey(7)))
		_, ok := c.Get(ctx, 7)
		assert.True(t, ok)
	})

	t.Run("unreadable entry is dropped", func(t *testing.T) {
		c, mr := newTestCache(t, time.Hour)
		mr.HSet(statusKey(7), fieldUserID, "3", fieldStatus, "created", fieldVersion, "x")

		c.OnOrderEvent(ctx, statusEvent(7, 3, 1, model.OrderStatusAssembling))

		assert.False(t, mr.Exists(statusKey(7)))
		_, ok := c.Get(ctx, 7)
		assert.False(t, ok)
	})
}

func TestOrderStatusCache_GetReadErrorIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	mr.Close()

	_, ok := c.Get(context.Background(), 7)
	assert.False(t, ok)
}
