package cache

import (
	"context"
	"strconv"
	"time"

	"flowershop/internal/domain/model"
	"flowershop/internal/logging"
	"flowershop/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const (
	fieldUserID  = "user_id"
	fieldStatus  = "status"
	fieldVersion = "version"
)

// 保存済みの version 以下のイベントは捨てる（配信順が前後しても巻き戻らない）
var guardedWrite = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('HSET', KEYS[1], 'user_id', ARGV[1], 'status', ARGV[2], 'version', ARGV[3])
if tonumber(ARGV[4]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// 注文ステータスのキャッシュ。
// 注文イベントで書き込み、GET /orders/:id/status で読む。
type OrderStatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOrderStatusCache(rdb *redis.Client, ttl time.Duration) *OrderStatusCache {
	return &OrderStatusCache{rdb: rdb, ttl: ttl}
}

func statusKey(orderID int64) string {
	return "order:status:" + strconv.FormatInt(orderID, 10)
}

// Get はキャッシュにあればtrue。Redisのエラーはミス扱い。
func (c *OrderStatusCache) Get(ctx context.Context, orderID int64) (usecase.CachedOrderStatus, bool) {
	vals, err := c.rdb.HGetAll(ctx, statusKey(orderID)).Result()
	if err != nil {
		logging.FromCtx(ctx).Warn("status cache read failed", "order_id", orderID, "err", err)
		return usecase.CachedOrderStatus{}, false
	}
	return decodeStatus(vals)
}

// OnOrderEvent は注文の version が進んだときだけ書き込む。
// 書けなかったキーは消して、次の読み取りでDBに任せる。
func (c *OrderStatusCache) OnOrderEvent(ctx context.Context, ev model.OrderEvent) {
	key := statusKey(ev.Order.ID)

	written, err := guardedWrite.Run(ctx, c.rdb, []string{key},
		ev.Order.UserID,
		string(ev.NewStatus),
		ev.Order.Version,
		c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		logging.FromCtx(ctx).Warn("status cache write failed", "order_id", ev.Order.ID, "err", err)
		if derr := c.rdb.Del(ctx, key).Err(); derr != nil {
			logging.FromCtx(ctx).Warn("status cache drop failed", "order_id", ev.Order.ID, "err", derr)
		}
		return
	}
	if written == 0 {
		logging.FromCtx(ctx).Debug("stale status event skipped", "order_id", ev.Order.ID, "version", ev.Order.Version)
	}
}

func decodeStatus(vals map[string]string) (usecase.CachedOrderStatus, bool) {
	if len(vals) == 0 {
		return usecase.CachedOrderStatus{}, false
	}
	uid, err := strconv.ParseInt(vals[fieldUserID], 10, 64)
	if err != nil || uid <= 0 {
		return usecase.CachedOrderStatus{}, false
	}
	status := model.OrderStatus(vals[fieldStatus])
	if !status.Valid() {
		return usecase.CachedOrderStatus{}, false
	}
	return usecase.CachedOrderStatus{UserID: uid, Status: status}, true
}

var (
	_ usecase.OrderStatusCache   = (*OrderStatusCache)(nil)
	_ usecase.OrderEventListener = (*OrderStatusCache)(nil)
)
