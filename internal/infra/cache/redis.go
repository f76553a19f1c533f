package cache

import (
	"context"
	"fmt"
	"time"

	"flowershop/internal/config"

	"github.com/redis/go-redis/v9"
)

// Connect は redis:// のURLからクライアントを作り、疎通を確認する
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}
