package cache

import (
	"context"
	"fmt"

	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 字串鍵值快取
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

var (
	_ Store = (*Manager)(nil)
	_ Store = (*Redis)(nil)
)

// New 依設定建立快取，停用時回傳 nil
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Driver {
	case "", "memory":
		return NewManager(cfg), nil
	case "redis":
		r, err := NewRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Redis 快取已連線", zap.String("addr", cfg.RedisAddr))
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}
