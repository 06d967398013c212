package store

import (
	"context"
	"fmt"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// Backend 服務所需的全部儲存能力
type Backend interface {
	domain.IdentityResolver
	domain.InventoryStore
	domain.InventoryWriter
	domain.CatalogStore
	domain.IngredientCatalog
	domain.Pinger
	Close() error
}

// Open 依設定建立儲存後端
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		s := NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := LoadSeedFile(s, cfg.SeedFile); err != nil {
				return nil, err
			}
		} else {
			common.LogWarn("未設定初始資料檔，記憶體儲存為空")
		}
		return s, nil
	case "postgres", "mysql":
		return NewSQLStore(ctx, cfg)
	default:
		common.LogError("不支援的儲存驅動", zap.String("driver", cfg.Driver))
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
