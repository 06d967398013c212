package api

import (
	"context"
	"fmt"

	recipeHandler "recipe-inventory/internal/api/handlers/recipe"
	"recipe-inventory/internal/core/catalog"
	"recipe-inventory/internal/core/image"
	"recipe-inventory/internal/core/inventory"
	"recipe-inventory/internal/core/recommend"
	"recipe-inventory/internal/core/vision"
	"recipe-inventory/internal/core/vision/cache"
	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/infrastructure/store"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// Services 組裝完成的服務
type Services struct {
	Store   store.Backend
	Kitchen recipeHandler.Deps
	Cache   cache.Store
}

// BuildServices 以儲存後端組裝所有服務
func BuildServices(ctx context.Context, cfg *config.Config, backend store.Backend) (*Services, error) {
	catalogSvc := catalog.NewService(backend, backend)
	inventorySvc := inventory.NewService(backend, backend, backend)

	s := &Services{
		Store: backend,
		Kitchen: recipeHandler.Deps{
			Inventory:   inventorySvc,
			Catalog:     catalogSvc,
			Recommender: recommend.NewRecommender(inventorySvc, catalogSvc),
			Matcher:     recommend.NewExpiryMatcher(inventorySvc, catalogSvc),
			Details:     recommend.NewDetailService(inventorySvc, catalogSvc),
		},
	}

	if !cfg.Vision.Enabled {
		common.LogInfo("圖片識別未啟用")
		return s, nil
	}

	resultCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision cache: %w", err)
	}
	s.Cache = resultCache

	var visionCache vision.Cache
	if resultCache != nil {
		visionCache = resultCache
	}

	client := vision.NewClient(cfg.Vision)
	s.Kitchen.Vision = vision.NewService(client, visionCache, image.NewService(cfg.Image), cfg.Breaker)

	common.LogInfo("圖片識別已啟用",
		zap.String("model", cfg.Vision.Model),
		zap.String("base_url", cfg.Vision.BaseURL),
		zap.String("api_key", config.MaskSecret(cfg.Vision.APIKey)),
		zap.Bool("cache_enabled", resultCache != nil),
	)
	return s, nil
}

// Close 釋放快取與儲存資源
func (s *Services) Close() {
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			common.LogWarn("關閉快取失敗", zap.Error(err))
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			common.LogWarn("關閉儲存失敗", zap.Error(err))
		}
	}
}
