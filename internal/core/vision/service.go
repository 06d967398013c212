package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-inventory/internal/core/image"
	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"
	"recipe-inventory/internal/pkg/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Cache 分析結果快取，以圖片雜湊為鍵
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ImagePreparer 驗證並轉換上傳圖片
type ImagePreparer interface {
	Prepare(data []byte) (*image.Prepared, error)
}

// Service 食物圖片分析服務
type Service struct {
	provider Provider
	cache    Cache
	images   ImagePreparer
	breaker  *gobreaker.CircuitBreaker[string]
}

// NewService 創建圖片分析服務，cache 可以為 nil
func NewService(provider Provider, cache Cache, images ImagePreparer, cfg config.BreakerConfig) *Service {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.VisionBreakerState.Set(float64(gobreaker.StateClosed))

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "vision-provider",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var perr *ProviderError
			return errors.As(err, &perr) && perr.clientFault()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("熔斷器狀態變更",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.VisionBreakerState.Set(float64(to))
		},
	})

	return &Service{
		provider: provider,
		cache:    cache,
		images:   images,
		breaker:  breaker,
	}
}

// Analyze 分析上傳的食物圖片
func (s *Service) Analyze(ctx context.Context, data []byte) (*Result, error) {
	if s == nil || s.provider == nil {
		return nil, common.ErrVisionDisabled
	}

	prepared, err := s.images.Prepare(data)
	if err != nil {
		metrics.VisionRequests.WithLabelValues("invalid_image").Inc()
		return nil, err
	}

	key := fmt.Sprintf("vision:%s:%s", s.provider.Model(), prepared.Hash)
	if cached := s.lookup(ctx, key); cached != nil {
		metrics.VisionRequests.WithLabelValues("cached").Inc()
		return cached, nil
	}

	content, err := s.breaker.Execute(func() (string, error) {
		return s.provider.Complete(ctx, prepared.DataURI, analyzePrompt)
	})
	if err != nil {
		return nil, s.classify(ctx, err)
	}

	result := ParseResult(content)
	if !result.Structured() {
		metrics.VisionRequests.WithLabelValues("unstructured").Inc()
		return result, nil
	}

	metrics.VisionRequests.WithLabelValues("ok").Inc()
	s.store(ctx, key, result)
	return result, nil
}

// classify 將模型錯誤轉成對外的錯誤
func (s *Service) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.VisionRequests.WithLabelValues("rejected").Inc()
		return common.ErrVisionUnavailable.Wrap(err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		metrics.VisionRequests.WithLabelValues("timeout").Inc()
		return common.ErrGatewayTimeout.Wrap(err)
	default:
		metrics.VisionRequests.WithLabelValues("error").Inc()
		return common.ErrVisionError.Wrap(err)
	}
}

func (s *Service) lookup(ctx context.Context, key string) *Result {
	if s.cache == nil {
		return nil
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		common.LogWarn("讀取快取失敗", zap.Error(err))
		return nil
	}
	if !ok {
		metrics.VisionCacheLookups.WithLabelValues("miss").Inc()
		common.LogCacheMiss("vision")
		return nil
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		common.LogWarn("快取內容無法解析", zap.Error(err))
		return nil
	}
	metrics.VisionCacheLookups.WithLabelValues("hit").Inc()
	common.LogCacheHit("vision")
	result.Cached = true
	return &result
}

func (s *Service) store(ctx context.Context, key string, result *Result) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		common.LogWarn("序列化分析結果失敗", zap.Error(err))
		return
	}

	// 請求已結束時仍寫入快取
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cache.Set(storeCtx, key, string(data)); err != nil {
		common.LogWarn("寫入快取失敗", zap.Error(err))
	}
}
