package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipe-inventory/internal/api/handlers/health"
	recipeHandler "recipe-inventory/internal/api/handlers/recipe"
	"recipe-inventory/internal/api/middleware"
	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, services *Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// CORS 設置
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	if !cfg.Auth.Enabled && cfg.Auth.DevHeader != "" {
		allowHeaders = append(allowHeaders, cfg.Auth.DevHeader)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	router.Use(middleware.BodySizeLimit(maxBody))

	if cfg.Server.RequestTimeout > 0 {
		router.Use(requestTimeout(cfg.Server.RequestTimeout))
	}

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, cfg.Store.Driver, services.Kitchen.Vision != nil, services.Store)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := recipeHandler.NewHandler(services.Kitchen)

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(cfg.Auth))
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	requireIdentity := middleware.RequireIdentity()
	{
		ingredientGroup := api.Group("/ingredients", requireIdentity)
		{
			ingredientGroup.GET("/stats", h.IngredientStats)
			ingredientGroup.GET("/most-expiring", h.MostExpiring)
			ingredientGroup.GET("/top-expiring", h.TopExpiring)
			ingredientGroup.GET("/all", h.AllIngredients)
			ingredientGroup.PUT("/:id", h.UpdateIngredient)
			ingredientGroup.DELETE("/:id", h.DeleteIngredient)
		}

		api.GET("/recipe/recommendations", requireIdentity, h.Recommendations)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", h.ListRecipes)
			recipeGroup.GET("/match-expiring", requireIdentity, h.MatchExpiring)
			recipeGroup.GET("/:id", h.GetRecipe)
			recipeGroup.GET("/:id/detail", requireIdentity, h.RecipeDetail)
			recipeGroup.GET("/:id/detail/public", h.PublicRecipeDetail)
		}

		api.POST("/food-vision/analyze", requireIdentity, h.AnalyzeFood)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("vision_enabled", services.Kitchen.Vision != nil),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", maxBody),
	)

	return router
}

// requestTimeout 為每個請求設置逾時
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		// 處理器沒有寫入響應時補上逾時錯誤
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			common.RespondStatus(c, http.StatusGatewayTimeout, common.ErrGatewayTimeout.Message)
		}
	}
}
