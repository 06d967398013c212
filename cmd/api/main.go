package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-inventory/internal/api"
	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/infrastructure/store"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定，.env 由 config 讀取
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("vision_enabled", cfg.Vision.Enabled),
		zap.String("cache_driver", cfg.Cache.Driver),
	)
	if !cfg.Auth.Enabled {
		common.LogWarn("身分驗證已關閉，改用開發標頭識別使用者", zap.String("header", cfg.Auth.DevHeader))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// 初始化儲存
	backend, err := store.Open(startCtx, cfg.Store)
	if err != nil {
		common.LogFatal("Failed to open store", zap.Error(err))
	}

	services, err := api.BuildServices(startCtx, cfg, backend)
	if err != nil {
		_ = backend.Close()
		common.LogFatal("Failed to build services", zap.Error(err))
	}
	defer services.Close()

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.SetupRouter(cfg, services),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
