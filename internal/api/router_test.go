package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/infrastructure/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Version: "test"},
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Store:  config.StoreConfig{Driver: "memory", SeedFile: "../../data/seed.json"},
		Auth:   config.AuthConfig{Enabled: false, DevHeader: "X-User-ID"},
		Cache: config.CacheConfig{
			Enabled:         true,
			Driver:          "memory",
			MaxSize:         10,
			TTL:             time.Hour,
			CleanupInterval: time.Minute,
		},
		RateLimit:   config.RateLimitConfig{Enabled: true, Requests: 100, Window: time.Minute},
		Image:       config.ImageConfig{MaxSizeBytes: 1 << 20, MaxDimension: 1200},
		DedupWindow: time.Second,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := store.Open(context.Background(), cfg.Store)
	require.NoError(t, err)
	services, err := BuildServices(context.Background(), cfg, backend)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	return SetupRouter(cfg, services)
}

func call(r http.Handler, method, path, user string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestOperationalRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig())

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		w, _ := call(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestInventoryRoutesRequireIdentity(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := call(r, http.MethodGet, "/api/v1/ingredients/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, float64(401), body["code"])

	w, body = call(r, http.MethodGet, "/api/v1/ingredients/stats", "wx_demo_user")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["data"].(map[string]interface{})["total_count"])
}

func TestPublicCatalogRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := call(r, http.MethodGet, "/api/v1/recipes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["total"])

	w, _ = call(r, http.MethodGet, "/api/v1/recipes/2", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(r, http.MethodGet, "/api/v1/recipes/1/detail/public", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call(r, http.MethodGet, "/api/v1/recipes/1/detail", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(r, http.MethodGet, "/api/v1/recipes/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationsEndToEnd(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := call(r, http.MethodGet, "/api/v1/recipe/recommendations?limit=2", "wx_demo_user")
	require.Equal(t, http.StatusOK, w.Code)

	recs := body["data"].(map[string]interface{})["recommendations"].([]interface{})
	require.Len(t, recs, 2)
	first := recs[0].(map[string]interface{})
	assert.Equal(t, "蛋炒饭", first["name"])
	assert.Equal(t, float64(100), first["match_rate"])
	second := recs[1].(map[string]interface{})
	assert.Equal(t, "西红柿炒鸡蛋", second["name"])
	assert.Equal(t, float64(50), second["match_rate"])
}

func TestRecipeDetailEndToEnd(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, body := call(r, http.MethodGet, "/api/v1/recipes/1/detail", "wx_demo_user")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total_ingredients"])
	assert.Equal(t, float64(1), data["in_stock_count"])
}

func TestUpdateAndDeleteEndToEnd(t *testing.T) {
	r := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/ingredients/2", strings.NewReader(`{"quantity": 12}`))
	req.Header.Set("X-User-ID", "wx_demo_user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(r, http.MethodDelete, "/api/v1/ingredients/6", "wx_demo_user")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := call(r, http.MethodGet, "/api/v1/ingredients/all", "wx_demo_user")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["total"])

	w, _ = call(r, http.MethodDelete, "/api/v1/ingredients/6", "u_wx_demo_user")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVisionDisabledRoute(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w, _ := call(r, http.MethodPost, "/api/v1/food-vision/analyze", "wx_demo_user")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBuildServicesWithVision(t *testing.T) {
	cfg := testConfig()
	cfg.Vision = config.VisionConfig{
		Enabled: true,
		APIKey:  "sk-test",
		BaseURL: "http://127.0.0.1:1",
		Model:   "test-model",
		Timeout: time.Second,
	}

	backend, err := store.Open(context.Background(), cfg.Store)
	require.NoError(t, err)
	services, err := BuildServices(context.Background(), cfg, backend)
	require.NoError(t, err)
	defer services.Close()

	assert.NotNil(t, services.Kitchen.Vision)
	assert.NotNil(t, services.Cache)
}

func TestAuthEnabledKeepsCatalogPublic(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, JWTSecret: "secret"}
	r := newTestRouter(t, cfg)

	w, _ := call(r, http.MethodGet, "/api/v1/recipes", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// 啟用驗證時開發標頭無效
	w, _ = call(r, http.MethodGet, "/api/v1/ingredients/all", "wx_demo_user")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
