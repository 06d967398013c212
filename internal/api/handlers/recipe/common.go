package recipe

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/core/inventory"
	"recipe-inventory/internal/core/recommend"
	"recipe-inventory/internal/core/vision"
	"recipe-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryService 使用者食材庫存
type InventoryService interface {
	Stats(ctx context.Context, identity string) (inventory.ExpiryStats, error)
	MostUrgent(ctx context.Context, identity string) (*inventory.UrgentIngredient, error)
	TopUrgent(ctx context.Context, identity string, topN int) ([]inventory.UrgentIngredient, error)
	List(ctx context.Context, identity string) ([]inventory.InventoryItem, error)
	Update(ctx context.Context, identity string, ingredientID int64, patch domain.InventoryPatch) (*inventory.InventoryItem, error)
	Delete(ctx context.Context, identity string, ingredientID int64) (bool, error)
}

// RecipeCatalog 食譜目錄
type RecipeCatalog interface {
	ListRecipes(ctx context.Context) ([]domain.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error)
}

// Recommender 依庫存推薦食譜
type Recommender interface {
	Recommend(ctx context.Context, identity string, limit int) ([]recommend.Recommendation, error)
}

// ExpiryMatcher 依即將過期食材匹配食譜
type ExpiryMatcher interface {
	Match(ctx context.Context, identity string, topN, recipeCount int) ([]recommend.ExpiryMatch, error)
}

// DetailReader 食譜詳情與庫存狀態
type DetailReader interface {
	Detail(ctx context.Context, recipeID int64, identity string) (*recommend.RecipeDetail, error)
}

// FoodAnalyzer 食物圖片分析
type FoodAnalyzer interface {
	Analyze(ctx context.Context, data []byte) (*vision.Result, error)
}

// Deps 處理器依賴，Vision 可以為 nil
type Deps struct {
	Inventory   InventoryService
	Catalog     RecipeCatalog
	Recommender Recommender
	Matcher     ExpiryMatcher
	Details     DetailReader
	Vision      FoodAnalyzer
}

// Handler 食材、食譜與圖片識別的 HTTP 處理器
type Handler struct {
	inventory   InventoryService
	catalog     RecipeCatalog
	recommender Recommender
	matcher     ExpiryMatcher
	details     DetailReader
	vision      FoodAnalyzer
}

// NewHandler 創建處理器
func NewHandler(deps Deps) *Handler {
	return &Handler{
		inventory:   deps.Inventory,
		catalog:     deps.Catalog,
		recommender: deps.Recommender,
		matcher:     deps.Matcher,
		details:     deps.Details,
		vision:      deps.Vision,
	}
}

// respondError 將服務錯誤轉成統一響應
func respondError(c *gin.Context, op string, err error) {
	var ce *common.CustomError
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound):
		common.RespondError(c, common.ErrRecipeNotFound.Wrap(err))
	case errors.Is(err, domain.ErrEmptyPatch):
		common.RespondError(c, common.ErrInvalidRequest.WithMessage("請至少提供一個需要更新的欄位(quantity或expiry_date)"))
	case errors.Is(err, domain.ErrInvalidQuantity):
		common.RespondError(c, common.ErrInvalidRequest.WithMessage("食材數量必須是正數"))
	case errors.Is(err, domain.ErrInvalidExpiryDate):
		common.RespondError(c, common.ErrInvalidRequest.WithMessage("日期格式必須為YYYY-MM-DD"))
	case errors.Is(err, inventory.ErrReadOnly):
		common.RespondError(c, common.ErrServiceUnavailable.WithMessage("目前的儲存後端不支援修改"))
	case errors.As(err, &ce):
		common.RespondError(c, ce)
	case errors.Is(err, context.DeadlineExceeded):
		common.RespondError(c, common.ErrGatewayTimeout.Wrap(err))
	default:
		common.LogError(op+"失敗",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", common.RequestID(c)),
		)
		common.RespondError(c, common.ErrInternalError.Wrap(err))
	}
}

// queryInt 讀取整數查詢參數，缺少或格式錯誤時使用預設值
func queryInt(c *gin.Context, def int, keys ...string) int {
	for _, key := range keys {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return def
		}
		return n
	}
	return def
}

// pathID 讀取路徑中的正整數 ID
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.RespondStatus(c, http.StatusBadRequest, "無效的 ID")
		return 0, false
	}
	return id, true
}

// listData 列表響應
func listData[T any](key string, items []T) gin.H {
	if items == nil {
		items = []T{}
	}
	return gin.H{key: items, "total": len(items)}
}
