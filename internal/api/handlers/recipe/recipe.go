package recipe

import (
	"recipe-inventory/internal/api/middleware"
	"recipe-inventory/internal/core/inventory"
	"recipe-inventory/internal/core/recommend"
	"recipe-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Recommendations 依庫存推薦食譜
func (h *Handler) Recommendations(c *gin.Context) {
	limit := queryInt(c, recommend.DefaultLimit, "limit")

	recs, err := h.recommender.Recommend(c.Request.Context(), middleware.IdentityFrom(c), limit)
	if err != nil {
		respondError(c, "取得食譜推薦", err)
		return
	}
	common.RespondOK(c, "取得食譜推薦成功", listData("recommendations", recs))
}

// ListRecipes 全部食譜
func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.catalog.ListRecipes(c.Request.Context())
	if err != nil {
		respondError(c, "取得食譜列表", err)
		return
	}
	common.RespondOK(c, "取得食譜列表成功", listData("recipes", recipes))
}

// GetRecipe 單一食譜
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	recipe, err := h.catalog.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, "取得食譜", err)
		return
	}
	common.RespondOK(c, "取得食譜成功", gin.H{"recipe": recipe})
}

// RecipeDetail 食譜詳情，附上目前使用者的庫存狀態
func (h *Handler) RecipeDetail(c *gin.Context) {
	h.recipeDetail(c, middleware.IdentityFrom(c))
}

// PublicRecipeDetail 食譜詳情，不含庫存狀態
func (h *Handler) PublicRecipeDetail(c *gin.Context) {
	h.recipeDetail(c, "")
}

func (h *Handler) recipeDetail(c *gin.Context, identity string) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.details.Detail(c.Request.Context(), id, identity)
	if err != nil {
		respondError(c, "取得食譜詳情", err)
		return
	}
	common.RespondOK(c, "取得食譜詳情成功", detail)
}

// MatchExpiring 以即將過期的食材匹配食譜
func (h *Handler) MatchExpiring(c *gin.Context) {
	topN := inventory.NormalizeTopN(queryInt(c, inventory.DefaultTopN, "top_n"))
	count := recommend.NormalizeRecipeCount(queryInt(c, recommend.DefaultRecipeCount, "recipe_count", "count"))

	matches, err := h.matcher.Match(c.Request.Context(), middleware.IdentityFrom(c), topN, count)
	if err != nil {
		respondError(c, "匹配食譜", err)
		return
	}
	if len(matches) == 0 {
		common.RespondError(c, common.ErrRecipeNotFound.WithMessage("未找到匹配的食譜"))
		return
	}
	common.RespondOK(c, "匹配食譜成功", listData("recipes", matches))
}
