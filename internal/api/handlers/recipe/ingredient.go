package recipe

import (
	"errors"
	"fmt"

	"recipe-inventory/internal/api/middleware"
	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/core/inventory"
	"recipe-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// updateIngredientRequest 食材更新請求
type updateIngredientRequest struct {
	Quantity   *float64 `json:"quantity" binding:"omitempty,gt=0"`
	ExpiryDate *string  `json:"expiry_date"`
}

// IngredientStats 食材庫存統計
func (h *Handler) IngredientStats(c *gin.Context) {
	stats, err := h.inventory.Stats(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, "取得食材庫存統計", err)
		return
	}
	common.RespondOK(c, "取得食材庫存統計成功", stats)
}

// MostExpiring 最快過期的食材
func (h *Handler) MostExpiring(c *gin.Context) {
	item, err := h.inventory.MostUrgent(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, "取得最快過期食材", err)
		return
	}
	if item == nil {
		common.RespondError(c, common.ErrIngredientNotFound.WithMessage("未找到設定過期日期的食材"))
		return
	}
	common.RespondOK(c, "取得最快過期食材成功", item)
}

// TopExpiring 最快過期的前 N 個食材
func (h *Handler) TopExpiring(c *gin.Context) {
	topN := inventory.NormalizeTopN(queryInt(c, inventory.DefaultTopN, "top_n"))

	items, err := h.inventory.TopUrgent(c.Request.Context(), middleware.IdentityFrom(c), topN)
	if err != nil {
		respondError(c, "取得最快過期食材列表", err)
		return
	}
	if len(items) == 0 {
		common.RespondError(c, common.ErrIngredientNotFound.WithMessage("未找到設定過期日期的食材"))
		return
	}
	common.RespondOK(c, "取得最快過期食材列表成功", listData("ingredients", items))
}

// AllIngredients 使用者的全部食材
func (h *Handler) AllIngredients(c *gin.Context) {
	items, err := h.inventory.List(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, "取得食材列表", err)
		return
	}
	if len(items) == 0 {
		common.RespondError(c, common.ErrIngredientNotFound.WithMessage("未找到任何食材"))
		return
	}
	common.RespondOK(c, "取得食材列表成功", listData("ingredients", items))
}

// UpdateIngredient 更新食材數量或過期日期
func (h *Handler) UpdateIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("無效的更新請求", zap.Error(err), zap.Int64("ingredient_id", id))
		common.RespondError(c, bindError(err))
		return
	}

	identity := middleware.IdentityFrom(c)
	item, err := h.inventory.Update(c.Request.Context(), identity, id, domain.InventoryPatch{
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		respondError(c, "更新食材資訊", err)
		return
	}
	if item == nil {
		common.RespondError(c, common.ErrIngredientNotFound.WithMessage(
			fmt.Sprintf("更新失敗，未找到ID為%d的食材或沒有權限更新", id)))
		return
	}
	common.RespondOK(c, "食材資訊更新成功", item)
}

// DeleteIngredient 刪除食材
func (h *Handler) DeleteIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.inventory.Delete(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		respondError(c, "刪除食材", err)
		return
	}
	if !deleted {
		common.RespondError(c, common.ErrIngredientNotFound.WithMessage(
			fmt.Sprintf("刪除失敗，未找到ID為%d的食材或沒有權限刪除", id)))
		return
	}
	common.RespondOK(c, "食材刪除成功", gin.H{"ingredient_id": id})
}

// bindError 將綁定錯誤轉為回應錯誤
func bindError(err error) *common.CustomError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.ErrInvalidRequest.WithMessage("請求體為空或不是有效的JSON")
	}
	for _, fe := range verrs {
		if fe.Field() == "Quantity" {
			return common.ErrInvalidRequest.WithMessage("食材數量必須是正數")
		}
	}
	return common.ErrInvalidRequest.Wrap(err)
}
