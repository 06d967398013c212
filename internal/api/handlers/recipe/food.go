package recipe

import (
	"io"
	"net/http"

	"recipe-inventory/internal/api/middleware"
	"recipe-inventory/internal/core/image"
	"recipe-inventory/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// imageField 上傳圖片的表單欄位
const imageField = "food_image"

// AnalyzeFood 分析上傳的食物圖片
func (h *Handler) AnalyzeFood(c *gin.Context) {
	if h.vision == nil {
		common.RespondError(c, common.ErrVisionDisabled)
		return
	}

	identity := middleware.IdentityFrom(c)
	file, err := c.FormFile(imageField)
	if err != nil {
		common.LogWarn("未提供食物圖片", zap.String("identity", identity), zap.Error(err))
		common.RespondStatus(c, http.StatusBadRequest, "未提供食物圖片")
		return
	}
	if file.Filename == "" {
		common.RespondStatus(c, http.StatusBadRequest, "食物圖片檔名為空")
		return
	}
	if !image.AllowedExtension(file.Filename) {
		common.LogWarn("不允許的檔案類型",
			zap.String("identity", identity),
			zap.String("filename", file.Filename),
		)
		common.RespondStatus(c, http.StatusBadRequest, "只允許上傳PNG、JPG或JPEG格式的圖片")
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, "讀取上傳圖片", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, "讀取上傳圖片", err)
		return
	}

	result, err := h.vision.Analyze(c.Request.Context(), data)
	if err != nil {
		respondError(c, "食物圖像分析", err)
		return
	}

	if !result.Structured() {
		common.LogInfo("圖像分析成功但未取得結構化資訊", zap.String("identity", identity))
		common.RespondOK(c, "食物圖像分析成功，但未能提取結構化食材資訊", gin.H{
			"raw_response": result.RawResponse,
		})
		return
	}

	common.LogInfo("食物圖像分析成功",
		zap.String("identity", identity),
		zap.Int("ingredients", len(result.Ingredients)),
		zap.Int("recipes", len(result.Recipes)),
		zap.Bool("cached", result.Cached),
	)
	common.RespondOK(c, "食物圖像分析成功", result)
}
