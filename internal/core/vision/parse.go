package vision

import (
	"fmt"

	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

const unstructuredSummary = "未能提取結構化食材資訊"

// ParseResult 取出模型回覆中的 JSON 物件
// 無法解析時回傳空結果並保留原始回覆
func ParseResult(content string) *Result {
	raw, ok := common.ExtractJSONObject(content)
	if !ok {
		common.LogWarn("模型回覆不含 JSON 物件", zap.Int("length", len(content)))
		return unstructured(content)
	}

	r, err := decodeResult(raw)
	if err != nil {
		// 部分模型會輸出未加引號的鍵
		r, err = decodeResult(common.QuoteJSONKeys(raw))
	}
	if err != nil {
		common.LogWarn("解析模型回覆失敗", zap.Error(err))
		return unstructured(content)
	}

	if r.Ingredients == nil {
		r.Ingredients = []DetectedIngredient{}
	}
	if r.Recipes == nil {
		r.Recipes = []SuggestedRecipe{}
	}
	if r.Summary == "" {
		r.Summary = fmt.Sprintf("根據圖片共識別出%d種食材", len(r.Ingredients))
	}
	return r
}

func decodeResult(raw string) (*Result, error) {
	var r Result
	if err := common.ParseJSON(raw, &r); err != nil {
		return nil, err
	}
	r.RawResponse = ""
	r.Cached = false
	return &r, nil
}

func unstructured(content string) *Result {
	return &Result{
		Ingredients: []DetectedIngredient{},
		Recipes:     []SuggestedRecipe{},
		Summary:     unstructuredSummary,
		RawResponse: content,
	}
}
