package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// userPrefix 部分登入流程會在使用者識別碼前加上此前綴
const userPrefix = "u_"

// identityCandidates 依序回傳要嘗試的識別碼
func identityCandidates(identity string) []string {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil
	}
	out := []string{identity}
	if stripped := strings.TrimPrefix(identity, userPrefix); stripped != identity && stripped != "" {
		out = append(out, stripped)
	}
	return out
}

// parseNumber 接受 JSON 數字或數字字串，空值回傳 nil
// 無法解析時回傳錯誤，由呼叫端記錄並視為缺漏
func parseNumber(v interface{}) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, err
		}
		f = parsed
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		f = parsed
	case []byte:
		return parseNumber(string(n))
	default:
		return nil, fmt.Errorf("unsupported number type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	return &f, nil
}

// numberField 解析食譜數值欄位，格式錯誤時記錄並回傳 nil
func numberField(recipeID int64, field string, v interface{}) *float64 {
	f, err := parseNumber(v)
	if err != nil {
		common.LogWarn("食譜數值欄位格式錯誤，略過",
			zap.Int64("recipe_id", recipeID),
			zap.String("field", field),
			zap.Any("value", v),
			zap.Error(err),
		)
		return nil
	}
	return f
}

// quantityField 解析數量，格式錯誤時視為 0
func quantityField(kind string, id int64, v interface{}) float64 {
	f, err := parseNumber(v)
	if err != nil {
		common.LogWarn("數量格式錯誤，視為 0",
			zap.String("kind", kind),
			zap.Int64("id", id),
			zap.Any("value", v),
			zap.Error(err),
		)
		return 0
	}
	if f == nil || *f < 0 {
		return 0
	}
	return *f
}

// jsonListField 解析以 JSON 儲存的清單，可能是陣列或陣列字串
func jsonListField[T any](recipeID int64, field string, raw []byte) []T {
	out := []T{}
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return out
	}

	// 以字串包裝的 JSON 先還原
	if strings.HasPrefix(text, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err == nil {
			text = strings.TrimSpace(inner)
		}
		if text == "" {
			return out
		}
	}

	if err := common.ParseJSON(text, &out); err != nil {
		common.LogWarn("食譜 JSON 欄位解析失敗，使用空清單",
			zap.Int64("recipe_id", recipeID),
			zap.String("field", field),
			zap.Error(err),
		)
		return []T{}
	}
	return out
}

// tipsField 貼士可以是純文字或字串陣列
func tipsField(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		text = strings.TrimSpace(s)
	}
	if strings.HasPrefix(text, "[") {
		var list []string
		if err := json.Unmarshal([]byte(text), &list); err == nil {
			return strings.Join(list, "\n")
		}
	}
	return text
}

// stepsField 解析步驟並補上序號
func stepsField(recipeID int64, field string, raw []byte) []domain.Step {
	return domain.NumberSteps(jsonListField[domain.Step](recipeID, field, raw))
}
