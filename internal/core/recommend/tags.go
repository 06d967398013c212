package recommend

import (
	"strconv"
	"strings"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// 標籤文字與小程序端一致
const (
	TagLowCalorie  = "低卡"
	TagMidCalorie  = "中卡"
	TagHighCalorie = "高卡"

	TagQuick    = "快速料理"
	TagModerate = "半小时内"
	TagLong     = "耗时较长"

	TagBeginner     = "新手友好"
	TagIntermediate = "中等难度"
	TagChef         = "大厨水平"
)

// 難度關鍵字，依序比對，較難的優先
var difficultyKeywords = []struct {
	tag      string
	keywords []string
}{
	{TagChef, []string{"困难", "困難", "复杂", "複雜", "高级", "高級", "大厨", "大廚"}},
	{TagIntermediate, []string{"中等", "适中", "適中"}},
	{TagBeginner, []string{"简单", "簡單", "容易", "入门", "入門", "新手"}},
}

// GenerateTags 依熱量、烹飪時間、難度產生標籤，缺漏的欄位不產生標籤
func GenerateTags(r domain.Recipe) []string {
	tags := make([]string, 0, 3)
	if r.Calories != nil {
		tags = append(tags, CalorieTag(*r.Calories))
	}
	if r.CookTime != nil {
		tags = append(tags, CookTimeTag(*r.CookTime))
	}
	if tag, ok := DifficultyTag(r.Difficulty); ok {
		tags = append(tags, tag)
	}
	return tags
}

// CalorieTag 熱量分級
func CalorieTag(calories float64) string {
	switch {
	case calories < 300:
		return TagLowCalorie
	case calories < 600:
		return TagMidCalorie
	default:
		return TagHighCalorie
	}
}

// CookTimeTag 烹飪時間分級，剛好 15 或 30 分鐘歸入較慢的一級
func CookTimeTag(minutes float64) string {
	switch {
	case minutes < 15:
		return TagQuick
	case minutes < 30:
		return TagModerate
	default:
		return TagLong
	}
}

// DifficultyTag 難度可為數字或文字描述
func DifficultyTag(difficulty string) (string, bool) {
	d := strings.TrimSpace(difficulty)
	if d == "" {
		return "", false
	}

	if level, err := strconv.ParseFloat(d, 64); err == nil {
		switch {
		case level <= 1:
			return TagBeginner, true
		case level <= 3:
			return TagIntermediate, true
		default:
			return TagChef, true
		}
	}

	for _, band := range difficultyKeywords {
		for _, kw := range band.keywords {
			if strings.Contains(d, kw) {
				return band.tag, true
			}
		}
	}

	common.LogDebug("無法辨識的難度描述", zap.String("difficulty", d))
	return "", false
}
