package vision

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number 模型可能回傳數字或數字字串，無法解析時為 0
type Number float64

// UnmarshalJSON 接受數字、數字字串與 null
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Text 模型可能回傳字串或數字
type Text string

// UnmarshalJSON 接受字串、數字與 null
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(string(data))
	return nil
}

// DetectedIngredient 圖片中識別出的食材
type DetectedIngredient struct {
	Name        string `json:"name"`
	Quantity    Number `json:"quantity"`
	Unit        string `json:"unit"`
	Confidence  Text   `json:"confidence"`
	StorageDays Number `json:"storage_days"`
	FunFact     string `json:"fun_fact,omitempty"`
	Tip         string `json:"tip,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	HealthNote  string `json:"health_note,omitempty"`
}

// SuggestedRecipe 模型推薦的菜餚
type SuggestedRecipe struct {
	Name      string `json:"name"`
	MatchRate Text   `json:"match_rate"`
}

// Result 圖片分析結果
type Result struct {
	Ingredients []DetectedIngredient `json:"ingredients"`
	Recipes     []SuggestedRecipe    `json:"recipes"`
	Summary     string               `json:"summary"`
	RawResponse string               `json:"raw_response,omitempty"`
	Cached      bool                 `json:"cached"`
}

// Structured 是否取得結構化的食材資訊
func (r *Result) Structured() bool {
	return r.RawResponse == ""
}
