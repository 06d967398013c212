package domain

import "math"

// UserKey 使用者在資料表中的主鍵
type UserKey int64

// Ingredient 食材目錄條目
type Ingredient struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	DefaultUnit string `json:"unit" db:"unit"`
}

// InventoryEntry 使用者持有的一筆食材
// ExpiryDate 保留原始字串，空字串代表不會過期
type InventoryEntry struct {
	ID           int64   `json:"id" db:"id"`
	UserKey      UserKey `json:"user_id" db:"user_id"`
	IngredientID int64   `json:"ingredient_id" db:"ingredient_id"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	ExpiryDate   string  `json:"expiry_date" db:"expiry_date"`
}

// InventoryPatch 更新欄位，nil 表示不變
type InventoryPatch struct {
	Quantity   *float64
	ExpiryDate *string
}

// ExpiryStatus 過期分類
type ExpiryStatus string

const (
	StatusFresh    ExpiryStatus = "fresh"
	StatusExpiring ExpiryStatus = "expiring"
	StatusExpired  ExpiryStatus = "expired"
)

// RecipeIngredientLink 食譜與食材的關聯列
type RecipeIngredientLink struct {
	RecipeID     int64   `json:"recipe_id" db:"recipe_id"`
	IngredientID int64   `json:"ingredient_id" db:"ingredient_id"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	Unit         string  `json:"unit" db:"unit"`
}

// RequiredIngredient 已與食材目錄合併的所需食材
type RequiredIngredient struct {
	IngredientID int64   `json:"id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Tool 烹飪工具
type Tool struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// Step 步驟
type Step struct {
	Step int    `json:"step"`
	Desc string `json:"desc"`
}

// Recipe 食譜定義，數值欄位為 nil 表示缺漏或格式錯誤
type Recipe struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	CookTime    *float64             `json:"cook_time,omitempty"`
	Calories    *float64             `json:"calories,omitempty"`
	Difficulty  string               `json:"difficulty,omitempty"`
	Image       string               `json:"image,omitempty"`
	Description string               `json:"description,omitempty"`
	Tools       []Tool               `json:"tools"`
	PrepSteps   []Step               `json:"prep_steps"`
	Steps       []Step               `json:"steps"`
	Tips        string               `json:"tips,omitempty"`
	Tags        []string             `json:"tags"`
	Ingredients []RequiredIngredient `json:"ingredients"`
}

// MaxCookTimeMinutes 烹飪時間的整數上限
const MaxCookTimeMinutes = math.MaxInt32

// CookTimeMinutes 以整數分鐘回傳烹飪時間，超出 int32 範圍時截斷，NaN 視為沒有值
func (r Recipe) CookTimeMinutes() *int {
	if r.CookTime == nil || math.IsNaN(*r.CookTime) {
		return nil
	}
	v := *r.CookTime
	switch {
	case v > MaxCookTimeMinutes:
		v = MaxCookTimeMinutes
	case v < -MaxCookTimeMinutes:
		v = -MaxCookTimeMinutes
	}
	m := int(v)
	return &m
}
