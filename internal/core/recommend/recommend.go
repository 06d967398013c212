package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/core/inventory"
	"recipe-inventory/internal/pkg/common"
	"recipe-inventory/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultLimit 推薦數量預設值
const DefaultLimit = 10

// QuantityReader 讀取使用者持有的食材數量
type QuantityReader interface {
	Quantities(ctx context.Context, identity string) (map[int64]float64, error)
}

// UrgentReader 讀取最快過期的食材
type UrgentReader interface {
	TopUrgent(ctx context.Context, identity string, topN int) ([]inventory.UrgentIngredient, error)
}

// RecipeReader 讀取已合併所需食材的食譜
type RecipeReader interface {
	ListRecipes(ctx context.Context) ([]domain.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error)
}

// RecipeCard 推薦結果共用的食譜摘要
type RecipeCard struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	CookTime    *int     `json:"cook_time,omitempty"`
	Calories    *float64 `json:"calories,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Image       string   `json:"image,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

func newCard(r domain.Recipe) RecipeCard {
	return RecipeCard{
		ID:          r.ID,
		Name:        r.Name,
		CookTime:    r.CookTimeMinutes(),
		Calories:    r.Calories,
		Difficulty:  r.Difficulty,
		Image:       r.Image,
		Description: r.Description,
		Tags:        mergeTags(GenerateTags(r), r.Tags),
	}
}

// mergeTags 產生的標籤在前，儲存的標籤去重後附加
func mergeTags(generated, stored []string) []string {
	seen := make(map[string]bool, len(generated)+len(stored))
	out := make([]string, 0, len(generated)+len(stored))
	for _, group := range [][]string{generated, stored} {
		for _, t := range group {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// roundTo1 四捨五入到小數點後一位
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Recommendation 依庫存覆蓋率排序的推薦結果
type Recommendation struct {
	RecipeCard
	MatchRate           float64 `json:"match_rate"`
	MatchingIngredients int     `json:"matching_ingredients"`
	TotalIngredients    int     `json:"total_ingredients"`
}

// Recommender 根據使用者完整庫存推薦食譜
type Recommender struct {
	inventory QuantityReader
	recipes   RecipeReader
	rand      common.RandSource
}

// NewRecommender 創建推薦引擎
func NewRecommender(inventory QuantityReader, recipes RecipeReader) *Recommender {
	return &Recommender{
		inventory: inventory,
		recipes:   recipes,
		rand:      common.GlobalRand,
	}
}

// SetRand 替換隨機來源
func (r *Recommender) SetRand(src common.RandSource) {
	r.rand = src
}

// ScoreRecipe 計算使用者持有量足夠的所需食材數
func ScoreRecipe(recipe domain.Recipe, held map[int64]float64) (matching, total int, rate float64) {
	total = len(recipe.Ingredients)
	if total == 0 {
		return 0, 0, 0
	}
	for _, req := range recipe.Ingredients {
		if q, ok := held[req.IngredientID]; ok && q >= req.Quantity {
			matching++
		}
	}
	return matching, total, float64(matching) / float64(total) * 100
}

// Recommend 回傳最多 limit 個食譜，limit <= 0 時使用預設值
// 庫存為空或所有食譜得分為 0 時改為隨機抽樣
// 沒有所需食材的食譜不參與排名或抽樣，因此結果數量上限為有食材的食譜數而非目錄大小
func (r *Recommender) Recommend(ctx context.Context, identity string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	recipes, err := r.recipes.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	// 沒有所需食材的食譜無法計分
	scorable := make([]domain.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		if len(recipe.Ingredients) > 0 {
			scorable = append(scorable, recipe)
		}
	}
	if len(scorable) == 0 {
		return []Recommendation{}, nil
	}

	held, err := r.inventory.Quantities(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	if len(held) == 0 {
		common.LogInfo("使用者沒有庫存，隨機推薦食譜", zap.String("identity", identity))
		return r.randomSample(scorable, limit), nil
	}

	type scored struct {
		recipe   domain.Recipe
		matching int
		total    int
		rate     float64
	}
	results := make([]scored, 0, len(scorable))
	positive := false
	for _, recipe := range scorable {
		matching, total, rate := ScoreRecipe(recipe, held)
		if rate > 0 {
			positive = true
		}
		results = append(results, scored{recipe: recipe, matching: matching, total: total, rate: rate})
	}
	if !positive {
		common.LogInfo("沒有任何食譜與庫存匹配，隨機推薦食譜", zap.String("identity", identity))
		return r.randomSample(scorable, limit), nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].rate > results[j].rate
	})
	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]Recommendation, 0, len(results))
	for _, s := range results {
		out = append(out, Recommendation{
			RecipeCard:          newCard(s.recipe),
			MatchRate:           roundTo1(s.rate),
			MatchingIngredients: s.matching,
			TotalIngredients:    s.total,
		})
	}

	metrics.RecommendationsServed.WithLabelValues("ranked").Inc()
	common.LogDebug("推薦完成",
		zap.String("identity", identity),
		zap.Int("count", len(out)),
		zap.Float64("top_rate", out[0].MatchRate),
	)
	return out, nil
}

// randomSample 不重複地抽出 min(limit, len(recipes)) 個食譜，匹配資料為 0
func (r *Recommender) randomSample(recipes []domain.Recipe, limit int) []Recommendation {
	n := len(recipes)
	k := limit
	if k > n {
		k = n
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := make([]Recommendation, 0, k)
	for i := 0; i < k; i++ {
		j := i + r.rand.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, Recommendation{RecipeCard: newCard(recipes[idx[i]])})
	}

	metrics.RecommendationsServed.WithLabelValues("random").Inc()
	return out
}
