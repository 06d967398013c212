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

const (
	DefaultRecipeCount = 3
	MaxRecipeCount     = 10
)

// NormalizeRecipeCount 超出 [1,10] 時回到預設值
func NormalizeRecipeCount(n int) int {
	if n < 1 || n > MaxRecipeCount {
		return DefaultRecipeCount
	}
	return n
}

// UrgentMatch 食譜中用到的臨期食材
type UrgentMatch struct {
	Name            string `json:"name"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
}

// ExpiryMatch 依臨期食材匹配的結果
type ExpiryMatch struct {
	RecipeCard
	MatchingIngredients []UrgentMatch `json:"matching_ingredients"`
	MatchRate           float64       `json:"match_rate"`
	MatchingScore       int           `json:"matching_score"`
	TotalIngredients    int           `json:"total_ingredients"`
}

// ExpiryMatcher 以最快過期的食材挑選食譜
type ExpiryMatcher struct {
	inventory UrgentReader
	recipes   RecipeReader
}

// NewExpiryMatcher 創建臨期匹配器
func NewExpiryMatcher(inventory UrgentReader, recipes RecipeReader) *ExpiryMatcher {
	return &ExpiryMatcher{
		inventory: inventory,
		recipes:   recipes,
	}
}

// Match 以名稱比對前 topN 個臨期食材，回傳最多 recipeCount 個食譜
// 沒有臨期食材時回傳空結果，不做隨機推薦
func (m *ExpiryMatcher) Match(ctx context.Context, identity string, topN, recipeCount int) ([]ExpiryMatch, error) {
	recipeCount = NormalizeRecipeCount(recipeCount)

	urgent, err := m.inventory.TopUrgent(ctx, identity, topN)
	if err != nil {
		return nil, fmt.Errorf("match by expiry: %w", err)
	}
	if len(urgent) == 0 {
		metrics.ExpiryMatchesServed.WithLabelValues("no_urgent").Inc()
		return []ExpiryMatch{}, nil
	}

	recipes, err := m.recipes.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("match by expiry: %w", err)
	}

	out := make([]ExpiryMatch, 0, len(recipes))
	for _, recipe := range recipes {
		if match, ok := matchRecipe(recipe, urgent); ok {
			out = append(out, match)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchingScore > out[j].MatchingScore
	})
	if len(out) > recipeCount {
		out = out[:recipeCount]
	}

	outcome := "matched"
	if len(out) == 0 {
		outcome = "no_match"
	}
	metrics.ExpiryMatchesServed.WithLabelValues(outcome).Inc()
	common.LogDebug("臨期食材匹配完成",
		zap.String("identity", identity),
		zap.Int("urgent", len(urgent)),
		zap.Int("count", len(out)),
	)
	return out, nil
}

// matchRecipe 名稱完全相同才算匹配，同名的臨期食材只計一次
func matchRecipe(recipe domain.Recipe, urgent []inventory.UrgentIngredient) (ExpiryMatch, bool) {
	if len(recipe.Ingredients) == 0 {
		return ExpiryMatch{}, false
	}

	names := make(map[string]bool, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		names[ing.Name] = true
	}

	seen := make(map[string]bool, len(urgent))
	var matched []UrgentMatch
	for _, u := range urgent {
		if seen[u.Name] {
			continue
		}
		seen[u.Name] = true
		if names[u.Name] {
			matched = append(matched, UrgentMatch{Name: u.Name, DaysUntilExpiry: u.DaysUntilExpiry})
		}
	}
	if len(matched) == 0 {
		return ExpiryMatch{}, false
	}

	rate := float64(len(matched)) / float64(len(recipe.Ingredients)) * 100
	return ExpiryMatch{
		RecipeCard:          newCard(recipe),
		MatchingIngredients: matched,
		MatchRate:           roundTo1(rate),
		MatchingScore:       int(math.RoundToEven(rate)),
		TotalIngredients:    len(recipe.Ingredients),
	}, true
}
