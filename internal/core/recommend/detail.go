package recommend

import (
	"context"
	"fmt"

	"recipe-inventory/internal/core/domain"
)

// StockedIngredient 所需食材與使用者持有量
type StockedIngredient struct {
	domain.RequiredIngredient
	HeldQuantity float64 `json:"held_quantity"`
	InStock      bool    `json:"in_stock"`
}

// RecipeDetail 食譜詳情
type RecipeDetail struct {
	RecipeCard
	Tools            []domain.Tool       `json:"tools"`
	PrepSteps        []domain.Step       `json:"prep_steps"`
	Steps            []domain.Step       `json:"steps"`
	Tips             string              `json:"tips,omitempty"`
	Ingredients      []StockedIngredient `json:"ingredients"`
	InStockCount     int                 `json:"in_stock_count"`
	TotalIngredients int                 `json:"total_ingredients"`
}

// DetailService 組合食譜詳情與庫存狀態
type DetailService struct {
	inventory QuantityReader
	recipes   RecipeReader
}

// NewDetailService 創建食譜詳情服務
func NewDetailService(inventory QuantityReader, recipes RecipeReader) *DetailService {
	return &DetailService{inventory: inventory, recipes: recipes}
}

// Detail 回傳食譜詳情，identity 為空時不查詢庫存
func (d *DetailService) Detail(ctx context.Context, recipeID int64, identity string) (*RecipeDetail, error) {
	recipe, err := d.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	var held map[int64]float64
	if identity != "" {
		held, err = d.inventory.Quantities(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("recipe detail: %w", err)
		}
	}

	detail := &RecipeDetail{
		RecipeCard:       newCard(*recipe),
		Tools:            nonNil(recipe.Tools),
		PrepSteps:        nonNil(recipe.PrepSteps),
		Steps:            nonNil(recipe.Steps),
		Tips:             recipe.Tips,
		Ingredients:      make([]StockedIngredient, 0, len(recipe.Ingredients)),
		TotalIngredients: len(recipe.Ingredients),
	}
	for _, req := range recipe.Ingredients {
		q, ok := held[req.IngredientID]
		inStock := ok && q >= req.Quantity
		if inStock {
			detail.InStockCount++
		}
		detail.Ingredients = append(detail.Ingredients, StockedIngredient{
			RequiredIngredient: req,
			HeldQuantity:       q,
			InStock:            inStock,
		})
	}
	return detail, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
