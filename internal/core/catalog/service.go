package catalog

import (
	"context"
	"fmt"
	"strings"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 食譜目錄讀取服務
type Service struct {
	store       domain.CatalogStore
	ingredients domain.IngredientCatalog
}

// NewService 創建食譜目錄服務
func NewService(store domain.CatalogStore, ingredients domain.IngredientCatalog) *Service {
	return &Service{
		store:       store,
		ingredients: ingredients,
	}
}

// ListRecipes 依目錄順序回傳所有食譜及其所需食材
func (s *Service) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if len(recipes) == 0 {
		return []domain.Recipe{}, nil
	}

	lookup := domain.NewIngredientLookup(s.ingredients)

	// 支援批次讀取時避免逐筆查詢關聯表
	var allLinks map[int64][]domain.RecipeIngredientLink
	lister, bulk := s.store.(domain.RecipeLinkLister)
	if bulk {
		allLinks, err = lister.ListAllRequiredIngredients(ctx)
		if err != nil {
			return nil, fmt.Errorf("list recipe ingredients: %w", err)
		}
	}

	out := make([]domain.Recipe, 0, len(recipes))
	for _, r := range recipes {
		links := allLinks[r.ID]
		if !bulk {
			links, err = s.store.ListRequiredIngredients(ctx, r.ID)
			if err != nil {
				return nil, fmt.Errorf("list ingredients of recipe %d: %w", r.ID, err)
			}
		}
		r.Ingredients, err = s.join(ctx, lookup, r.ID, links)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// GetRecipe 讀取單一食譜，不存在時回傳 domain.ErrRecipeNotFound
func (s *Service) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get recipe %d: %w", id, err)
	}
	if r == nil {
		return nil, fmt.Errorf("recipe %d: %w", id, domain.ErrRecipeNotFound)
	}
	recipe := *r
	recipe.Ingredients, err = s.RequiredIngredients(ctx, id)
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// RequiredIngredients 回傳食譜所需食材
func (s *Service) RequiredIngredients(ctx context.Context, recipeID int64) ([]domain.RequiredIngredient, error) {
	links, err := s.store.ListRequiredIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list ingredients of recipe %d: %w", recipeID, err)
	}
	return s.join(ctx, domain.NewIngredientLookup(s.ingredients), recipeID, links)
}

// join 將關聯列與食材目錄合併，目錄缺漏的食材會被丟棄
func (s *Service) join(ctx context.Context, lookup *domain.IngredientLookup, recipeID int64, links []domain.RecipeIngredientLink) ([]domain.RequiredIngredient, error) {
	out := make([]domain.RequiredIngredient, 0, len(links))
	for _, link := range links {
		ing, err := lookup.Get(ctx, link.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("get ingredient %d: %w", link.IngredientID, err)
		}
		if ing == nil {
			common.LogWarn("食譜引用了不存在的食材",
				zap.Int64("recipe_id", recipeID),
				zap.Int64("ingredient_id", link.IngredientID),
			)
			continue
		}

		unit := strings.TrimSpace(link.Unit)
		if unit == "" {
			unit = ing.DefaultUnit
		}
		out = append(out, domain.RequiredIngredient{
			IngredientID: ing.ID,
			Name:         ing.Name,
			Quantity:     link.Quantity,
			Unit:         unit,
		})
	}
	return out, nil
}
