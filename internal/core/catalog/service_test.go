package catalog

import (
	"context"
	"errors"
	"testing"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/infrastructure/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog() *store.MemoryStore {
	s := store.NewMemoryStore()
	s.AddIngredient(domain.Ingredient{ID: 1, Name: "西红柿", DefaultUnit: "个"})
	s.AddIngredient(domain.Ingredient{ID: 2, Name: "鸡蛋", DefaultUnit: "个"})
	s.AddRecipe(domain.Recipe{ID: 10, Name: "西红柿炒鸡蛋"})
	s.AddRecipe(domain.Recipe{ID: 11, Name: "白水"})
	s.AddRecipeIngredient(domain.RecipeIngredientLink{RecipeID: 10, IngredientID: 1, Quantity: 2})
	s.AddRecipeIngredient(domain.RecipeIngredientLink{RecipeID: 10, IngredientID: 2, Quantity: 3, Unit: "枚"})
	s.AddRecipeIngredient(domain.RecipeIngredientLink{RecipeID: 10, IngredientID: 404, Quantity: 1})
	return s
}

func TestListRecipesJoinsIngredients(t *testing.T) {
	s := newCatalog()
	svc := NewService(s, s)

	recipes, err := svc.ListRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	assert.Equal(t, []domain.RequiredIngredient{
		{IngredientID: 1, Name: "西红柿", Quantity: 2, Unit: "个"},
		{IngredientID: 2, Name: "鸡蛋", Quantity: 3, Unit: "枚"},
	}, recipes[0].Ingredients)
	assert.Empty(t, recipes[1].Ingredients)
}

func TestGetRecipe(t *testing.T) {
	s := newCatalog()
	svc := NewService(s, s)

	r, err := svc.GetRecipe(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "西红柿炒鸡蛋", r.Name)
	assert.Len(t, r.Ingredients, 2)

	_, err = svc.GetRecipe(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestListRecipesEmptyCatalog(t *testing.T) {
	s := store.NewMemoryStore()
	recipes, err := NewService(s, s).ListRecipes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recipes)
	assert.Empty(t, recipes)
}

// perRecipeStore 不支援批次讀取關聯列
type perRecipeStore struct {
	recipes []domain.Recipe
	links   map[int64][]domain.RecipeIngredientLink
	calls   int
	err     error
}

func (p *perRecipeStore) ListRecipes(context.Context) ([]domain.Recipe, error) {
	return p.recipes, nil
}

func (p *perRecipeStore) GetRecipe(_ context.Context, id int64) (*domain.Recipe, error) {
	for _, r := range p.recipes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (p *perRecipeStore) ListRequiredIngredients(_ context.Context, id int64) ([]domain.RecipeIngredientLink, error) {
	p.calls++
	return p.links[id], p.err
}

// countingIngredients 記錄逐筆查詢次數
type countingIngredients struct {
	items map[int64]domain.Ingredient
	calls int
}

func (c *countingIngredients) GetIngredient(_ context.Context, id int64) (*domain.Ingredient, error) {
	c.calls++
	ing, ok := c.items[id]
	if !ok {
		return nil, nil
	}
	return &ing, nil
}

func TestListRecipesWithoutBulkReader(t *testing.T) {
	p := &perRecipeStore{
		recipes: []domain.Recipe{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		links: map[int64][]domain.RecipeIngredientLink{
			1: {{RecipeID: 1, IngredientID: 5, Quantity: 1}},
			2: {{RecipeID: 2, IngredientID: 5, Quantity: 2}},
		},
	}
	ings := &countingIngredients{items: map[int64]domain.Ingredient{5: {ID: 5, Name: "盐", DefaultUnit: "克"}}}

	recipes, err := NewService(p, ings).ListRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 1, ings.calls)
	assert.Equal(t, "克", recipes[1].Ingredients[0].Unit)
}

func TestListRecipesPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	p := &perRecipeStore{recipes: []domain.Recipe{{ID: 1}}, err: boom}

	_, err := NewService(p, &countingIngredients{}).ListRecipes(context.Background())
	assert.ErrorIs(t, err, boom)
}
