package recommend

import (
	"context"
	"fmt"
	"testing"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/core/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urgent(name string, days int) inventory.UrgentIngredient {
	return inventory.UrgentIngredient{Name: name, DaysUntilExpiry: days}
}

func TestNormalizeRecipeCount(t *testing.T) {
	assert.Equal(t, DefaultRecipeCount, NormalizeRecipeCount(0))
	assert.Equal(t, DefaultRecipeCount, NormalizeRecipeCount(11))
	assert.Equal(t, 1, NormalizeRecipeCount(1))
	assert.Equal(t, 10, NormalizeRecipeCount(10))
}

func TestMatchRanksByScore(t *testing.T) {
	pantry := &fakePantry{urgent: []inventory.UrgentIngredient{
		urgent("西红柿", 0), urgent("葱", 1), urgent("西红柿", 2),
	}}
	catalog := &fakeCatalog{recipes: []domain.Recipe{
		{ID: 1, Name: "西红柿炒鸡蛋", Ingredients: []domain.RequiredIngredient{req(1, "西红柿", 2), req(2, "鸡蛋", 3)}},
		{ID: 2, Name: "葱油", Ingredients: []domain.RequiredIngredient{req(3, "葱", 2)}},
		{ID: 3, Name: "牛肉", Ingredients: []domain.RequiredIngredient{req(4, "牛肉", 1)}},
		{ID: 4, Name: "番茄葱蛋", Ingredients: []domain.RequiredIngredient{req(1, "西红柿", 1), req(3, "葱", 1), req(2, "鸡蛋", 1)}},
		{ID: 5, Name: "空"},
	}}

	matches, err := NewExpiryMatcher(pantry, catalog).Match(context.Background(), "wx_alice", 5, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 5, pantry.lastTopN)

	assert.Equal(t, int64(2), matches[0].ID)
	assert.Equal(t, 100, matches[0].MatchingScore)
	assert.Equal(t, 100.0, matches[0].MatchRate)

	assert.Equal(t, int64(4), matches[1].ID)
	assert.Equal(t, 67, matches[1].MatchingScore)
	assert.Equal(t, 66.7, matches[1].MatchRate)
	assert.Equal(t, 3, matches[1].TotalIngredients)
	assert.Equal(t, []UrgentMatch{{Name: "西红柿", DaysUntilExpiry: 0}, {Name: "葱", DaysUntilExpiry: 1}}, matches[1].MatchingIngredients)
}

func TestMatchCountsDuplicateNamesOnce(t *testing.T) {
	pantry := &fakePantry{urgent: []inventory.UrgentIngredient{urgent("西红柿", 0), urgent("西红柿", 1)}}
	catalog := &fakeCatalog{recipes: []domain.Recipe{
		{ID: 1, Name: "西红柿炒鸡蛋", Ingredients: []domain.RequiredIngredient{req(1, "西红柿", 2), req(2, "鸡蛋", 3)}},
	}}

	matches, err := NewExpiryMatcher(pantry, catalog).Match(context.Background(), "wx_alice", 5, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].MatchingIngredients, 1)
	assert.Equal(t, 50, matches[0].MatchingScore)
}

func TestMatchScoreRoundsHalfToEven(t *testing.T) {
	ings := []domain.RequiredIngredient{req(1, "a", 1)}
	for i := int64(2); i <= 8; i++ {
		ings = append(ings, req(i, string(rune('a'+i-1)), 1))
	}
	pantry := &fakePantry{urgent: []inventory.UrgentIngredient{urgent("a", 1)}}
	catalog := &fakeCatalog{recipes: []domain.Recipe{{ID: 1, Name: "八宝", Ingredients: ings}}}

	matches, err := NewExpiryMatcher(pantry, catalog).Match(context.Background(), "wx_alice", 5, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 12.5, matches[0].MatchRate)
	assert.Equal(t, 12, matches[0].MatchingScore)
}

func TestMatchWithoutUrgentIngredients(t *testing.T) {
	pantry := &fakePantry{}
	catalog := &fakeCatalog{recipes: kitchenRecipes()}

	matches, err := NewExpiryMatcher(pantry, catalog).Match(context.Background(), "wx_alice", 5, 3)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMatchNoRecipeUsesUrgent(t *testing.T) {
	pantry := &fakePantry{urgent: []inventory.UrgentIngredient{urgent("榴莲", 1)}}
	catalog := &fakeCatalog{recipes: kitchenRecipes()}

	matches, err := NewExpiryMatcher(pantry, catalog).Match(context.Background(), "wx_alice", 5, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchKeepsCatalogOrderOnTies(t *testing.T) {
	var recipes []domain.Recipe
	var want []int64
	for id := int64(1); id <= 24; id++ {
		ings := []domain.RequiredIngredient{req(1, "西红柿", 1)}
		if id%2 == 1 {
			ings = append(ings, req(2, "鸡蛋", 1))
		} else if len(want) < 10 {
			want = append(want, id)
		}
		recipes = append(recipes, domain.Recipe{ID: id, Name: fmt.Sprintf("食譜%d", id), Ingredients: ings})
	}

	pantry := &fakePantry{urgent: []inventory.UrgentIngredient{urgent("西红柿", 1)}}
	matches, err := NewExpiryMatcher(pantry, &fakeCatalog{recipes: recipes}).Match(context.Background(), "wx_alice", 5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 10)

	got := make([]int64, 0, len(matches))
	for _, m := range matches {
		assert.Equal(t, 100, m.MatchingScore)
		got = append(got, m.ID)
	}
	assert.Equal(t, want, got)
}
