package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/core/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePantry 固定的庫存資料
type fakePantry struct {
	held       map[int64]float64
	urgent     []inventory.UrgentIngredient
	err        error
	heldCalls  int
	lastTopN   int
	identities []string
}

func (p *fakePantry) Quantities(_ context.Context, identity string) (map[int64]float64, error) {
	p.heldCalls++
	p.identities = append(p.identities, identity)
	return p.held, p.err
}

func (p *fakePantry) TopUrgent(_ context.Context, identity string, topN int) ([]inventory.UrgentIngredient, error) {
	p.lastTopN = topN
	p.identities = append(p.identities, identity)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.urgent) > topN {
		return p.urgent[:topN], nil
	}
	return p.urgent, nil
}

// fakeCatalog 固定的食譜目錄
type fakeCatalog struct {
	recipes []domain.Recipe
	err     error
}

func (c *fakeCatalog) ListRecipes(context.Context) ([]domain.Recipe, error) {
	return c.recipes, c.err
}

func (c *fakeCatalog) GetRecipe(_ context.Context, id int64) (*domain.Recipe, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, r := range c.recipes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("recipe %d: %w", id, domain.ErrRecipeNotFound)
}

// scriptedRand 依序回傳預設的值
type scriptedRand struct {
	values []int
}

func (r *scriptedRand) IntN(n int) int {
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func req(id int64, name string, qty float64) domain.RequiredIngredient {
	return domain.RequiredIngredient{IngredientID: id, Name: name, Quantity: qty, Unit: "个"}
}

func kitchenRecipes() []domain.Recipe {
	return []domain.Recipe{
		{ID: 1, Name: "西红柿炒鸡蛋", Calories: f64(220), CookTime: f64(10),
			Ingredients: []domain.RequiredIngredient{req(1, "西红柿", 2), req(2, "鸡蛋", 3)}},
		{ID: 2, Name: "土豆炖牛肉", Calories: f64(650),
			Ingredients: []domain.RequiredIngredient{req(4, "牛肉", 500), req(5, "土豆", 2)}},
		{ID: 3, Name: "白开水"},
		{ID: 4, Name: "葱油拌面",
			Ingredients: []domain.RequiredIngredient{req(3, "葱", 2)}},
	}
}

func TestScoreRecipe(t *testing.T) {
	recipe := kitchenRecipes()[0]

	matching, total, rate := ScoreRecipe(recipe, map[int64]float64{1: 3, 2: 2})
	assert.Equal(t, 1, matching)
	assert.Equal(t, 2, total)
	assert.Equal(t, 50.0, rate)

	matching, total, rate = ScoreRecipe(kitchenRecipes()[2], map[int64]float64{1: 3})
	assert.Zero(t, matching)
	assert.Zero(t, total)
	assert.Zero(t, rate)
}

func TestRecommendRanksByCoverage(t *testing.T) {
	pantry := &fakePantry{held: map[int64]float64{1: 3, 2: 2, 3: 5}}
	r := NewRecommender(pantry, &fakeCatalog{recipes: kitchenRecipes()})

	recs, err := r.Recommend(context.Background(), "wx_alice", 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, int64(4), recs[0].ID)
	assert.Equal(t, 100.0, recs[0].MatchRate)

	assert.Equal(t, int64(1), recs[1].ID)
	assert.Equal(t, 50.0, recs[1].MatchRate)
	assert.Equal(t, 1, recs[1].MatchingIngredients)
	assert.Equal(t, 2, recs[1].TotalIngredients)
	assert.Equal(t, []string{TagLowCalorie, TagQuick}, recs[1].Tags)

	assert.Equal(t, int64(2), recs[2].ID)
	assert.Equal(t, 0.0, recs[2].MatchRate)
}

func TestRecommendHonorsLimit(t *testing.T) {
	pantry := &fakePantry{held: map[int64]float64{1: 3, 2: 2, 3: 5}}
	r := NewRecommender(pantry, &fakeCatalog{recipes: kitchenRecipes()})

	recs, err := r.Recommend(context.Background(), "wx_alice", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(4), recs[0].ID)
}

func TestRecommendRoundsRate(t *testing.T) {
	recipe := domain.Recipe{ID: 9, Name: "三鲜", Ingredients: []domain.RequiredIngredient{
		req(1, "a", 1), req(2, "b", 1), req(3, "c", 1),
	}}
	pantry := &fakePantry{held: map[int64]float64{1: 1}}
	r := NewRecommender(pantry, &fakeCatalog{recipes: []domain.Recipe{recipe}})

	recs, err := r.Recommend(context.Background(), "wx_alice", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 33.3, recs[0].MatchRate)
}

func TestRecommendEmptyCatalog(t *testing.T) {
	pantry := &fakePantry{held: map[int64]float64{1: 1}}
	r := NewRecommender(pantry, &fakeCatalog{recipes: []domain.Recipe{{ID: 3, Name: "白开水"}}})

	recs, err := r.Recommend(context.Background(), "wx_alice", 5)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Zero(t, pantry.heldCalls)
}

func TestRecommendSamplesWhenInventoryEmpty(t *testing.T) {
	pantry := &fakePantry{}
	r := NewRecommender(pantry, &fakeCatalog{recipes: kitchenRecipes()})
	r.SetRand(&scriptedRand{values: []int{2, 0}})

	recs, err := r.Recommend(context.Background(), "stranger", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// 可抽樣的食譜為 1, 2, 4
	assert.Equal(t, int64(4), recs[0].ID)
	assert.Equal(t, int64(2), recs[1].ID)
	for _, rec := range recs {
		assert.Zero(t, rec.MatchRate)
		assert.Zero(t, rec.MatchingIngredients)
		assert.Zero(t, rec.TotalIngredients)
	}
}

func TestRecommendSamplesWhenNothingMatches(t *testing.T) {
	pantry := &fakePantry{held: map[int64]float64{99: 1}}
	r := NewRecommender(pantry, &fakeCatalog{recipes: kitchenRecipes()})
	r.SetRand(&scriptedRand{values: []int{0, 0, 0}})

	recs, err := r.Recommend(context.Background(), "wx_alice", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	seen := map[int64]bool{}
	for _, rec := range recs {
		assert.False(t, seen[rec.ID], "duplicate recipe %d", rec.ID)
		seen[rec.ID] = true
	}
	// 樣本數受限於有食材的食譜數，白开水不會被抽到
	assert.False(t, seen[3])
}

func TestRecommendPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")

	_, err := NewRecommender(&fakePantry{}, &fakeCatalog{err: boom}).Recommend(context.Background(), "x", 1)
	assert.ErrorIs(t, err, boom)

	_, err = NewRecommender(&fakePantry{err: boom}, &fakeCatalog{recipes: kitchenRecipes()}).Recommend(context.Background(), "x", 1)
	assert.ErrorIs(t, err, boom)
}

func TestRecommendKeepsCatalogOrderOnTies(t *testing.T) {
	var recipes []domain.Recipe
	var full, half []int64
	for id := int64(1); id <= 24; id++ {
		ings := []domain.RequiredIngredient{req(1, "鸡蛋", 1)}
		if id%2 == 1 {
			ings = append(ings, req(2, "牛奶", 1))
			half = append(half, id)
		} else {
			full = append(full, id)
		}
		recipes = append(recipes, domain.Recipe{ID: id, Name: fmt.Sprintf("食譜%d", id), Ingredients: ings})
	}

	pantry := &fakePantry{held: map[int64]float64{1: 1}}
	recs, err := NewRecommender(pantry, &fakeCatalog{recipes: recipes}).Recommend(context.Background(), "wx_alice", 24)
	require.NoError(t, err)
	require.Len(t, recs, 24)

	got := make([]int64, 0, len(recs))
	for _, rec := range recs {
		got = append(got, rec.ID)
	}
	assert.Equal(t, append(full, half...), got)
}
