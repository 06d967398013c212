package store

import (
	"context"
	"testing"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKitchen() *MemoryStore {
	s := NewMemoryStore()
	s.AddUser("wx_alice", 1)
	s.AddIngredient(domain.Ingredient{ID: 10, Name: "西红柿", DefaultUnit: "个"})
	s.AddIngredient(domain.Ingredient{ID: 11, Name: "鸡蛋", DefaultUnit: "个"})
	s.AddInventoryEntry(domain.InventoryEntry{UserKey: 1, IngredientID: 10, Quantity: 2, ExpiryDate: "2026-10-20"})
	s.AddInventoryEntry(domain.InventoryEntry{UserKey: 1, IngredientID: 10, Quantity: 1})
	s.AddInventoryEntry(domain.InventoryEntry{UserKey: 1, IngredientID: 11, Quantity: 6})
	return s
}

func TestResolveUserKeyStripsPrefix(t *testing.T) {
	s := newKitchen()
	ctx := context.Background()

	key, ok, err := s.ResolveUserKey(ctx, "wx_alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.UserKey(1), key)

	key, ok, err = s.ResolveUserKey(ctx, "u_wx_alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.UserKey(1), key)

	_, ok, err = s.ResolveUserKey(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.ResolveUserKey(ctx, "  ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddInventoryEntryAssignsIDs(t *testing.T) {
	s := newKitchen()
	entries, err := s.ListInventory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})

	e := s.AddInventoryEntry(domain.InventoryEntry{ID: 40, UserKey: 2, IngredientID: 11})
	assert.Equal(t, int64(40), e.ID)
	e = s.AddInventoryEntry(domain.InventoryEntry{UserKey: 2, IngredientID: 10})
	assert.Equal(t, int64(41), e.ID)
}

func TestListInventoryReturnsCopy(t *testing.T) {
	s := newKitchen()
	entries, err := s.ListInventory(context.Background(), 1)
	require.NoError(t, err)
	entries[0].Quantity = 99

	again, err := s.ListInventory(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, float64(2), again[0].Quantity)

	empty, err := s.ListInventory(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateInventoryEntryTouchesFirstMatch(t *testing.T) {
	s := newKitchen()
	ctx := context.Background()
	q := 5.0
	date := "2026-12-01"

	updated, err := s.UpdateInventoryEntry(ctx, 1, 10, domain.InventoryPatch{Quantity: &q, ExpiryDate: &date})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 5.0, updated.Quantity)
	assert.Equal(t, "2026-12-01", updated.ExpiryDate)

	entries, _ := s.ListInventory(ctx, 1)
	assert.Equal(t, 5.0, entries[0].Quantity)
	assert.Equal(t, 1.0, entries[1].Quantity)
	assert.Equal(t, "", entries[1].ExpiryDate)

	missing, err := s.UpdateInventoryEntry(ctx, 1, 99, domain.InventoryPatch{Quantity: &q})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteInventoryEntry(t *testing.T) {
	s := newKitchen()
	ctx := context.Background()

	deleted, err := s.DeleteInventoryEntry(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, deleted)

	entries, _ := s.ListInventory(ctx, 1)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(10), entries[0].IngredientID)
	assert.Equal(t, 1.0, entries[0].Quantity)

	deleted, err = s.DeleteInventoryEntry(ctx, 2, 10)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRecipesKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	s.AddRecipe(domain.Recipe{ID: 3, Name: "c"})
	s.AddRecipe(domain.Recipe{ID: 1, Name: "a"})
	s.AddRecipe(domain.Recipe{ID: 3, Name: "c2", Ingredients: []domain.RequiredIngredient{{IngredientID: 1}}})

	recipes, err := s.ListRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "c2", recipes[0].Name)
	assert.Nil(t, recipes[0].Ingredients)
	assert.Equal(t, "a", recipes[1].Name)

	r, err := s.GetRecipe(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestOpenMemoryWithoutSeed(t *testing.T) {
	backend, err := Open(context.Background(), config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Ping(context.Background()))
	recipes, err := backend.ListRecipes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite"})
	assert.Error(t, err)
}
