package store

import (
	"context"
	"sync"

	"recipe-inventory/internal/core/domain"
)

// Compile-time interface checks
var (
	_ domain.IdentityResolver  = (*MemoryStore)(nil)
	_ domain.InventoryStore    = (*MemoryStore)(nil)
	_ domain.InventoryWriter   = (*MemoryStore)(nil)
	_ domain.CatalogStore      = (*MemoryStore)(nil)
	_ domain.IngredientCatalog = (*MemoryStore)(nil)
	_ domain.RecipeLinkLister  = (*MemoryStore)(nil)
	_ domain.IngredientLister  = (*MemoryStore)(nil)
	_ domain.Pinger            = (*MemoryStore)(nil)
)

// MemoryStore 以使用者與食譜 ID 建立索引的記憶體儲存
type MemoryStore struct {
	mu sync.RWMutex

	users           map[string]domain.UserKey
	ingredients     map[int64]domain.Ingredient
	ingredientOrder []int64
	recipes         []domain.Recipe
	recipeIndex     map[int64]int
	links           map[int64][]domain.RecipeIngredientLink
	inventory       map[domain.UserKey][]domain.InventoryEntry
	nextEntryID     int64
}

// NewMemoryStore 創建空的記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.UserKey),
		ingredients: make(map[int64]domain.Ingredient),
		recipeIndex: make(map[int64]int),
		links:       make(map[int64][]domain.RecipeIngredientLink),
		inventory:   make(map[domain.UserKey][]domain.InventoryEntry),
	}
}

// AddUser 登記外部識別碼與內部主鍵的對應
func (s *MemoryStore) AddUser(identity string, key domain.UserKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[identity] = key
}

// AddIngredient 新增或覆蓋食材
func (s *MemoryStore) AddIngredient(ing domain.Ingredient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ingredients[ing.ID]; !ok {
		s.ingredientOrder = append(s.ingredientOrder, ing.ID)
	}
	s.ingredients[ing.ID] = ing
}

// AddRecipe 新增或覆蓋食譜，保持首次加入的順序
func (s *MemoryStore) AddRecipe(r domain.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Ingredients = nil
	if i, ok := s.recipeIndex[r.ID]; ok {
		s.recipes[i] = r
		return
	}
	s.recipeIndex[r.ID] = len(s.recipes)
	s.recipes = append(s.recipes, r)
}

// AddRecipeIngredient 新增食譜與食材的關聯
func (s *MemoryStore) AddRecipeIngredient(link domain.RecipeIngredientLink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.RecipeID] = append(s.links[link.RecipeID], link)
}

// AddInventoryEntry 新增庫存，ID 為 0 時自動配發
func (s *MemoryStore) AddInventoryEntry(e domain.InventoryEntry) domain.InventoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		s.nextEntryID++
		e.ID = s.nextEntryID
	} else if e.ID > s.nextEntryID {
		s.nextEntryID = e.ID
	}
	s.inventory[e.UserKey] = append(s.inventory[e.UserKey], e)
	return e
}

// ResolveUserKey 先比對原始識別碼，再比對去掉前綴的識別碼
func (s *MemoryStore) ResolveUserKey(_ context.Context, identity string) (domain.UserKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, candidate := range identityCandidates(identity) {
		if key, ok := s.users[candidate]; ok {
			return key, true, nil
		}
	}
	return 0, false, nil
}

// ListInventory 回傳使用者庫存的副本
func (s *MemoryStore) ListInventory(_ context.Context, key domain.UserKey) ([]domain.InventoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.inventory[key]
	out := make([]domain.InventoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryStore) findEntry(key domain.UserKey, ingredientID int64) int {
	for i, e := range s.inventory[key] {
		if e.IngredientID == ingredientID {
			return i
		}
	}
	return -1
}

// UpdateInventoryEntry 更新第一筆符合的庫存
func (s *MemoryStore) UpdateInventoryEntry(_ context.Context, key domain.UserKey, ingredientID int64, patch domain.InventoryPatch) (*domain.InventoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findEntry(key, ingredientID)
	if i < 0 {
		return nil, nil
	}
	e := &s.inventory[key][i]
	if patch.Quantity != nil {
		e.Quantity = *patch.Quantity
	}
	if patch.ExpiryDate != nil {
		e.ExpiryDate = *patch.ExpiryDate
	}
	updated := *e
	return &updated, nil
}

// DeleteInventoryEntry 刪除第一筆符合的庫存
func (s *MemoryStore) DeleteInventoryEntry(_ context.Context, key domain.UserKey, ingredientID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findEntry(key, ingredientID)
	if i < 0 {
		return false, nil
	}
	entries := s.inventory[key]
	s.inventory[key] = append(entries[:i:i], entries[i+1:]...)
	return true, nil
}

// ListRecipes 依加入順序回傳食譜，不含所需食材
func (s *MemoryStore) ListRecipes(_ context.Context) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out, nil
}

// GetRecipe 找不到時回傳 nil
func (s *MemoryStore) GetRecipe(_ context.Context, id int64) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.recipeIndex[id]
	if !ok {
		return nil, nil
	}
	r := s.recipes[i]
	return &r, nil
}

// ListRequiredIngredients 回傳食譜的關聯列
func (s *MemoryStore) ListRequiredIngredients(_ context.Context, recipeID int64) ([]domain.RecipeIngredientLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := s.links[recipeID]
	out := make([]domain.RecipeIngredientLink, len(links))
	copy(out, links)
	return out, nil
}

// ListAllRequiredIngredients 一次回傳所有食譜的關聯列
func (s *MemoryStore) ListAllRequiredIngredients(_ context.Context) (map[int64][]domain.RecipeIngredientLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]domain.RecipeIngredientLink, len(s.links))
	for id, links := range s.links {
		cp := make([]domain.RecipeIngredientLink, len(links))
		copy(cp, links)
		out[id] = cp
	}
	return out, nil
}

// GetIngredient 找不到時回傳 nil
func (s *MemoryStore) GetIngredient(_ context.Context, id int64) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ing, ok := s.ingredients[id]
	if !ok {
		return nil, nil
	}
	return &ing, nil
}

// ListIngredients 回傳整個食材目錄
func (s *MemoryStore) ListIngredients(_ context.Context) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ingredient, 0, len(s.ingredientOrder))
	for _, id := range s.ingredientOrder {
		out = append(out, s.ingredients[id])
	}
	return out, nil
}

// Ping 記憶體儲存永遠可用
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close 無需釋放資源
func (s *MemoryStore) Close() error {
	return nil
}
