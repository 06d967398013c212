package domain

import "context"

// IdentityResolver 將外部身分轉為內部使用者主鍵，找不到時回傳 false 而非錯誤
type IdentityResolver interface {
	ResolveUserKey(ctx context.Context, identity string) (UserKey, bool, error)
}

// InventoryStore 讀取使用者庫存，沒有資料時回傳空切片
type InventoryStore interface {
	ListInventory(ctx context.Context, key UserKey) ([]InventoryEntry, error)
}

// InventoryWriter 修改使用者庫存
type InventoryWriter interface {
	// UpdateInventoryEntry 更新第一筆符合的庫存，找不到時回傳 nil
	UpdateInventoryEntry(ctx context.Context, key UserKey, ingredientID int64, patch InventoryPatch) (*InventoryEntry, error)
	// DeleteInventoryEntry 刪除第一筆符合的庫存
	DeleteInventoryEntry(ctx context.Context, key UserKey, ingredientID int64) (bool, error)
}

// CatalogStore 食譜目錄
type CatalogStore interface {
	ListRecipes(ctx context.Context) ([]Recipe, error)
	// GetRecipe 找不到時回傳 nil, nil
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	ListRequiredIngredients(ctx context.Context, recipeID int64) ([]RecipeIngredientLink, error)
}

// IngredientCatalog 食材目錄
type IngredientCatalog interface {
	// GetIngredient 找不到時回傳 nil, nil
	GetIngredient(ctx context.Context, id int64) (*Ingredient, error)
}

// RecipeLinkLister 可一次讀出所有關聯列的目錄
type RecipeLinkLister interface {
	ListAllRequiredIngredients(ctx context.Context) (map[int64][]RecipeIngredientLink, error)
}

// IngredientLister 可一次讀出整個食材目錄
type IngredientLister interface {
	ListIngredients(ctx context.Context) ([]Ingredient, error)
}

// Pinger 檢查後端連線
type Pinger interface {
	Ping(ctx context.Context) error
}
