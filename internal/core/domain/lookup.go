package domain

import "context"

// IngredientLookup 單次請求內的食材目錄查詢，結果會被記住
type IngredientLookup struct {
	catalog IngredientCatalog
	cache   map[int64]*Ingredient
	loaded  bool
}

// NewIngredientLookup 建立查詢器
func NewIngredientLookup(catalog IngredientCatalog) *IngredientLookup {
	return &IngredientLookup{
		catalog: catalog,
		cache:   make(map[int64]*Ingredient),
	}
}

// Get 查詢食材，找不到時回傳 nil
func (l *IngredientLookup) Get(ctx context.Context, id int64) (*Ingredient, error) {
	if !l.loaded {
		if lister, ok := l.catalog.(IngredientLister); ok {
			all, err := lister.ListIngredients(ctx)
			if err != nil {
				return nil, err
			}
			for i := range all {
				ing := all[i]
				l.cache[ing.ID] = &ing
			}
			l.loaded = true
			return l.cache[id], nil
		}
	}

	if ing, ok := l.cache[id]; ok || l.loaded {
		return ing, nil
	}
	ing, err := l.catalog.GetIngredient(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cache[id] = ing
	return ing, nil
}
