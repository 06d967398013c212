package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrReadOnly 儲存層不支援寫入
var ErrReadOnly = errors.New("inventory store is read-only")

// ClassifiedEntry 附上過期分類的庫存
type ClassifiedEntry struct {
	domain.InventoryEntry
	Status domain.ExpiryStatus
	// HasExpiry 為 false 時 Expiry 與 DaysUntilExpiry 無意義
	HasExpiry       bool
	Expiry          time.Time
	DaysUntilExpiry int
}

// ExpiryStats 庫存統計
type ExpiryStats struct {
	FreshCount    int `json:"fresh_count"`
	ExpiringCount int `json:"expiring_count"`
	ExpiredCount  int `json:"expired_count"`
	TotalCount    int `json:"total_count"`
}

// UrgentIngredient 有過期日期的食材與剩餘天數
type UrgentIngredient struct {
	IngredientID    int64   `json:"id"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	ExpiryDate      string  `json:"expiry_date"`
	DaysUntilExpiry int     `json:"days_until_expiry"`
}

// InventoryItem 對外顯示的庫存項目
type InventoryItem struct {
	IngredientID    int64               `json:"id"`
	Name            string              `json:"name"`
	Quantity        float64             `json:"quantity"`
	Unit            string              `json:"unit"`
	ExpiryDate      string              `json:"expiry_date,omitempty"`
	DaysUntilExpiry *int                `json:"days_until_expiry,omitempty"`
	Status          domain.ExpiryStatus `json:"status"`
}

// Service 食材庫存服務
type Service struct {
	users       domain.IdentityResolver
	store       domain.InventoryStore
	ingredients domain.IngredientCatalog
	writer      domain.InventoryWriter
	now         func() time.Time
	rand        common.RandSource
}

// NewService 創建庫存服務，store 同時實作 InventoryWriter 時啟用寫入
func NewService(users domain.IdentityResolver, store domain.InventoryStore, ingredients domain.IngredientCatalog) *Service {
	s := &Service{
		users:       users,
		store:       store,
		ingredients: ingredients,
		now:         time.Now,
		rand:        common.GlobalRand,
	}
	if w, ok := store.(domain.InventoryWriter); ok {
		s.writer = w
	}
	return s
}

// SetClock 替換時鐘
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetRand 替換隨機來源
func (s *Service) SetRand(r common.RandSource) {
	s.rand = r
}

func (s *Service) today() time.Time {
	return civilDate(s.now())
}

// load 解析身分並讀取庫存，未知使用者回傳 nil
func (s *Service) load(ctx context.Context, identity string) ([]domain.InventoryEntry, domain.UserKey, error) {
	key, ok, err := s.users.ResolveUserKey(ctx, identity)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve user %q: %w", identity, err)
	}
	if !ok {
		common.LogDebug("未找到與身分對應的使用者", zap.String("identity", identity))
		return nil, 0, nil
	}
	entries, err := s.store.ListInventory(ctx, key)
	if err != nil {
		return nil, key, fmt.Errorf("list inventory for user %d: %w", key, err)
	}
	return entries, key, nil
}

// classify 計算單筆庫存的分類，日期無法解析時視為新鮮
func (s *Service) classify(entry domain.InventoryEntry, today time.Time) ClassifiedEntry {
	ce := ClassifiedEntry{InventoryEntry: entry, Status: domain.StatusFresh}
	expiry, ok, err := ParseExpiryDate(entry.ExpiryDate)
	if err != nil {
		common.LogWarn("過期日期格式錯誤，視為新鮮",
			zap.Int64("ingredient_id", entry.IngredientID),
			zap.String("expiry_date", entry.ExpiryDate),
			zap.Error(err),
		)
		return ce
	}
	if !ok {
		return ce
	}
	ce.HasExpiry = true
	ce.Expiry = expiry
	ce.DaysUntilExpiry = DaysBetween(today, expiry)
	ce.Status = Classify(ce.DaysUntilExpiry)
	return ce
}

// Entries 回傳使用者所有庫存及其分類
func (s *Service) Entries(ctx context.Context, identity string) ([]ClassifiedEntry, error) {
	entries, _, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	today := s.today()
	out := make([]ClassifiedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.classify(e, today))
	}
	return out, nil
}

// Stats 統計新鮮、臨期、過期數量
func (s *Service) Stats(ctx context.Context, identity string) (ExpiryStats, error) {
	entries, err := s.Entries(ctx, identity)
	if err != nil {
		return ExpiryStats{}, err
	}
	var stats ExpiryStats
	for _, e := range entries {
		switch e.Status {
		case domain.StatusExpired:
			stats.ExpiredCount++
		case domain.StatusExpiring:
			stats.ExpiringCount++
		default:
			stats.FreshCount++
		}
	}
	stats.TotalCount = stats.FreshCount + stats.ExpiringCount + stats.ExpiredCount
	return stats, nil
}

// Quantities 以食材 ID 彙總持有數量
func (s *Service) Quantities(ctx context.Context, identity string) (map[int64]float64, error) {
	entries, _, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	held := make(map[int64]float64, len(entries))
	for _, e := range entries {
		held[e.IngredientID] += e.Quantity
	}
	return held, nil
}

// urgent 依剩餘天數遞增排序的候選食材，天數小於 0 以 0 計
func (s *Service) urgent(ctx context.Context, identity string) ([]UrgentIngredient, error) {
	entries, err := s.Entries(ctx, identity)
	if err != nil {
		return nil, err
	}

	lookup := domain.NewIngredientLookup(s.ingredients)
	out := make([]UrgentIngredient, 0, len(entries))
	for _, e := range entries {
		if !e.HasExpiry {
			continue
		}
		ing, err := lookup.Get(ctx, e.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("get ingredient %d: %w", e.IngredientID, err)
		}
		if ing == nil {
			common.LogWarn("庫存引用了不存在的食材", zap.Int64("ingredient_id", e.IngredientID))
			continue
		}
		days := e.DaysUntilExpiry
		if days < 0 {
			days = 0
		}
		out = append(out, UrgentIngredient{
			IngredientID:    e.IngredientID,
			Name:            ing.Name,
			Quantity:        e.Quantity,
			Unit:            ing.DefaultUnit,
			ExpiryDate:      e.Expiry.Format(DateLayout),
			DaysUntilExpiry: days,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilExpiry < out[j].DaysUntilExpiry
	})
	return out, nil
}

// TopUrgent 回傳最快過期的前 topN 個食材
func (s *Service) TopUrgent(ctx context.Context, identity string, topN int) ([]UrgentIngredient, error) {
	topN = NormalizeTopN(topN)
	candidates, err := s.urgent(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

// MostUrgent 回傳最快過期的食材，同天數時隨機挑選一個
func (s *Service) MostUrgent(ctx context.Context, identity string) (*UrgentIngredient, error) {
	candidates, err := s.urgent(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ties := 1
	for ties < len(candidates) && candidates[ties].DaysUntilExpiry == candidates[0].DaysUntilExpiry {
		ties++
	}
	picked := candidates[s.rand.IntN(ties)]
	return &picked, nil
}

// List 回傳使用者所有食材，目錄中不存在的食材會被略過
func (s *Service) List(ctx context.Context, identity string) ([]InventoryItem, error) {
	entries, err := s.Entries(ctx, identity)
	if err != nil {
		return nil, err
	}

	lookup := domain.NewIngredientLookup(s.ingredients)
	items := make([]InventoryItem, 0, len(entries))
	for _, e := range entries {
		ing, err := lookup.Get(ctx, e.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("get ingredient %d: %w", e.IngredientID, err)
		}
		if ing == nil {
			common.LogWarn("庫存引用了不存在的食材", zap.Int64("ingredient_id", e.IngredientID))
			continue
		}
		items = append(items, toItem(e, ing))
	}
	return items, nil
}

func toItem(e ClassifiedEntry, ing *domain.Ingredient) InventoryItem {
	item := InventoryItem{
		IngredientID: e.IngredientID,
		Quantity:     e.Quantity,
		Status:       e.Status,
	}
	if ing != nil {
		item.Name = ing.Name
		item.Unit = ing.DefaultUnit
	} else {
		item.Name = fmt.Sprintf("未知食材(%d)", e.IngredientID)
	}
	if e.HasExpiry {
		days := e.DaysUntilExpiry
		if days < 0 {
			days = 0
		}
		item.ExpiryDate = e.Expiry.Format(DateLayout)
		item.DaysUntilExpiry = &days
	}
	return item
}

// ValidatePatch 檢查更新欄位並將日期正規化
func ValidatePatch(patch domain.InventoryPatch) (domain.InventoryPatch, error) {
	if patch.Quantity == nil && patch.ExpiryDate == nil {
		return patch, domain.ErrEmptyPatch
	}
	if patch.Quantity != nil {
		q := *patch.Quantity
		if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
			return patch, domain.ErrInvalidQuantity
		}
	}
	if patch.ExpiryDate != nil {
		t, err := time.Parse(DateLayout, strings.TrimSpace(*patch.ExpiryDate))
		if err != nil {
			return patch, domain.ErrInvalidExpiryDate
		}
		normalized := t.Format(DateLayout)
		patch.ExpiryDate = &normalized
	}
	return patch, nil
}

// Update 更新使用者的某個食材，使用者或食材不存在時回傳 nil
func (s *Service) Update(ctx context.Context, identity string, ingredientID int64, patch domain.InventoryPatch) (*InventoryItem, error) {
	patch, err := ValidatePatch(patch)
	if err != nil {
		return nil, err
	}
	if s.writer == nil {
		return nil, ErrReadOnly
	}

	key, ok, err := s.users.ResolveUserKey(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", identity, err)
	}
	if !ok {
		return nil, nil
	}

	updated, err := s.writer.UpdateInventoryEntry(ctx, key, ingredientID, patch)
	if err != nil {
		return nil, fmt.Errorf("update inventory entry %d: %w", ingredientID, err)
	}
	if updated == nil {
		return nil, nil
	}

	ing, err := s.ingredients.GetIngredient(ctx, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("get ingredient %d: %w", ingredientID, err)
	}
	item := toItem(s.classify(*updated, s.today()), ing)

	common.LogInfo("食材已更新",
		zap.String("identity", identity),
		zap.Int64("ingredient_id", ingredientID),
		zap.Float64("quantity", item.Quantity),
		zap.String("expiry_date", item.ExpiryDate),
	)
	return &item, nil
}

// Delete 刪除使用者的某個食材
func (s *Service) Delete(ctx context.Context, identity string, ingredientID int64) (bool, error) {
	if s.writer == nil {
		return false, ErrReadOnly
	}
	key, ok, err := s.users.ResolveUserKey(ctx, identity)
	if err != nil {
		return false, fmt.Errorf("resolve user %q: %w", identity, err)
	}
	if !ok {
		return false, nil
	}
	deleted, err := s.writer.DeleteInventoryEntry(ctx, key, ingredientID)
	if err != nil {
		return false, fmt.Errorf("delete inventory entry %d: %w", ingredientID, err)
	}
	if deleted {
		common.LogInfo("食材已刪除",
			zap.String("identity", identity),
			zap.Int64("ingredient_id", ingredientID),
		)
	}
	return deleted, nil
}
