package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/pkg/common"

	"go.uber.org/zap"
)

// Seed 初始資料檔格式，欄位與資料表一致
type Seed struct {
	Users             []seedUser             `json:"users"`
	Ingredients       []seedIngredient       `json:"ingredients"`
	Recipes           []seedRecipe           `json:"recipes"`
	RecipeIngredients []seedRecipeIngredient `json:"recipe_ingredients"`
	UserIngredients   []seedUserIngredient   `json:"user_ingredients"`
}

type seedUser struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
}

type seedIngredient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type seedRecipe struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	CookTime    interface{}     `json:"cook_time"`
	Calories    interface{}     `json:"calories"`
	Difficulty  interface{}     `json:"difficulty"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Tools       json.RawMessage `json:"tools"`
	PrepSteps   json.RawMessage `json:"prep_steps"`
	Steps       json.RawMessage `json:"steps"`
	Tips        json.RawMessage `json:"tips"`
	Tags        json.RawMessage `json:"tags"`
}

type seedRecipeIngredient struct {
	RecipeID     int64       `json:"recipe_id"`
	IngredientID int64       `json:"ingredient_id"`
	Quantity     interface{} `json:"quantity"`
	Unit         string      `json:"unit"`
}

type seedUserIngredient struct {
	ID           int64       `json:"id"`
	UserID       int64       `json:"user_id"`
	IngredientID int64       `json:"ingredient_id"`
	Quantity     interface{} `json:"quantity"`
	ExpiryDate   *string     `json:"expiry_date"`
}

// LoadSeedFile 從 JSON 檔載入初始資料
func LoadSeedFile(s *MemoryStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(s, f)
}

// LoadSeed 從 JSON 載入初始資料
func LoadSeed(s *MemoryStore, r io.Reader) error {
	var seed Seed
	if err := common.DecodeJSONStrict(r, &seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	for _, u := range seed.Users {
		s.AddUser(u.UserID, domain.UserKey(u.ID))
	}
	for _, ing := range seed.Ingredients {
		s.AddIngredient(domain.Ingredient{ID: ing.ID, Name: ing.Name, DefaultUnit: ing.Unit})
	}
	for _, r := range seed.Recipes {
		s.AddRecipe(r.toDomain())
	}
	for _, l := range seed.RecipeIngredients {
		s.AddRecipeIngredient(domain.RecipeIngredientLink{
			RecipeID:     l.RecipeID,
			IngredientID: l.IngredientID,
			Quantity:     quantityField("recipe_ingredient", l.RecipeID, l.Quantity),
			Unit:         l.Unit,
		})
	}
	for _, e := range seed.UserIngredients {
		entry := domain.InventoryEntry{
			ID:           e.ID,
			UserKey:      domain.UserKey(e.UserID),
			IngredientID: e.IngredientID,
			Quantity:     quantityField("user_ingredient", e.ID, e.Quantity),
		}
		if e.ExpiryDate != nil {
			entry.ExpiryDate = *e.ExpiryDate
		}
		s.AddInventoryEntry(entry)
	}

	common.LogInfo("初始資料已載入",
		zap.Int("users", len(seed.Users)),
		zap.Int("ingredients", len(seed.Ingredients)),
		zap.Int("recipes", len(seed.Recipes)),
		zap.Int("recipe_ingredients", len(seed.RecipeIngredients)),
		zap.Int("user_ingredients", len(seed.UserIngredients)),
	)
	return nil
}

func (r seedRecipe) toDomain() domain.Recipe {
	return domain.Recipe{
		ID:          r.ID,
		Name:        r.Name,
		CookTime:    numberField(r.ID, "cook_time", r.CookTime),
		Calories:    numberField(r.ID, "calories", r.Calories),
		Difficulty:  difficultyText(r.Difficulty),
		Image:       r.Image,
		Description: r.Description,
		Tools:       jsonListField[domain.Tool](r.ID, "tools", r.Tools),
		PrepSteps:   stepsField(r.ID, "prep_steps", r.PrepSteps),
		Steps:       stepsField(r.ID, "steps", r.Steps),
		Tips:        tipsField(r.Tips),
		Tags:        jsonListField[string](r.ID, "tags", r.Tags),
	}
}

// difficultyText 難度可以是數字或文字
func difficultyText(v interface{}) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(d)
	case json.Number:
		return d.String()
	default:
		return strings.TrimSpace(fmt.Sprint(d))
	}
}
