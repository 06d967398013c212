package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recipe-inventory/internal/core/domain"
	"recipe-inventory/internal/infrastructure/config"
	"recipe-inventory/internal/pkg/common"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time interface checks
var (
	_ domain.IdentityResolver  = (*SQLStore)(nil)
	_ domain.InventoryStore    = (*SQLStore)(nil)
	_ domain.InventoryWriter   = (*SQLStore)(nil)
	_ domain.CatalogStore      = (*SQLStore)(nil)
	_ domain.IngredientCatalog = (*SQLStore)(nil)
	_ domain.RecipeLinkLister  = (*SQLStore)(nil)
	_ domain.Pinger            = (*SQLStore)(nil)
)

// SQLStore 以 sqlx 實作的資料表儲存，支援 postgres 與 mysql
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

type inventoryRow struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	IngredientID int64          `db:"ingredient_id"`
	Quantity     sql.NullString `db:"quantity"`
	ExpiryDate   sql.NullString `db:"expiry_date"`
}

type recipeRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	CookTime    sql.NullString `db:"cook_time"`
	Calories    sql.NullString `db:"calories"`
	Difficulty  sql.NullString `db:"difficulty"`
	Image       sql.NullString `db:"image"`
	Description sql.NullString `db:"description"`
	Tools       sql.NullString `db:"tools"`
	PrepSteps   sql.NullString `db:"prep_steps"`
	Steps       sql.NullString `db:"steps"`
	Tips        sql.NullString `db:"tips"`
	Tags        sql.NullString `db:"tags"`
}

type linkRow struct {
	RecipeID     int64          `db:"recipe_id"`
	IngredientID int64          `db:"ingredient_id"`
	Quantity     sql.NullString `db:"quantity"`
	Unit         sql.NullString `db:"unit"`
}

const recipeColumns = `id, name, cook_time, calories, difficulty, image, description, tools, prep_steps, steps, tips, tags`

// NewSQLStore 連線資料庫，必要時建立資料表
func NewSQLStore(ctx context.Context, cfg config.StoreConfig) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &SQLStore{db: db, driver: cfg.Driver}
	if cfg.AutoMigrate {
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	common.LogInfo("資料庫已連線",
		zap.String("driver", cfg.Driver),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return s, nil
}

// EnsureSchema 建立不存在的資料表
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	statements := postgresSchema
	if s.driver == "mysql" {
		statements = mysqlSchema
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) rebind(query string) string {
	return s.db.Rebind(query)
}

func nullToAny(ns sql.NullString) interface{} {
	if !ns.Valid {
		return nil
	}
	return ns.String
}

// ResolveUserKey 先比對原始識別碼，再比對去掉前綴的識別碼
func (s *SQLStore) ResolveUserKey(ctx context.Context, identity string) (domain.UserKey, bool, error) {
	query := s.rebind(`SELECT id FROM users WHERE user_id = ? LIMIT 1`)
	for _, candidate := range identityCandidates(identity) {
		var id int64
		err := s.db.GetContext(ctx, &id, query, candidate)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("failed to resolve user: %w", err)
		}
		return domain.UserKey(id), true, nil
	}
	return 0, false, nil
}

func (r inventoryRow) toDomain() domain.InventoryEntry {
	return domain.InventoryEntry{
		ID:           r.ID,
		UserKey:      domain.UserKey(r.UserID),
		IngredientID: r.IngredientID,
		Quantity:     quantityField("user_ingredient", r.ID, nullToAny(r.Quantity)),
		ExpiryDate:   r.ExpiryDate.String,
	}
}

// ListInventory 回傳使用者庫存
func (s *SQLStore) ListInventory(ctx context.Context, key domain.UserKey) ([]domain.InventoryEntry, error) {
	var rows []inventoryRow
	query := s.rebind(`SELECT id, user_id, ingredient_id, quantity, expiry_date FROM user_ingredients WHERE user_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, query, int64(key)); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	out := make([]domain.InventoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *SQLStore) firstEntry(ctx context.Context, q sqlx.QueryerContext, key domain.UserKey, ingredientID int64) (*inventoryRow, error) {
	var row inventoryRow
	query := s.rebind(`SELECT id, user_id, ingredient_id, quantity, expiry_date FROM user_ingredients WHERE user_id = ? AND ingredient_id = ? ORDER BY id LIMIT 1`)
	err := sqlx.GetContext(ctx, q, &row, query, int64(key), ingredientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateInventoryEntry 更新第一筆符合的庫存
func (s *SQLStore) UpdateInventoryEntry(ctx context.Context, key domain.UserKey, ingredientID int64, patch domain.InventoryPatch) (*domain.InventoryEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row, err := s.firstEntry(ctx, tx, key, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory entry: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	if patch.Quantity != nil {
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE user_ingredients SET quantity = ? WHERE id = ?`), *patch.Quantity, row.ID); err != nil {
			return nil, fmt.Errorf("failed to update quantity: %w", err)
		}
	}
	if patch.ExpiryDate != nil {
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE user_ingredients SET expiry_date = ? WHERE id = ?`), *patch.ExpiryDate, row.ID); err != nil {
			return nil, fmt.Errorf("failed to update expiry date: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	entry := row.toDomain()
	if patch.Quantity != nil {
		entry.Quantity = *patch.Quantity
	}
	if patch.ExpiryDate != nil {
		entry.ExpiryDate = *patch.ExpiryDate
	}
	return &entry, nil
}

// DeleteInventoryEntry 刪除第一筆符合的庫存
func (s *SQLStore) DeleteInventoryEntry(ctx context.Context, key domain.UserKey, ingredientID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row, err := s.firstEntry(ctx, tx, key, ingredientID)
	if err != nil {
		return false, fmt.Errorf("failed to find inventory entry: %w", err)
	}
	if row == nil {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM user_ingredients WHERE id = ?`), row.ID); err != nil {
		return false, fmt.Errorf("failed to delete inventory entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return true, nil
}

func (r recipeRow) toDomain() domain.Recipe {
	return domain.Recipe{
		ID:          r.ID,
		Name:        r.Name,
		CookTime:    numberField(r.ID, "cook_time", nullToAny(r.CookTime)),
		Calories:    numberField(r.ID, "calories", nullToAny(r.Calories)),
		Difficulty:  r.Difficulty.String,
		Image:       r.Image.String,
		Description: r.Description.String,
		Tools:       jsonListField[domain.Tool](r.ID, "tools", []byte(r.Tools.String)),
		PrepSteps:   stepsField(r.ID, "prep_steps", []byte(r.PrepSteps.String)),
		Steps:       stepsField(r.ID, "steps", []byte(r.Steps.String)),
		Tips:        tipsField([]byte(r.Tips.String)),
		Tags:        jsonListField[string](r.ID, "tags", []byte(r.Tags.String)),
	}
}

// ListRecipes 依 ID 順序回傳食譜，不含所需食材
func (s *SQLStore) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	var rows []recipeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	out := make([]domain.Recipe, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// GetRecipe 找不到時回傳 nil
func (s *SQLStore) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	var row recipeRow
	err := s.db.GetContext(ctx, &row, s.rebind(`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	r := row.toDomain()
	return &r, nil
}

func (r linkRow) toDomain() domain.RecipeIngredientLink {
	return domain.RecipeIngredientLink{
		RecipeID:     r.RecipeID,
		IngredientID: r.IngredientID,
		Quantity:     quantityField("recipe_ingredient", r.RecipeID, nullToAny(r.Quantity)),
		Unit:         r.Unit.String,
	}
}

// ListRequiredIngredients 回傳食譜的關聯列
func (s *SQLStore) ListRequiredIngredients(ctx context.Context, recipeID int64) ([]domain.RecipeIngredientLink, error) {
	var rows []linkRow
	query := s.rebind(`SELECT recipe_id, ingredient_id, quantity, unit FROM recipe_ingredients WHERE recipe_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, query, recipeID); err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}
	out := make([]domain.RecipeIngredientLink, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListAllRequiredIngredients 一次讀出全部關聯列
func (s *SQLStore) ListAllRequiredIngredients(ctx context.Context) (map[int64][]domain.RecipeIngredientLink, error) {
	var rows []linkRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT recipe_id, ingredient_id, quantity, unit FROM recipe_ingredients ORDER BY recipe_id, id`); err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}
	out := make(map[int64][]domain.RecipeIngredientLink)
	for _, r := range rows {
		out[r.RecipeID] = append(out[r.RecipeID], r.toDomain())
	}
	return out, nil
}

// GetIngredient 找不到時回傳 nil
func (s *SQLStore) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	err := s.db.GetContext(ctx, &ing, s.rebind(`SELECT id, name, COALESCE(unit, '') AS unit FROM ingredients WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ing, nil
}

// Ping 檢查資料庫連線
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 關閉連線池
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		cook_time TEXT,
		calories TEXT,
		difficulty TEXT,
		image TEXT,
		description TEXT,
		tools TEXT,
		prep_steps TEXT,
		steps TEXT,
		tips TEXT,
		tags TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
		id BIGSERIAL PRIMARY KEY,
		recipe_id BIGINT NOT NULL,
		ingredient_id BIGINT NOT NULL,
		quantity TEXT,
		unit TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS user_ingredients (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		ingredient_id BIGINT NOT NULL,
		quantity TEXT,
		expiry_date VARCHAR(32)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_ingredients_user ON user_ingredients (user_id, ingredient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_recipe ON recipe_ingredients (recipe_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(191) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		unit VARCHAR(64)
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(191) NOT NULL,
		cook_time VARCHAR(64),
		calories VARCHAR(64),
		difficulty VARCHAR(64),
		image TEXT,
		description TEXT,
		tools TEXT,
		prep_steps TEXT,
		steps TEXT,
		tips TEXT,
		tags TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		recipe_id BIGINT NOT NULL,
		ingredient_id BIGINT NOT NULL,
		quantity VARCHAR(64),
		unit VARCHAR(64),
		INDEX idx_recipe_ingredients_recipe (recipe_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_ingredients (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		ingredient_id BIGINT NOT NULL,
		quantity VARCHAR(64),
		expiry_date VARCHAR(32),
		INDEX idx_user_ingredients_user (user_id, ingredient_id)
	)`,
}
