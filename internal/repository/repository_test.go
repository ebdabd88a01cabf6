package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestProductFindByIDsPreservesOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db, nil)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Create(ctx, &models.Product{Name: name}))
	}

	products, err := repo.FindByIDs(ctx, []uint{3, 1, 3, 99, 2})
	require.NoError(t, err)

	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProductFindByIDsUsesCache(t *testing.T) {
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	factory := NewRepositoryFactory(db, client)
	repo := factory.ProductRepository
	ctx := context.Background()

	product := &models.Product{Name: "象印保溫瓶", Images: []string{"https://img.example/a.jpg"}}
	require.NoError(t, repo.Create(ctx, product))

	_, err := repo.FindByIDs(ctx, []uint{product.ID})
	require.NoError(t, err)
	assert.True(t, mr.Exists("product:1"))

	// Cached copy wins over the row until the product is updated.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("name", "改名").Error)
	products, err := repo.FindByIDs(ctx, []uint{product.ID})
	require.NoError(t, err)
	assert.Equal(t, "象印保溫瓶", products[0].Name)

	product.Name = "新名稱"
	require.NoError(t, repo.Update(ctx, product))
	assert.False(t, mr.Exists("product:1"))

	products, err = repo.FindByIDs(ctx, []uint{product.ID})
	require.NoError(t, err)
	assert.Equal(t, "新名稱", products[0].Name)
	assert.Equal(t, []string{"https://img.example/a.jpg"}, []string(products[0].Images))
}

func TestProductFindByUserID(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Product{Name: "p", UserID: uintPtr(5)}))
	}
	require.NoError(t, repo.Create(ctx, &models.Product{Name: "other", UserID: uintPtr(6)}))

	products, total, err := repo.FindByUserID(ctx, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 2)
}

func TestPromptLoadDefaultResolution(t *testing.T) {
	db := newTestDB(t)
	repo := NewPromptRepository(db)
	ctx := context.Background()

	_, err := repo.LoadDefault(ctx, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Create(ctx, &models.PromptTemplate{Name: "builtin", Content: "builtin", IsBuiltin: true}))
	content, err := repo.LoadDefault(ctx, uintPtr(1))
	require.NoError(t, err)
	assert.Equal(t, "builtin", content)

	require.NoError(t, repo.Create(ctx, &models.PromptTemplate{Name: "global", Content: "global", IsDefault: true}))
	content, err = repo.LoadDefault(ctx, uintPtr(1))
	require.NoError(t, err)
	assert.Equal(t, "global", content)

	require.NoError(t, repo.Create(ctx, &models.PromptTemplate{Name: "mine", Content: "mine", IsDefault: true, UserID: uintPtr(1)}))
	content, err = repo.LoadDefault(ctx, uintPtr(1))
	require.NoError(t, err)
	assert.Equal(t, "mine", content)

	content, err = repo.LoadDefault(ctx, uintPtr(2))
	require.NoError(t, err)
	assert.Equal(t, "global", content)
}

func TestPromptLoadTemplate(t *testing.T) {
	db := newTestDB(t)
	repo := NewPromptRepository(db)
	ctx := context.Background()

	template := &models.PromptTemplate{Name: "t", Content: "風格"}
	require.NoError(t, repo.Create(ctx, template))

	content, err := repo.LoadTemplate(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "風格", content)

	_, err = repo.LoadTemplate(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPromptSetDefaultAndVisibility(t *testing.T) {
	db := newTestDB(t)
	repo := NewPromptRepository(db)
	ctx := context.Background()

	first := &models.PromptTemplate{Name: "a", Content: "a", IsDefault: true, UserID: uintPtr(1)}
	second := &models.PromptTemplate{Name: "b", Content: "b", UserID: uintPtr(1)}
	global := &models.PromptTemplate{Name: "g", Content: "g"}
	other := &models.PromptTemplate{Name: "o", Content: "o", UserID: uintPtr(2)}
	for _, tpl := range []*models.PromptTemplate{first, second, global, other} {
		require.NoError(t, repo.Create(ctx, tpl))
	}

	require.NoError(t, repo.SetDefault(ctx, second.ID, uintPtr(1)))
	content, err := repo.LoadDefault(ctx, uintPtr(1))
	require.NoError(t, err)
	assert.Equal(t, "b", content)

	visible, err := repo.FindVisible(ctx, uintPtr(1))
	require.NoError(t, err)
	assert.Len(t, visible, 3)

	assert.ErrorIs(t, repo.SetDefault(ctx, 999, nil), ErrNotFound)
}

func TestUsageRecordUsageAccumulates(t *testing.T) {
	db := newTestDB(t)
	repo := NewUsageRepository(db)
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	entry := tokens.UsageEntry{Timestamp: at, Model: "gemini-2.5-flash", Provider: "google", PromptTokens: 1000, CompletionTokens: 500}
	require.NoError(t, repo.RecordUsage(ctx, entry))
	require.NoError(t, repo.RecordUsage(ctx, entry))

	user := entry
	user.UserID = uintPtr(3)
	require.NoError(t, repo.RecordUsage(ctx, user))

	records, err := repo.FindByDateRange(ctx, "2026-05-04", "2026-05-04", nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint(0), records[0].UserID)
	assert.Equal(t, int64(2), records[0].Requests)
	assert.Equal(t, int64(2000), records[0].InputTokens)
	assert.Equal(t, int64(1000), records[0].OutputTokens)
	assert.InDelta(t, 2*(0.0003+0.00125), records[0].CostUSD, 1e-9)

	totals, err := repo.Totals(ctx, "2026-05-01", "2026-05-31", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.Requests)
	assert.Equal(t, int64(3000), totals.InputTokens)

	mine, err := repo.Totals(ctx, "2026-05-01", "2026-05-31", uintPtr(3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Requests)

	none, err := repo.Totals(ctx, "2027-01-01", "2027-01-31", nil)
	require.NoError(t, err)
	assert.Equal(t, UsageTotals{}, none)
}

func TestFailureRecordKeepsHistory(t *testing.T) {
	db := newTestDB(t)
	repo := NewFailureRepository(db)
	ctx := context.Background()

	fatal := &llm.FatalError{
		Message:  "all 3 attempts failed",
		Model:    "gemini-2.5-flash",
		Provider: "google",
		History: llm.RetryHistory{
			{Attempt: 1, ElapsedMS: 1200, ErrorClass: llm.ErrorClassTransient, Message: "503 overloaded"},
			{Attempt: 2, ElapsedMS: 900, ErrorClass: llm.ErrorClassTransient, Message: "503 overloaded"},
		},
	}

	failure, err := repo.Record(ctx, "req-1", "generate", uintPtr(9), fatal)
	require.NoError(t, err)
	assert.Equal(t, "google", failure.Provider)

	var history llm.RetryHistory
	require.NoError(t, json.Unmarshal(failure.History, &history))
	assert.Equal(t, fatal.History, history)

	_, err = repo.Record(ctx, "req-2", "optimize", nil, errors.New("plain failure"))
	require.NoError(t, err)

	recent, err := repo.Recent(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "req-2", recent[0].RequestID)
	assert.JSONEq(t, "[]", string(recent[0].History))

	mine, err := repo.Recent(ctx, uintPtr(9), 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "generate", mine[0].Operation)
}
