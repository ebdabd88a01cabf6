package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/prompts"
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

func TestSeedBuiltinTemplateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedBuiltinTemplate(db))
	require.NoError(t, SeedBuiltinTemplate(db))

	var templates []models.PromptTemplate
	require.NoError(t, db.Find(&templates).Error)
	require.Len(t, templates, 1)
	assert.Equal(t, prompts.BuiltinTemplateName, templates[0].Name)
	assert.Equal(t, prompts.DefaultStyleTemplate, templates[0].Content)
	assert.Nil(t, templates[0].UserID)

	require.NoError(t, RemoveBuiltinTemplate(db))
	var count int64
	db.Model(&models.PromptTemplate{}).Count(&count)
	assert.Zero(t, count)
}

func TestSeedDemoProducts(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedDemoProducts(db))
	require.NoError(t, SeedDemoProducts(db))

	var products []models.Product
	require.NoError(t, db.Order("id").Find(&products).Error)
	require.Len(t, products, 2)
	assert.Len(t, products[0].Images, 2)
	assert.Equal(t, "demo-2", products[1].ItemID)
}
