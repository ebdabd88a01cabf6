package migration

import (
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/database/seed"
	"github.com/chynybekuuludastan/article_generator/internal/models"
)

// RegisterMigrations lists every migration in the order it must run.
func RegisterMigrations() []Definition {
	return []Definition{
		{Name: "01_create_products_table", Up: createTable(&models.Product{}), Down: dropTable(&models.Product{})},
		{Name: "02_create_prompt_templates_table", Up: createTable(&models.PromptTemplate{}), Down: dropTable(&models.PromptTemplate{})},
		{Name: "03_create_usage_records_table", Up: createTable(&models.UsageRecord{}), Down: dropTable(&models.UsageRecord{})},
		{Name: "04_create_generation_failures_table", Up: createTable(&models.GenerationFailure{}), Down: dropTable(&models.GenerationFailure{})},
		{Name: "05_seed_builtin_prompt_template", Up: seed.SeedBuiltinTemplate, Down: seed.RemoveBuiltinTemplate},
	}
}

// createTable builds the table and its indexes from the model's tags.
func createTable(model interface{}) MigrationFunc {
	return func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(model) {
			return tx.AutoMigrate(model)
		}
		return tx.Migrator().CreateTable(model)
	}
}

func dropTable(model interface{}) MigrationFunc {
	return func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(model)
	}
}
