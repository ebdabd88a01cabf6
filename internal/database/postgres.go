package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/article_generator/internal/database/migration"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// DatabaseClient wraps the GORM DB connection
type DatabaseClient struct {
	*gorm.DB
}

// Options tunes the connection.
type Options struct {
	// Migrate runs pending migrations after connecting.
	Migrate bool
	// LogSQL logs every statement.
	LogSQL bool
	Logger llm.Logger
}

// InitPostgreSQL initializes the PostgreSQL connection
func InitPostgreSQL(dsn string, opts Options) (*DatabaseClient, error) {
	level := logger.Warn
	if opts.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	client := &DatabaseClient{DB: db}
	if opts.Migrate {
		if err := client.RunMigrations(opts.Logger); err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	return client, nil
}

// RunMigrations applies pending migrations.
func (d *DatabaseClient) RunMigrations(log llm.Logger) error {
	migrator, err := migration.NewMigrator(d.DB, log)
	if err != nil {
		return err
	}
	return migrator.Migrate()
}

// Close closes the database connection
func (d *DatabaseClient) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
