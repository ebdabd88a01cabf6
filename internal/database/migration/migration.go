package migration

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// Migration represents a database migration record
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;unique"`
	Batch     int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// MigrationFunc defines a function that can run a migration
type MigrationFunc func(tx *gorm.DB) error

// Definition is one named, reversible schema step.
type Definition struct {
	Name string
	Up   MigrationFunc
	Down MigrationFunc
}

// Status reports whether a migration has been applied.
type Status struct {
	Name      string    `json:"name"`
	Applied   bool      `json:"applied"`
	Batch     int       `json:"batch"`
	AppliedAt time.Time `json:"applied_at"`
}

// Migrator handles database migrations
type Migrator struct {
	DB           *gorm.DB
	Migrations   []Definition
	CurrentBatch int
	logger       llm.Logger
}

// NewMigrator creates a migrator over the registered migrations and makes
// sure the bookkeeping table exists.
func NewMigrator(db *gorm.DB, logger llm.Logger) (*Migrator, error) {
	if logger == nil {
		logger = llm.NopLogger{}
	}

	if err := db.AutoMigrate(&Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var maxBatch int
	if err := db.Model(&Migration{}).Select("COALESCE(MAX(batch), 0)").Row().Scan(&maxBatch); err != nil {
		return nil, fmt.Errorf("failed to read migration batch: %w", err)
	}

	return &Migrator{
		DB:           db,
		Migrations:   RegisterMigrations(),
		CurrentBatch: maxBatch + 1,
		logger:       logger,
	}, nil
}

func (m *Migrator) applied() (map[string]Migration, error) {
	var rows []Migration
	if err := m.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	applied := make(map[string]Migration, len(rows))
	for _, row := range rows {
		applied[row.Name] = row
	}
	return applied, nil
}

func (m *Migrator) lookup(name string) (Definition, bool) {
	for _, def := range m.Migrations {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Migrate runs all pending migrations in registration order as one batch.
func (m *Migrator) Migrate() error {
	applied, err := m.applied()
	if err != nil {
		return err
	}

	ran := 0
	for _, def := range m.Migrations {
		if _, ok := applied[def.Name]; ok {
			continue
		}
		m.logger.Info("Running migration", "name", def.Name, "batch", m.CurrentBatch)

		err := m.DB.Transaction(func(tx *gorm.DB) error {
			if err := def.Up(tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return tx.Create(&Migration{Name: def.Name, Batch: m.CurrentBatch}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", def.Name, err)
		}
		ran++
	}

	if ran > 0 {
		m.CurrentBatch++
	}
	m.logger.Info("Migrations complete", "applied", ran)
	return nil
}

// Rollback rolls back the last batch of migrations
func (m *Migrator) Rollback() error {
	var batch []Migration
	if err := m.DB.Where("batch = ?", m.CurrentBatch-1).Order("id DESC").Find(&batch).Error; err != nil {
		return fmt.Errorf("failed to get migrations to rollback: %w", err)
	}

	if len(batch) == 0 {
		m.logger.Info("No migrations to rollback")
		return nil
	}

	if err := m.down(batch); err != nil {
		return err
	}
	m.CurrentBatch--
	return nil
}

// Reset rolls back all migrations and then applies them again
func (m *Migrator) Reset() error {
	var all []Migration
	if err := m.DB.Order("id DESC").Find(&all).Error; err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if err := m.down(all); err != nil {
		return err
	}

	m.CurrentBatch = 1
	return m.Migrate()
}

func (m *Migrator) down(rows []Migration) error {
	for i := range rows {
		row := rows[i]
		def, ok := m.lookup(row.Name)
		if !ok {
			m.logger.Warn("Unknown migration in history, skipping", "name", row.Name)
			continue
		}
		m.logger.Info("Rolling back migration", "name", row.Name)

		err := m.DB.Transaction(func(tx *gorm.DB) error {
			if err := def.Down(tx); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			return tx.Delete(&row).Error
		})
		if err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", row.Name, err)
		}
	}
	return nil
}

// GetStatus returns the status of all migrations in registration order.
func (m *Migrator) GetStatus() ([]Status, error) {
	applied, err := m.applied()
	if err != nil {
		return nil, err
	}

	status := make([]Status, 0, len(m.Migrations))
	for _, def := range m.Migrations {
		row, ok := applied[def.Name]
		status = append(status, Status{
			Name:      def.Name,
			Applied:   ok,
			Batch:     row.Batch,
			AppliedAt: row.AppliedAt,
		})
	}
	return status, nil
}
