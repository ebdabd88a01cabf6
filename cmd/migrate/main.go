package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/article_generator/internal/database/migration"
	"github.com/chynybekuuludastan/article_generator/internal/database/seed"
	"github.com/chynybekuuludastan/article_generator/internal/logging"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Define command-line flags
	migrateCmd := flag.Bool("migrate", false, "Run migrations")
	rollbackCmd := flag.Bool("rollback", false, "Rollback the last batch of migrations")
	resetCmd := flag.Bool("reset", false, "Rollback all migrations and re-run them")
	statusCmd := flag.Bool("status", false, "Show migration status")
	demoCmd := flag.Bool("seed-demo", false, "Insert sample products when the table is empty")
	dsn := flag.String("dsn", os.Getenv("POSTGRES_URI"), "PostgreSQL connection string")

	// Parse command-line flags
	flag.Parse()

	// Check if at least one command was specified
	if !(*migrateCmd || *rollbackCmd || *resetCmd || *statusCmd || *demoCmd) {
		flag.Usage()
		os.Exit(1)
	}

	appLogger, err := logging.New(logging.Config{Level: "info", Development: true})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	// Connect to the database
	db, err := gorm.Open(postgres.Open(*dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	// Create migrator
	migrator, err := migration.NewMigrator(db, appLogger)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}

	// Execute the command
	switch {
	case *migrateCmd:
		if err := migrator.Migrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}

	case *rollbackCmd:
		if err := migrator.Rollback(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}

	case *resetCmd:
		if err := migrator.Reset(); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}

	case *statusCmd:
		status, err := migrator.GetStatus()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}

		// Display status in a table format
		fmt.Println("+--------------------------------------+----------+-------+---------------------+")
		fmt.Println("| Migration                            | Applied? | Batch | Applied At          |")
		fmt.Println("+--------------------------------------+----------+-------+---------------------+")

		for _, s := range status {
			appliedStr, batchStr, timestampStr := "No", "-", "-"
			if s.Applied {
				appliedStr = "Yes"
				batchStr = fmt.Sprintf("%d", s.Batch)
				timestampStr = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("| %-36s | %-8s | %-5s | %-19s |\n", s.Name, appliedStr, batchStr, timestampStr)
		}

		fmt.Println("+--------------------------------------+----------+-------+---------------------+")
	}

	if *demoCmd {
		if err := seed.SeedDemoProducts(db); err != nil {
			log.Fatalf("Seeding demo products failed: %v", err)
		}
		appLogger.Info("Demo products ready")
	}
}
