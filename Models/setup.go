package Models

import (
	"fmt"
	"log"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open connects to the database named by driver: sqlite, mysql or postgres
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		// date columns are read back as time.Time in UTC
		cfg, err := mysqldriver.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		dialector = mysql.Open(cfg.FormatDSN())
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates every table, base records first
func Migrate(db *gorm.DB) error {
	// 1. Models without dependencies
	if err := db.AutoMigrate(
		&Location{},
		&User{},
		&FCMToken{},
	); err != nil {
		return fmt.Errorf("failed to migrate base models: %w", err)
	}

	// 2. Models that reference users and locations
	if err := db.AutoMigrate(
		&Task{},
		&Shift{},
	); err != nil {
		return fmt.Errorf("failed to migrate scheduling models: %w", err)
	}

	// 3. Records derived from task occurrences
	if err := db.AutoMigrate(
		&TaskCompletion{},
		&NotificationLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate occurrence models: %w", err)
	}
	return nil
}

// Connect opens and migrates the database and stores it in DB
func Connect(driver, dsn string) error {
	connection, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	if err := Migrate(connection); err != nil {
		return err
	}
	DB = connection
	log.Printf("Connected to %s database", driver)
	return nil
}
