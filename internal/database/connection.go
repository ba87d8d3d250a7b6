package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type DB struct {
	*sql.DB
	Driver string
}

type Config struct {
	Driver   string
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file, ":memory:" for a private in-memory database
}

// DSN returns the data source name for the configured driver
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		path := c.Path
		if path == "" {
			path = ":memory:"
		}
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}

	// Use full URL if available, otherwise construct from components
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func NewConnection(config Config) (*DB, error) {
	driver := config.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	config.Driver = driver

	db, err := sql.Open(driver, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// one writer; an in-memory database also lives on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)                 // Maximum number of open connections
		db.SetMaxIdleConns(5)                  // Maximum number of idle connections
		db.SetConnMaxLifetime(5 * time.Minute) // Maximum lifetime of a connection
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Driver: driver}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	migrator := NewMigrator(db.DB)
	return migrator.RunMigrations()
}

// MigrationStatus lists every known migration and whether it is applied
func (db *DB) MigrationStatus() ([]MigrationState, error) {
	migrator := NewMigrator(db.DB)
	return migrator.Status()
}

// TableStatus summarizes the checkout tables, with stock totals for inventory
func (db *DB) TableStatus() ([]TableState, error) {
	return NewMigrator(db.DB).Tables()
}
