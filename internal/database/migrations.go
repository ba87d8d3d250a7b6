package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrSchemaDrift means an applied migration's table is missing from the database
var ErrSchemaDrift = errors.New("database schema does not match applied migrations")

var createTableRegex = regexp.MustCompile(`(?i)CREATE TABLE (?:IF NOT EXISTS )?(\w+)`)

// stockTables carry the quantity and sold counters checkout reserves against
var stockTables = map[string]bool{"ticket_types": true, "addons": true}

// Migration is one numbered schema file
type Migration struct {
	Version int
	Name    string
	SQL     string
	Tables  []string // tables the file creates, in file order
}

// MigrationState pairs a migration with whether and when it ran
type MigrationState struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// TableState summarizes a table created by an applied migration. Capacity and
// Sold are only filled for inventory tables.
type TableState struct {
	Name      string
	Rows      int64
	Inventory bool
	Capacity  int64
	Sold      int64
}

type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db, logger: zap.NewNop()}
}

// WithLogger reports each applied migration to logger
func (m *Migrator) WithLogger(logger *zap.Logger) *Migrator {
	m.logger = logger
	return m
}

// CreateMigrationsTable creates the migrations tracking table
func (m *Migrator) CreateMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

// appliedAt maps each applied version to when it ran
func (m *Migrator) appliedAt() (map[int]time.Time, error) {
	applied := make(map[int]time.Time)

	rows, err := m.db.Query("SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			version int
			at      sql.NullTime
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		applied[version] = at.Time
	}

	return applied, rows.Err()
}

// LoadMigrations reads the embedded schema files in version order
func (m *Migrator) LoadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		// 001_create_catalog.sql
		prefix, name, ok := strings.Cut(strings.TrimSuffix(entry.Name(), ".sql"), "_")
		if !ok {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(prefix, "%d", &version); err != nil {
			continue
		}

		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
			Tables:  createdTables(string(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// RunMigrations executes all pending migrations, then checks that every
// table an applied migration created is present.
func (m *Migrator) RunMigrations() error {
	states, err := m.Status()
	if err != nil {
		return err
	}

	for _, s := range states {
		if s.Applied {
			continue
		}
		if err := m.apply(s.Migration); err != nil {
			return err
		}
		m.logger.Info("migration applied",
			zap.Int("version", s.Version),
			zap.String("name", s.Name),
			zap.Strings("tables", s.Tables),
		)
	}

	return m.Verify()
}

func (m *Migrator) apply(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction for migration %d: %w", migration.Version, err)
	}

	for _, stmt := range splitStatements(migration.SQL) {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", migration.Version, migration.Name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}

// Status returns every migration with its applied flag and time
func (m *Migrator) Status() ([]MigrationState, error) {
	if err := m.CreateMigrationsTable(); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedAt()
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := m.LoadMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	states := make([]MigrationState, 0, len(migrations))
	for _, migration := range migrations {
		at, ok := applied[migration.Version]
		states = append(states, MigrationState{Migration: migration, Applied: ok, AppliedAt: at})
	}
	return states, nil
}

// Tables summarizes every table created by an applied migration
func (m *Migrator) Tables() ([]TableState, error) {
	states, err := m.Status()
	if err != nil {
		return nil, err
	}

	var tables []TableState
	for _, s := range states {
		if !s.Applied {
			continue
		}
		for _, name := range s.Tables {
			table, err := m.table(name)
			if err != nil {
				return nil, err
			}
			tables = append(tables, table)
		}
	}
	return tables, nil
}

// Verify returns ErrSchemaDrift when a table from an applied migration is gone
func (m *Migrator) Verify() error {
	_, err := m.Tables()
	return err
}

// table names come from the embedded schema files, never from input
func (m *Migrator) table(name string) (TableState, error) {
	state := TableState{Name: name, Inventory: stockTables[name]}

	if err := m.db.QueryRow("SELECT COUNT(*) FROM " + name).Scan(&state.Rows); err != nil {
		return state, fmt.Errorf("%s: %w: %v", name, ErrSchemaDrift, err)
	}

	if state.Inventory {
		err := m.db.QueryRow("SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(sold), 0) FROM "+name).
			Scan(&state.Capacity, &state.Sold)
		if err != nil {
			return state, fmt.Errorf("%s: %w: %v", name, ErrSchemaDrift, err)
		}
	}
	return state, nil
}

func createdTables(script string) []string {
	var tables []string
	for _, match := range createTableRegex.FindAllStringSubmatch(script, -1) {
		tables = append(tables, strings.ToLower(match[1]))
	}
	return tables
}

// splitStatements breaks a migration file on semicolons; the schema files hold
// no semicolons inside string literals.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
