package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id INTEGER);

CREATE INDEX idx_a ON a (id);
-- trailing comment
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", stmts[1])
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil).LoadMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migrations), 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_catalog", migrations[0].Name)
	assert.Equal(t, "create_orders", migrations[1].Name)
	assert.Equal(t, []string{"events", "ticket_types", "addons"}, migrations[0].Tables)
	assert.Equal(t, []string{"orders", "order_lines"}, migrations[1].Tables)
}

func TestRunMigrations_SQLite(t *testing.T) {
	db, err := NewConnection(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "checkout.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.RunMigrations())
	// second run is a no-op
	require.NoError(t, db.RunMigrations())

	states, err := db.MigrationStatus()
	require.NoError(t, err)
	for _, s := range states {
		assert.True(t, s.Applied, "migration %d should be applied", s.Version)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count))
	assert.Zero(t, count)
}

func TestTableStatus_SQLite(t *testing.T) {
	db, err := NewConnection(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "checkout.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations())

	_, err = db.Exec(`INSERT INTO events (id, name, starts_at) VALUES ('jazz-night', 'Jazz Night', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO ticket_types (event_id, id, name, price_cents, quantity, sold, max_per_order)
		VALUES ('jazz-night', 'ga', 'General Admission', 2500, 100, 7, 8)`)
	require.NoError(t, err)

	tables, err := db.TableStatus()
	require.NoError(t, err)

	byName := make(map[string]TableState)
	for _, ts := range tables {
		byName[ts.Name] = ts
	}
	require.Len(t, byName, 5)
	assert.Equal(t, TableState{Name: "ticket_types", Rows: 1, Inventory: true, Capacity: 100, Sold: 7}, byName["ticket_types"])
	assert.Equal(t, TableState{Name: "addons", Inventory: true}, byName["addons"])
	assert.False(t, byName["order_lines"].Inventory)

	states, err := db.MigrationStatus()
	require.NoError(t, err)
	assert.False(t, states[0].AppliedAt.IsZero())
}

func TestRunMigrations_DetectsDroppedTable(t *testing.T) {
	db, err := NewConnection(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "checkout.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations())

	_, err = db.Exec("DROP TABLE order_lines")
	require.NoError(t, err)

	err = db.RunMigrations()
	assert.ErrorIs(t, err, ErrSchemaDrift)
	assert.Contains(t, err.Error(), "order_lines")
}

func TestNewConnection_UnknownDriver(t *testing.T) {
	_, err := NewConnection(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConfig_DSN(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db", Config{Driver: DriverPostgres, URL: "postgres://u@h/db"}.DSN())
	assert.Equal(t,
		"host=localhost port=5432 user=app password=pw dbname=checkout sslmode=disable",
		Config{Host: "localhost", Port: 5432, User: "app", Password: "pw", DBName: "checkout", SSLMode: "disable"}.DSN(),
	)
	assert.Equal(t, "file:/tmp/x.db?_foreign_keys=on&_busy_timeout=5000", Config{Driver: DriverSQLite, Path: "/tmp/x.db"}.DSN())
}
