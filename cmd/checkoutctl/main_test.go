package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/config"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

func testConfig(db config.DatabaseConfig) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return &config.Config{
			Server:   config.ServerConfig{Env: "test"},
			Database: db,
			Session:  config.SessionConfig{Secret: "cli-test-session-secret", Backend: "memory"},
			Checkout: config.CheckoutConfig{
				PaymentTimeout: time.Second,
				ReceiptSecret:  "cli-test-receipt-secret",
				ReceiptTTL:     time.Hour,
			},
		}, nil
	}
}

func run(t *testing.T, c *cli, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(c)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func sqliteDB(t *testing.T) config.DatabaseConfig {
	return config.DatabaseConfig{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "checkout.db")}
}

func TestQuote(t *testing.T) {
	c := &cli{loadConfig: testConfig(config.DatabaseConfig{})}

	out, _, err := run(t, c, "quote", "jazz-night", "--qty", "ga=2")
	require.NoError(t, err)
	assert.Contains(t, out, "General Admission")
	assert.Contains(t, out, "USD 55.00")

	out, _, err = run(t, c, "quote", "jazz-night", "--qty", "ga=2", "--promo", "jazz10")
	require.NoError(t, err)
	assert.Contains(t, out, "USD 50.00")

	out, errOut, err := run(t, c, "quote", "jazz-night", "--qty", "ga=2", "--promo", "nope", "--sms")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Invalid promo code")
	assert.Contains(t, out, "USD 56.00")

	out, _, err = run(t, c, "quote", "open-rehearsal", "--qty", "rsvp=1")
	require.NoError(t, err)
	assert.Contains(t, out, "Free")

	_, _, err = run(t, c, "quote", "missing")
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestEvents(t *testing.T) {
	c := &cli{loadConfig: testConfig(config.DatabaseConfig{})}

	out, _, err := run(t, c, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "jazz-night")
	assert.Contains(t, out, "open-rehearsal")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	c := &cli{loadConfig: testConfig(config.DatabaseConfig{})}

	_, _, err := run(t, c, "migrate", "up")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestMigrateAndSeed(t *testing.T) {
	c := &cli{loadConfig: testConfig(sqliteDB(t))}

	out, _, err := run(t, c, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")

	out, _, err = run(t, c, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "All migrations completed successfully!")

	out, _, err = run(t, c, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")

	out, _, err = run(t, c, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 event catalogs")

	out, _, err = run(t, c, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "order_lines")
	assert.Contains(t, out, "0 / 500")
	assert.Contains(t, out, "0 / 150")
}

func TestOrders(t *testing.T) {
	db := sqliteDB(t)
	c := &cli{loadConfig: testConfig(db)}

	out, _, err := run(t, c, "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No orders found")

	order := placeOrder(t, c)

	out, _, err = run(t, c, "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, order.OrderNumber)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "Paid")

	out, _, err = run(t, c, "orders", "show", order.OrderNumber)
	require.NoError(t, err)
	assert.Contains(t, out, "General Admission")

	out, _, err = run(t, c, "orders", "show", order.OrderNumber, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, order.OrderNumber)

	_, _, err = run(t, c, "orders", "show", "WTF-00000000")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, _, err = run(t, c, "orders", "show", "bogus")
	assert.Error(t, err)
}

// placeOrder finalizes a paid order straight into the configured archive
func placeOrder(t *testing.T, c *cli) *models.Order {
	t.Helper()

	app, err := c.app()
	require.NoError(t, err)
	defer app.Close()

	catalog, err := app.Catalogs.GetCatalog(context.Background(), "jazz-night")
	require.NoError(t, err)

	sel := checkout.NewSelection(catalog)
	sel.SetQuantity("ga", 2)
	snap := sel.Snapshot()

	order, err := checkout.NewFinalizer(app.Archive, nil).Finalize(context.Background(), checkout.Draft{
		Selection: snap,
		Customer: &models.CustomerInfo{
			FirstName:      "Ada",
			LastName:       "Lovelace",
			Email:          "ada@example.com",
			DeliveryMethod: models.DeliveryMobile,
		},
		Pricing: sel.Pricing(),
		Payment: &models.PaymentReceipt{
			PaymentID:   "pay_test",
			Amount:      sel.Pricing().Total,
			CardLast4:   services.LastFour("4242424242424242"),
			ProcessedAt: time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	return order
}
