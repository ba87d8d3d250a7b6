package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-checkout/internal/models"
)

// CatalogRepository reads event catalogs from the events, ticket_types and addons tables
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetCatalog loads the catalog snapshot for an event
func (r *CatalogRepository) GetCatalog(ctx context.Context, eventID string) (*models.Catalog, error) {
	catalog := &models.Catalog{}

	query := `
		SELECT id, name, venue, starts_at, currency
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&catalog.Event.ID,
		&catalog.Event.Name,
		&catalog.Event.Venue,
		&catalog.Event.StartsAt,
		&catalog.Event.Currency,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if catalog.Tickets, err = r.getTicketTypes(ctx, eventID); err != nil {
		return nil, err
	}
	if catalog.AddOns, err = r.getAddOns(ctx, eventID); err != nil {
		return nil, err
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog for event %s: %w", eventID, err)
	}

	return catalog, nil
}

func (r *CatalogRepository) getTicketTypes(ctx context.Context, eventID string) ([]models.TicketType, error) {
	query := `
		SELECT id, name, description, price_cents, quantity, sold, max_per_order, min_per_order
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket types: %w", err)
	}
	defer rows.Close()

	tickets := []models.TicketType{}
	for rows.Next() {
		var tt models.TicketType
		if err := rows.Scan(
			&tt.ID,
			&tt.Name,
			&tt.Description,
			&tt.UnitPrice,
			&tt.TotalQuantity,
			&tt.Sold,
			&tt.MaxPerOrder,
			&tt.MinPerOrder,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket type: %w", err)
		}
		tickets = append(tickets, tt)
	}

	return tickets, rows.Err()
}

func (r *CatalogRepository) getAddOns(ctx context.Context, eventID string) ([]models.AddOn, error) {
	query := `
		SELECT id, name, description, price_cents, quantity, sold, max_per_order, required
		FROM addons
		WHERE event_id = $1
		ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get add-ons: %w", err)
	}
	defer rows.Close()

	addOns := []models.AddOn{}
	for rows.Next() {
		var a models.AddOn
		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Description,
			&a.UnitPrice,
			&a.TotalQuantity,
			&a.Sold,
			&a.MaxPerOrder,
			&a.Required,
		); err != nil {
			return nil, fmt.Errorf("failed to scan add-on: %w", err)
		}
		addOns = append(addOns, a)
	}

	return addOns, rows.Err()
}

// ListEvents returns every event with a catalog
func (r *CatalogRepository) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, venue, starts_at, currency FROM events ORDER BY starts_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Venue, &e.StartsAt, &e.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Upsert replaces an event's catalog, keeping nothing of the previous rows
func (r *CatalogRepository) Upsert(ctx context.Context, catalog *models.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	eventID := catalog.Event.ID
	for _, stmt := range []string{
		`DELETE FROM addons WHERE event_id = $1`,
		`DELETE FROM ticket_types WHERE event_id = $1`,
		`DELETE FROM events WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, eventID); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (id, name, venue, starts_at, currency) VALUES ($1, $2, $3, $4, $5)`,
		eventID, catalog.Event.Name, catalog.Event.Venue, catalog.Event.StartsAt.UTC(), catalog.Event.CurrencyCode(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for i, tt := range catalog.Tickets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ticket_types (event_id, id, position, name, description, price_cents, quantity, sold, max_per_order, min_per_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			eventID, tt.ID, i, tt.Name, tt.Description, int64(tt.UnitPrice), tt.TotalQuantity, tt.Sold, tt.MaxPerOrder, tt.MinPerOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ticket type %s: %w", tt.ID, err)
		}
	}

	for i, a := range catalog.AddOns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO addons (event_id, id, position, name, description, price_cents, quantity, sold, max_per_order, required)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			eventID, a.ID, i, a.Name, a.Description, int64(a.UnitPrice), a.TotalQuantity, a.Sold, a.MaxPerOrder, a.Required,
		)
		if err != nil {
			return fmt.Errorf("failed to insert add-on %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}
