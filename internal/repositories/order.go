package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-checkout/internal/models"
)

// OrderRepository archives finalized orders in the orders and order_lines tables
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, order_number, kind, purchase_date,
	event_id, event_name, event_venue, event_starts_at, currency,
	first_name, last_name, email, phone, delivery_method, create_account,
	promo_applied, subtotal_cents, marketplace_fee_cents, promo_discount_cents, delivery_fee_cents, final_total_cents,
	payment_id, payment_amount_cents, card_last4, paid_at`

// Exists reports whether an order number is already taken
func (r *OrderRepository) Exists(ctx context.Context, orderNumber string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE order_number = $1", orderNumber).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check order number uniqueness: %w", err)
	}
	return count > 0, nil
}

// Save inserts the order with its lines and takes the sold quantities out of
// inventory, all in one transaction.
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		paymentID     sql.NullString
		paymentAmount sql.NullInt64
		cardLast4     sql.NullString
		paidAt        sql.NullTime
	)
	if p := order.Payment; p != nil {
		paymentID = sql.NullString{String: p.PaymentID, Valid: true}
		paymentAmount = sql.NullInt64{Int64: int64(p.Amount), Valid: true}
		cardLast4 = sql.NullString{String: p.CardLast4, Valid: true}
		paidAt = sql.NullTime{Time: p.ProcessedAt.UTC(), Valid: true}
	}

	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		string(order.Kind),
		order.PurchaseDate.UTC(),
		order.Event.ID,
		order.Event.Name,
		order.Event.Venue,
		order.Event.StartsAt.UTC(),
		order.Event.CurrencyCode(),
		order.Customer.FirstName,
		order.Customer.LastName,
		order.Customer.Email,
		order.Customer.Phone,
		string(order.Customer.DeliveryMethod),
		order.Customer.CreateAccount,
		order.PromoApplied,
		int64(order.Subtotal),
		int64(order.MarketplaceFee),
		int64(order.PromoDiscount),
		int64(order.DeliveryFee),
		int64(order.FinalTotal),
		paymentID,
		paymentAmount,
		cardLast4,
		paidAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i, line := range order.Lines() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, item_id, kind, name, unit_price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			order.ID, i, line.ItemID, string(line.Kind), line.Name, int64(line.UnitPrice), line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", err)
		}

		if err := reserveStock(ctx, tx, order.Event.ID, line); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order creation: %w", err)
	}

	return nil
}

// CheckStock reports models.ErrInsufficientStock when a tracked item has
// fewer left than a line asks for. Items without a catalog row pass.
func (r *OrderRepository) CheckStock(ctx context.Context, eventID string, lines []models.SelectionLine) error {
	for _, line := range lines {
		var left int
		err := r.db.QueryRowContext(ctx,
			`SELECT quantity - sold FROM `+stockTable(line.Kind)+` WHERE event_id = $1 AND id = $2`,
			eventID, line.ItemID,
		).Scan(&left)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check stock: %w", err)
		}
		if line.Quantity > left {
			return fmt.Errorf("%s: %w", line.ItemID, models.ErrInsufficientStock)
		}
	}
	return nil
}

func stockTable(kind models.ItemKind) string {
	if kind == models.KindAddOn {
		return "addons"
	}
	return "ticket_types"
}

// reserveStock adds the line quantity to the sold counter. Items without a
// catalog row (catalogs served from a file) are not tracked.
func reserveStock(ctx context.Context, tx *sql.Tx, eventID string, line models.SelectionLine) error {
	table := stockTable(line.Kind)

	result, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET sold = sold + $1 WHERE event_id = $2 AND id = $3 AND sold + $4 <= quantity`,
		line.Quantity, eventID, line.ItemID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE event_id = $1 AND id = $2`, eventID, line.ItemID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check stock: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", line.ItemID, models.ErrInsufficientStock)
	}
	return nil
}

// GetByOrderNumber retrieves an order by its display number
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns orders newest first
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY purchase_date DESC, order_number LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, order := range orders {
		if err := r.loadLines(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order         models.Order
		kind          string
		delivery      string
		paymentID     sql.NullString
		paymentAmount sql.NullInt64
		cardLast4     sql.NullString
		paidAt        sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&kind,
		&order.PurchaseDate,
		&order.Event.ID,
		&order.Event.Name,
		&order.Event.Venue,
		&order.Event.StartsAt,
		&order.Event.Currency,
		&order.Customer.FirstName,
		&order.Customer.LastName,
		&order.Customer.Email,
		&order.Customer.Phone,
		&delivery,
		&order.Customer.CreateAccount,
		&order.PromoApplied,
		&order.Subtotal,
		&order.MarketplaceFee,
		&order.PromoDiscount,
		&order.DeliveryFee,
		&order.FinalTotal,
		&paymentID,
		&paymentAmount,
		&cardLast4,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}

	order.Kind = models.OrderKind(kind)
	order.Customer.DeliveryMethod = models.DeliveryMethod(delivery)
	if paymentID.Valid {
		order.Payment = &models.PaymentReceipt{
			PaymentID:   paymentID.String,
			Amount:      models.Money(paymentAmount.Int64),
			CardLast4:   cardLast4.String,
			ProcessedAt: paidAt.Time,
		}
	}

	return &order, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, order *models.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, kind, name, unit_price_cents, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order lines: %w", err)
	}
	defer rows.Close()

	order.Tickets = []models.SelectionLine{}
	order.AddOns = []models.SelectionLine{}
	for rows.Next() {
		var line models.SelectionLine
		var kind string
		if err := rows.Scan(&line.ItemID, &kind, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		line.Kind = models.ItemKind(kind)
		if line.Kind == models.KindAddOn {
			order.AddOns = append(order.AddOns, line)
		} else {
			order.Tickets = append(order.Tickets, line)
		}
	}

	return rows.Err()
}
