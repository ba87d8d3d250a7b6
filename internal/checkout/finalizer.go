package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ticket-checkout/internal/models"
)

// maxOrderNumberAttempts bounds retries when a generated order number is taken
const maxOrderNumberAttempts = 5

// OrderArchive stores finalized orders. Save returns models.ErrDuplicateEntry
// when the order number is already taken.
type OrderArchive interface {
	Exists(ctx context.Context, orderNumber string) (bool, error)
	Save(ctx context.Context, order *models.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, limit, offset int) ([]*models.Order, error)
}

// StockChecker is implemented by archives that track inventory. CheckStock
// returns models.ErrInsufficientStock when a line asks for more than remains.
type StockChecker interface {
	CheckStock(ctx context.Context, eventID string, lines []models.SelectionLine) error
}

// Draft is everything a finalized order is built from
type Draft struct {
	Selection *models.SelectedTickets
	Customer  *models.CustomerInfo
	Pricing   models.PricingResult
	Payment   *models.PaymentReceipt
}

// Finalizer turns a completed checkout into an immutable, archived order
type Finalizer struct {
	archive   OrderArchive
	now       func() time.Time
	newNumber func() string
	logger    *zap.Logger
}

// NewFinalizer creates a finalizer that archives into archive
func NewFinalizer(archive OrderArchive, logger *zap.Logger) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finalizer{
		archive:   archive,
		now:       time.Now,
		newNumber: models.GenerateOrderNumber,
		logger:    logger,
	}
}

// WithClock overrides the purchase-date source
func (f *Finalizer) WithClock(now func() time.Time) *Finalizer {
	f.now = now
	return f
}

// WithNumberSource overrides order number generation
func (f *Finalizer) WithNumberSource(next func() string) *Finalizer {
	f.newNumber = next
	return f
}

// Archive returns the archive orders are written to
func (f *Finalizer) Archive() OrderArchive {
	return f.archive
}

// Check reports whether d would finalize without allocating a number or
// writing anything. A paid draft with no payment yet is checked as if the
// full total had been captured.
func (f *Finalizer) Check(ctx context.Context, d Draft) error {
	if d.Payment == nil && !d.Pricing.IsFree {
		d.Payment = &models.PaymentReceipt{Amount: d.Pricing.Total}
	}

	order, err := f.build(d)
	if err != nil {
		return err
	}
	if err := order.ValidateContents(); err != nil {
		return fmt.Errorf("invalid order: %w", err)
	}

	if stock, ok := f.archive.(StockChecker); ok {
		if err := stock.CheckStock(ctx, order.Event.ID, order.Lines()); err != nil {
			return err
		}
	}
	return nil
}

// Finalize freezes the draft's pricing into an order, allocates a unique
// order number and archives it.
func (f *Finalizer) Finalize(ctx context.Context, d Draft) (*models.Order, error) {
	order, err := f.build(d)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = f.newNumber()

		if err := order.Validate(); err != nil {
			return nil, fmt.Errorf("invalid order: %w", err)
		}

		taken, err := f.archive.Exists(ctx, order.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to check order number: %w", err)
		}
		if taken {
			f.logger.Warn("order number collision", zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt))
			continue
		}

		err = f.archive.Save(ctx, order)
		if errors.Is(err, models.ErrDuplicateEntry) {
			f.logger.Warn("order number collision on save", zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to archive order: %w", err)
		}

		f.logger.Info("order finalized",
			zap.String("order_id", order.ID),
			zap.String("order_number", order.OrderNumber),
			zap.String("kind", string(order.Kind)),
			zap.String("total", order.FinalTotal.String()),
		)
		return order, nil
	}

	return nil, ErrOrderNumberExhausted
}

func (f *Finalizer) build(d Draft) (*models.Order, error) {
	if d.Selection == nil || d.Customer == nil {
		return nil, ErrMissingSessionState
	}

	order := &models.Order{
		ID:             uuid.NewString(),
		Kind:           models.OrderPaid,
		PurchaseDate:   f.now().UTC(),
		Event:          d.Selection.Event,
		Tickets:        d.Selection.Tickets,
		AddOns:         d.Selection.AddOns,
		Customer:       *d.Customer,
		PromoApplied:   d.Selection.PromoApplied,
		Subtotal:       d.Pricing.Subtotal,
		MarketplaceFee: d.Pricing.MarketplaceFee,
		PromoDiscount:  d.Pricing.PromoDiscount,
		DeliveryFee:    d.Pricing.DeliverySurcharge,
		FinalTotal:     d.Pricing.Total,
		Payment:        d.Payment,
	}
	if d.Pricing.IsFree {
		order.Kind = models.OrderFree
	}
	if order.AddOns == nil {
		order.AddOns = []models.SelectionLine{}
	}
	return order, nil
}
