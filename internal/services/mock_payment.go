package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ticket-checkout/internal/models"
)

// MockPaymentGateway simulates a card processor. It waits for latency,
// validates the card, and declines DeclineTestCard.
type MockPaymentGateway struct {
	latency time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	captured map[string]models.Money
	refunded map[string]bool
}

// NewMockPaymentGateway creates a mock gateway
func NewMockPaymentGateway(latency time.Duration, logger *zap.Logger) *MockPaymentGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockPaymentGateway{
		latency:  latency,
		now:      time.Now,
		logger:   logger,
		captured: make(map[string]models.Money),
		refunded: make(map[string]bool),
	}
}

// WithClock overrides the time source used for expiry checks and receipts
func (g *MockPaymentGateway) WithClock(now func() time.Time) *MockPaymentGateway {
	g.now = now
	return g
}

// Charge processes a payment
func (g *MockPaymentGateway) Charge(ctx context.Context, req ChargeRequest) (*models.PaymentReceipt, error) {
	if err := ValidateCard(req.Card, g.now()); err != nil {
		return nil, err
	}

	if req.Amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive: %w", models.ErrInvalidInput)
	}

	if g.latency > 0 {
		timer := time.NewTimer(g.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("payment interrupted: %w", ctx.Err())
		case <-timer.C:
		}
	}

	last4 := LastFour(req.Card.Number)

	if NormalizeCardNumber(req.Card.Number) == DeclineTestCard {
		g.logger.Info("mock payment declined",
			zap.String("reference", req.Reference),
			zap.String("card_last4", last4),
			zap.Int64("amount_cents", int64(req.Amount)),
		)
		return nil, ErrPaymentDeclined
	}

	receipt := &models.PaymentReceipt{
		PaymentID:   "mock_pay_" + uuid.NewString(),
		Amount:      req.Amount,
		CardLast4:   last4,
		ProcessedAt: g.now().UTC(),
	}

	g.mu.Lock()
	g.captured[receipt.PaymentID] = receipt.Amount
	g.mu.Unlock()

	g.logger.Info("mock payment captured",
		zap.String("reference", req.Reference),
		zap.String("payment_id", receipt.PaymentID),
		zap.String("amount", req.Amount.Format(req.Currency)),
	)

	return receipt, nil
}

// Refund returns a captured payment. Refunding twice is a no-op.
func (g *MockPaymentGateway) Refund(ctx context.Context, paymentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	amount, ok := g.captured[paymentID]
	if !ok {
		return fmt.Errorf("%s: %w", paymentID, ErrUnknownPayment)
	}
	if g.refunded[paymentID] {
		return nil
	}
	g.refunded[paymentID] = true

	g.logger.Info("mock payment refunded",
		zap.String("payment_id", paymentID),
		zap.Int64("amount_cents", int64(amount)),
	)
	return nil
}

// Refunded reports whether a payment has been refunded
func (g *MockPaymentGateway) Refunded(paymentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunded[paymentID]
}
