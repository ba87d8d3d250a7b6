package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ticket-checkout/internal/models"
	"ticket-checkout/internal/pricing"
	"ticket-checkout/internal/services"
	"ticket-checkout/internal/session"
)

const (
	HeadlineFree = "Registration Complete."
	HeadlinePaid = "Payment Successful!"
)

// CatalogProvider supplies the ticket catalog for an event
type CatalogProvider interface {
	GetCatalog(ctx context.Context, eventID string) (*models.Catalog, error)
}

// QuoteRequest is the ticket page form
type QuoteRequest struct {
	EventID        string                `json:"eventId"`
	Quantities     map[string]int        `json:"quantities"`
	PromoCode      string                `json:"promoCode"`
	DeliveryMethod models.DeliveryMethod `json:"deliveryMethod"`
}

// PaymentSummary is what the payment page shows before the card form
type PaymentSummary struct {
	Selection *models.SelectedTickets `json:"selectedTickets"`
	Customer  *models.CustomerInfo    `json:"customerInfo"`
	Pricing   models.PricingResult    `json:"pricing"`
	Currency  string                  `json:"currency"`
}

// Confirmation is what the confirmation page shows
type Confirmation struct {
	Order        *models.Order     `json:"order"`
	Headline     string            `json:"headline"`
	Invoice      *services.Invoice `json:"invoice"`
	ReceiptToken string            `json:"receiptToken"`
	EntryQR      string            `json:"entryQr"`
}

// Service implements the wizard pages on top of a session store
type Service struct {
	catalogs       CatalogProvider
	finalizer      *Finalizer
	payments       services.PaymentGateway
	invoices       *services.InvoiceRenderer
	receipts       *services.ReceiptSigner
	paymentTimeout time.Duration
	logger         *zap.Logger
}

// NewService creates a checkout service
func NewService(
	catalogs CatalogProvider,
	finalizer *Finalizer,
	payments services.PaymentGateway,
	invoices *services.InvoiceRenderer,
	receipts *services.ReceiptSigner,
	paymentTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalogs:       catalogs,
		finalizer:      finalizer,
		payments:       payments,
		invoices:       invoices,
		receipts:       receipts,
		paymentTimeout: paymentTimeout,
		logger:         logger,
	}
}

// Catalog returns the catalog for an event
func (s *Service) Catalog(ctx context.Context, eventID string) (*models.Catalog, error) {
	catalog, err := s.catalogs.GetCatalog(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return catalog, nil
}

// Quote builds a priced selection without touching the session. An invalid
// promo code is reported alongside the selection priced without it.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Selection, error) {
	catalog, err := s.Catalog(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	sel := NewSelection(catalog)
	for itemID, qty := range req.Quantities {
		sel.SetQuantity(itemID, qty)
	}
	sel.SetDeliveryMethod(req.DeliveryMethod)

	if strings.TrimSpace(req.PromoCode) != "" {
		if err := sel.ApplyPromo(req.PromoCode); err != nil {
			return sel, err
		}
	}

	return sel, nil
}

// CurrentSelection rebuilds the stored selection for the ticket page, or an
// empty one when the session holds a selection for another event.
func (s *Service) CurrentSelection(ctx context.Context, store session.Store, eventID string) (*Selection, error) {
	catalog, err := s.Catalog(ctx, eventID)
	if err != nil {
		return nil, err
	}

	stored, err := loadSelection(ctx, store, s.logger)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Event.ID != catalog.Event.ID {
		return NewSelection(catalog), nil
	}
	return RestoreSelection(catalog, stored), nil
}

// SelectTickets stores the ticket page choice and starts a fresh checkout
func (s *Service) SelectTickets(ctx context.Context, store session.Store, req QuoteRequest) (*models.SelectedTickets, error) {
	req.DeliveryMethod = models.DeliveryMobile
	sel, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	if !sel.HasTickets() {
		return nil, ErrEmptySelection
	}
	if missing := sel.MissingRequiredAddOns(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRequiredAddOn, strings.Join(missing, ", "))
	}
	if err := models.ValidateOrderTotal(sel.Pricing().Total); err != nil {
		return nil, err
	}

	snap := sel.Snapshot()
	if _, err := Transition(Selecting, TicketsChosen, Snapshot{Selection: snap}); err != nil {
		return nil, err
	}

	if err := saveJSON(ctx, store, session.KeySelectedTickets, snap); err != nil {
		return nil, err
	}
	if err := store.Clear(ctx, session.KeyCustomerInfo); err != nil {
		return nil, err
	}
	if err := store.Clear(ctx, session.KeyCompletedOrder); err != nil {
		return nil, err
	}

	s.logger.Info("tickets selected",
		zap.String("event_id", snap.Event.ID),
		zap.Int("tickets", snap.TicketCount()),
		zap.String("total", snap.Total.String()),
		zap.Bool("free", snap.IsFreeOrder),
	)
	return snap, nil
}

// SubmitDetails stores contact info. Free orders are finalized here and
// land on Confirmed; paid orders continue to Paying.
func (s *Service) SubmitDetails(ctx context.Context, store session.Store, info models.CustomerInfo) (Step, *models.Order, error) {
	snap, err := LoadSnapshot(ctx, store, s.logger)
	if err != nil {
		return Selecting, nil, err
	}
	if Resolve(Detailing, snap) != Detailing {
		return Selecting, nil, ErrMissingSessionState
	}

	info.Normalize()
	if err := info.Validate(); err != nil {
		return Detailing, nil, err
	}
	snap.Customer = &info
	snap.Order = nil

	next, err := Transition(Detailing, DetailsSubmitted, snap)
	if err != nil {
		return Detailing, nil, err
	}

	if err := saveJSON(ctx, store, session.KeyCustomerInfo, snap.Customer); err != nil {
		return Detailing, nil, err
	}
	if err := store.Clear(ctx, session.KeyCompletedOrder); err != nil {
		return Detailing, nil, err
	}

	if next == Confirmed {
		order, err := s.finalizeFree(ctx, store, snap)
		if err != nil {
			return Detailing, nil, err
		}
		return Confirmed, order, nil
	}

	return next, nil, nil
}

// PaymentSummary reprices the stored selection with the chosen delivery method
func (s *Service) PaymentSummary(ctx context.Context, store session.Store) (*PaymentSummary, error) {
	snap, err := LoadSnapshot(ctx, store, s.logger)
	if err != nil {
		return nil, err
	}
	if Resolve(Paying, snap) != Paying {
		return nil, ErrMissingSessionState
	}

	return &PaymentSummary{
		Selection: snap.Selection,
		Customer:  snap.Customer,
		Pricing:   priceFor(snap.Selection, snap.Customer.DeliveryMethod),
		Currency:  snap.Selection.Event.CurrencyCode(),
	}, nil
}

// SubmitPayment charges the card and finalizes the order. A decline or an
// invalid card leaves the session untouched so the customer can retry.
func (s *Service) SubmitPayment(ctx context.Context, store session.Store, card services.CardDetails) (*models.Order, error) {
	snap, err := LoadSnapshot(ctx, store, s.logger)
	if err != nil {
		return nil, err
	}
	if Resolve(Paying, snap) != Paying {
		return nil, ErrMissingSessionState
	}
	if snap.Order != nil {
		return snap.Order, nil
	}

	priced := priceFor(snap.Selection, snap.Customer.DeliveryMethod)
	draft := Draft{
		Selection: snap.Selection,
		Customer:  snap.Customer,
		Pricing:   priced,
	}

	// nothing is charged for an order that could not be saved
	if err := s.finalizer.Check(ctx, draft); err != nil {
		s.logger.Info("order rejected before charge",
			zap.String("event_id", snap.Selection.Event.ID),
			zap.String("amount", priced.Total.String()),
			zap.Error(err),
		)
		return nil, err
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	defer cancel()

	receipt, err := s.payments.Charge(chargeCtx, services.ChargeRequest{
		Amount:    priced.Total,
		Currency:  snap.Selection.Event.CurrencyCode(),
		Email:     snap.Customer.Email,
		Reference: snap.Selection.Event.ID,
		Card:      card,
	})
	if err != nil {
		s.logger.Info("payment failed",
			zap.String("event_id", snap.Selection.Event.ID),
			zap.String("amount", priced.Total.String()),
			zap.Error(err),
		)
		return nil, err
	}

	draft.Payment = receipt
	order, err := s.finalizer.Finalize(ctx, draft)
	if err != nil {
		s.refund(ctx, receipt, err)
		return nil, err
	}

	snap.Order = order
	if _, err := Transition(Paying, PaymentCaptured, snap); err != nil {
		return nil, err
	}
	if err := saveJSON(ctx, store, session.KeyCompletedOrder, order); err != nil {
		return nil, err
	}

	return order, nil
}

// Confirmation reads the completed order, finalizing a free order from
// selection and contact info when none was stored yet.
func (s *Service) Confirmation(ctx context.Context, store session.Store) (*Confirmation, error) {
	snap, err := LoadSnapshot(ctx, store, s.logger)
	if err != nil {
		return nil, err
	}

	order := snap.Order
	if order == nil {
		if !(hasSelection(snap) && hasCustomer(snap) && isFree(snap)) {
			return nil, ErrMissingSessionState
		}
		if order, err = s.finalizeFree(ctx, store, snap); err != nil {
			return nil, err
		}
	}

	return s.confirmationFor(order)
}

func (s *Service) confirmationFor(order *models.Order) (*Confirmation, error) {
	token, err := s.receipts.Sign(order)
	if err != nil {
		return nil, err
	}
	qr, err := services.EntryQRCode(order.OrderNumber)
	if err != nil {
		return nil, err
	}

	headline := HeadlinePaid
	if order.IsFree() {
		headline = HeadlineFree
	}

	return &Confirmation{
		Order:        order,
		Headline:     headline,
		Invoice:      s.invoices.Build(order),
		ReceiptToken: token,
		EntryQR:      qr,
	}, nil
}

// Enter resolves which step a request for target may see
func (s *Service) Enter(ctx context.Context, store session.Store, target Step) (Step, Snapshot, error) {
	snap, err := LoadSnapshot(ctx, store, s.logger)
	if err != nil {
		return Selecting, Snapshot{}, err
	}
	return Resolve(target, snap), snap, nil
}

// Invoice loads an archived order for a holder of its receipt token
func (s *Service) Invoice(ctx context.Context, orderNumber, token string) (*services.Invoice, error) {
	if _, err := s.receipts.Verify(token, orderNumber); err != nil {
		return nil, err
	}

	order, err := s.finalizer.Archive().GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.invoices.Build(order), nil
}

// refund returns a charge whose order could not be finalized, such as when the
// last tickets sold between the check and the save.
func (s *Service) refund(ctx context.Context, receipt *models.PaymentReceipt, cause error) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.paymentTimeout)
	defer cancel()

	if err := s.payments.Refund(refundCtx, receipt.PaymentID); err != nil {
		s.logger.Error("payment captured, order not finalized and refund failed",
			zap.String("payment_id", receipt.PaymentID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}

	s.logger.Warn("payment refunded after order was not finalized",
		zap.String("payment_id", receipt.PaymentID),
		zap.Error(cause),
	)
}

func (s *Service) finalizeFree(ctx context.Context, store session.Store, snap Snapshot) (*models.Order, error) {
	priced := priceFor(snap.Selection, snap.Customer.DeliveryMethod)
	if !priced.IsFree {
		return nil, errors.New("selection is no longer free")
	}

	order, err := s.finalizer.Finalize(ctx, Draft{
		Selection: snap.Selection,
		Customer:  snap.Customer,
		Pricing:   priced,
	})
	if err != nil {
		return nil, err
	}

	if err := saveJSON(ctx, store, session.KeyCompletedOrder, order); err != nil {
		return nil, err
	}
	return order, nil
}

func priceFor(sel *models.SelectedTickets, delivery models.DeliveryMethod) models.PricingResult {
	return pricing.Calculate(pricing.Input{
		Lines:        sel.Lines(),
		PromoApplied: sel.PromoApplied,
		Delivery:     delivery,
	})
}
