package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ticket-checkout/internal/models"
	"ticket-checkout/internal/repositories"
	"ticket-checkout/internal/services"
	"ticket-checkout/internal/session"
)

func gaCatalog() *models.Catalog {
	return &models.Catalog{
		Event: models.Event{ID: "jazz-night", Name: "Jazz Night", StartsAt: time.Date(2026, 12, 12, 20, 0, 0, 0, time.UTC)},
		Tickets: []models.TicketType{
			{ID: "ga", Name: "General Admission", UnitPrice: 2500, TotalQuantity: 100, MaxPerOrder: 8},
			{ID: "vip", Name: "VIP", UnitPrice: 9000, TotalQuantity: 3, MaxPerOrder: 4, MinPerOrder: 2},
		},
		AddOns: []models.AddOn{
			{ID: "parking", Name: "Parking", UnitPrice: 500, TotalQuantity: 10, MaxPerOrder: 2},
		},
	}
}

func freeCatalog() *models.Catalog {
	return &models.Catalog{
		Event: models.Event{ID: "rehearsal", Name: "Open Rehearsal", StartsAt: time.Date(2026, 12, 5, 18, 0, 0, 0, time.UTC)},
		Tickets: []models.TicketType{
			{ID: "rsvp", Name: "RSVP", UnitPrice: 0, TotalQuantity: 50, MaxPerOrder: 2},
		},
		AddOns: []models.AddOn{},
	}
}

var validCard = services.CardDetails{
	Holder: "Ada Lovelace",
	Number: "4242 4242 4242 4242",
	Expiry: "12/30",
	CVC:    "123",
}

var adaCustomer = models.CustomerInfo{
	FirstName:      "Ada",
	LastName:       "Lovelace",
	Email:          "Ada@Example.com",
	DeliveryMethod: models.DeliveryMobile,
}

type testEnv struct {
	svc     *Service
	store   *session.MemoryStore
	archive *repositories.MemoryArchive
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalogs, err := repositories.NewStaticCatalog(gaCatalog(), freeCatalog())
	require.NoError(t, err)

	invoices, err := services.NewInvoiceRenderer()
	require.NoError(t, err)

	archive := repositories.NewMemoryArchive()
	svc := NewService(
		catalogs,
		NewFinalizer(archive, nil),
		services.NewMockPaymentGateway(0, nil),
		invoices,
		services.NewReceiptSigner("receipt-secret-for-tests", 24*time.Hour),
		time.Second,
		nil,
	)

	return &testEnv{svc: svc, store: session.NewMemoryStore(), archive: archive}
}

func (e *testEnv) selectGA(t *testing.T, qty int) *models.SelectedTickets {
	t.Helper()
	snap, err := e.svc.SelectTickets(context.Background(), e.store, QuoteRequest{
		EventID:    "jazz-night",
		Quantities: map[string]int{"ga": qty},
	})
	require.NoError(t, err)
	return snap
}
