package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/config"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/services"
	"ticket-checkout/internal/session"
)

// RouterDeps is everything the HTTP surface is built from
type RouterDeps struct {
	Checkout    *checkout.Service
	Invoices    *services.InvoiceRenderer
	Events      EventLister
	Sessions    session.Opener
	RateLimiter *middleware.RateLimiter
	CORS        config.CORSConfig
	PublicURL   string
	Logger      *zap.Logger
}

// NewRouter wires middleware and routes
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.ErrorHandlingMiddleware(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.CORSMiddleware(deps.CORS))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	publicHandler := NewPublicHandler(deps.Events, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.PublicURL, deps.Logger)
	invoiceHandler := NewInvoiceHandler(deps.Checkout, deps.Invoices, deps.Logger)

	r.Get("/health", publicHandler.Health)
	r.Get("/orders/{number}/invoice", invoiceHandler.Invoice)

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(middleware.RateLimit(deps.RateLimiter))
		}
		r.Use(middleware.SessionMiddleware(deps.Sessions, deps.Logger))

		r.Get("/events", publicHandler.EventsList)
		r.Get("/events/{id}/tickets", checkoutHandler.TicketsPage)

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", checkoutHandler.Quote)
			r.Post("/tickets", checkoutHandler.SelectTickets)
			r.Get("/details", checkoutHandler.DetailsPage)
			r.Post("/details", checkoutHandler.SubmitDetails)
			r.Get("/payment", checkoutHandler.PaymentPage)
			r.Post("/payment", checkoutHandler.SubmitPayment)
			r.Get("/confirmation", checkoutHandler.ConfirmationPage)
		})
	})

	return r
}
