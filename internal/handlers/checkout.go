package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/pricing"
	"ticket-checkout/internal/services"
)

// CheckoutHandler serves the checkout wizard pages
type CheckoutHandler struct {
	checkout  *checkout.Service
	publicURL string
	logger    *zap.Logger
}

// NewCheckoutHandler creates a new checkout handler. publicURL prefixes the
// invoice links handed out on confirmation.
func NewCheckoutHandler(svc *checkout.Service, publicURL string, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, publicURL: publicURL, logger: logger}
}

type confirmationResponse struct {
	*checkout.Confirmation
	InvoiceURL string `json:"invoiceUrl"`
}

// ticketsPage is what the ticket selection page shows
type ticketsPage struct {
	Catalog      *models.Catalog        `json:"catalog"`
	Quantities   map[string]int         `json:"quantities"`
	Lines        []models.SelectionLine `json:"lines"`
	PromoApplied bool                   `json:"promoApplied"`
	Pricing      models.PricingResult   `json:"pricing"`
	Currency     string                 `json:"currency"`
	SoldOut      []string               `json:"soldOut,omitempty"`
}

type quoteResponse struct {
	Lines        []models.SelectionLine `json:"lines"`
	PromoApplied bool                   `json:"promoApplied"`
	PromoError   string                 `json:"promoError,omitempty"`
	Pricing      models.PricingResult   `json:"pricing"`
	Currency     string                 `json:"currency"`
}

type detailsPage struct {
	Selection *models.SelectedTickets `json:"selectedTickets"`
	Customer  *models.CustomerInfo    `json:"customerInfo,omitempty"`
}

// TicketsPage shows an event's catalog with the caller's current selection
func (h *CheckoutHandler) TicketsPage(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	sel, err := h.checkout.CurrentSelection(r.Context(), middleware.SessionStore(r.Context()), eventID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	catalog := sel.Catalog()
	page := ticketsPage{
		Catalog:      catalog,
		Quantities:   make(map[string]int),
		PromoApplied: sel.PromoApplied(),
		Pricing:      sel.Pricing(),
		Currency:     catalog.Event.CurrencyCode(),
		Lines:        sel.Lines(),
	}
	for _, item := range catalog.Items() {
		page.Quantities[item.ID] = sel.Quantity(item.ID)
		if item.IsSoldOut() {
			page.SoldOut = append(page.SoldOut, item.ID)
		}
	}

	writeJSON(w, http.StatusOK, page)
}

// Quote prices a selection without storing it
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req checkout.QuoteRequest
	if err := decodeBody(w, r, &req, func(form url.Values) { req = quoteFromForm(form) }); err != nil {
		writeFieldError(w, "body", "request body is invalid")
		return
	}

	sel, err := h.checkout.Quote(r.Context(), req)
	resp := quoteResponse{}
	switch {
	case errors.Is(err, pricing.ErrInvalidPromoCode):
		resp.PromoError = "Invalid promo code"
	case err != nil:
		h.handleError(w, r, err)
		return
	}

	resp.Lines = sel.Lines()
	resp.PromoApplied = sel.PromoApplied()
	resp.Pricing = sel.Pricing()
	resp.Currency = sel.Catalog().Event.CurrencyCode()
	if resp.Lines == nil {
		resp.Lines = []models.SelectionLine{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// SelectTickets stores the selection and moves on to the details page
func (h *CheckoutHandler) SelectTickets(w http.ResponseWriter, r *http.Request) {
	var req checkout.QuoteRequest
	if err := decodeBody(w, r, &req, func(form url.Values) { req = quoteFromForm(form) }); err != nil {
		writeFieldError(w, "body", "request body is invalid")
		return
	}

	_, err := h.checkout.SelectTickets(r.Context(), middleware.SessionStore(r.Context()), req)
	switch {
	case err == nil:
		handleRedirect(w, r, "/checkout/details")
	case errors.Is(err, pricing.ErrInvalidPromoCode):
		writeFieldError(w, "promoCode", "Invalid promo code")
	case errors.Is(err, checkout.ErrEmptySelection):
		writeFieldError(w, "tickets", "Select at least one ticket")
	case errors.Is(err, checkout.ErrRequiredAddOn):
		writeFieldError(w, "addons", err.Error())
	case errors.Is(err, models.ErrOrderTotalExceeded):
		writeFieldError(w, "tickets", orderLimitMessage)
	default:
		h.handleError(w, r, err)
	}
}

// DetailsPage shows the contact form for a stored selection
func (h *CheckoutHandler) DetailsPage(w http.ResponseWriter, r *http.Request) {
	step, snap, err := h.checkout.Enter(r.Context(), middleware.SessionStore(r.Context()), checkout.Detailing)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if step != checkout.Detailing {
		handleRedirect(w, r, stepURL(step, snap))
		return
	}

	writeJSON(w, http.StatusOK, detailsPage{Selection: snap.Selection, Customer: snap.Customer})
}

// SubmitDetails stores contact info; free orders go straight to confirmation
func (h *CheckoutHandler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	var info models.CustomerInfo
	if err := decodeBody(w, r, &info, func(form url.Values) { info = customerFromForm(form) }); err != nil {
		writeFieldError(w, "body", "request body is invalid")
		return
	}

	store := middleware.SessionStore(r.Context())
	step, _, err := h.checkout.SubmitDetails(r.Context(), store, info)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	handleRedirect(w, r, stepURL(step, checkout.Snapshot{}))
}

// PaymentPage shows the order summary priced with the chosen delivery method
func (h *CheckoutHandler) PaymentPage(w http.ResponseWriter, r *http.Request) {
	store := middleware.SessionStore(r.Context())

	step, snap, err := h.checkout.Enter(r.Context(), store, checkout.Paying)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if step != checkout.Paying {
		handleRedirect(w, r, stepURL(step, snap))
		return
	}

	summary, err := h.checkout.PaymentSummary(r.Context(), store)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SubmitPayment charges the card and finalizes the order
func (h *CheckoutHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var card services.CardDetails
	if err := decodeBody(w, r, &card, func(form url.Values) { card = cardFromForm(form) }); err != nil {
		writeFieldError(w, "body", "request body is invalid")
		return
	}

	_, err := h.checkout.SubmitPayment(r.Context(), middleware.SessionStore(r.Context()), card)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	handleRedirect(w, r, "/checkout/confirmation")
}

// ConfirmationPage shows the finalized order with its invoice
func (h *CheckoutHandler) ConfirmationPage(w http.ResponseWriter, r *http.Request) {
	conf, err := h.checkout.Confirmation(r.Context(), middleware.SessionStore(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmationResponse{
		Confirmation: conf,
		InvoiceURL:   invoiceURL(h.publicURL, conf.Order.OrderNumber, conf.ReceiptToken),
	})
}

const orderLimitMessage = "Orders cannot exceed 100,000.00. Please choose fewer tickets."

// handleError maps checkout errors to responses. Missing session state is
// never shown to the customer; they are sent back to the step they can use.
func (h *CheckoutHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs models.ValidationErrors

	switch {
	case errors.Is(err, checkout.ErrMissingSessionState):
		h.redirectToValidStep(w, r)
	case errors.As(err, &verrs):
		writeValidationErrors(w, verrs)
	case errors.Is(err, services.ErrPaymentDeclined):
		middleware.WriteError(w, r, http.StatusPaymentRequired, "Your card was declined. Please try another card.")
	case errors.Is(err, models.ErrEventNotFound), errors.Is(err, models.ErrOrderNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, r, http.StatusGatewayTimeout, "Payment timed out. Please try again.")
	case errors.Is(err, models.ErrInsufficientStock):
		middleware.WriteError(w, r, http.StatusConflict, "Some tickets are no longer available.")
	case errors.Is(err, models.ErrOrderTotalExceeded):
		writeFieldError(w, "tickets", orderLimitMessage)
	default:
		h.logger.Error("checkout request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func (h *CheckoutHandler) redirectToValidStep(w http.ResponseWriter, r *http.Request) {
	step, snap, err := h.checkout.Enter(r.Context(), middleware.SessionStore(r.Context()), checkout.Confirmed)
	if err != nil {
		step, snap = checkout.Selecting, checkout.Snapshot{}
	}
	handleRedirect(w, r, stepURL(step, snap))
}

// stepURL returns the page that serves a wizard step
func stepURL(step checkout.Step, snap checkout.Snapshot) string {
	switch step {
	case checkout.Detailing:
		return "/checkout/details"
	case checkout.Paying:
		return "/checkout/payment"
	case checkout.Confirmed:
		return "/checkout/confirmation"
	}

	if snap.Selection != nil && snap.Selection.Event.ID != "" {
		return "/events/" + url.PathEscape(snap.Selection.Event.ID) + "/tickets"
	}
	return "/events"
}

func quoteFromForm(form url.Values) checkout.QuoteRequest {
	req := checkout.QuoteRequest{
		EventID:        form.Get("eventId"),
		PromoCode:      form.Get("promoCode"),
		DeliveryMethod: models.DeliveryMethod(form.Get("deliveryMethod")),
		Quantities:     make(map[string]int),
	}
	for key, values := range form {
		itemID, ok := strings.CutPrefix(key, "qty.")
		if !ok || len(values) == 0 {
			continue
		}
		if n, err := strconv.Atoi(values[0]); err == nil {
			req.Quantities[itemID] = n
		}
	}
	return req
}

func customerFromForm(form url.Values) models.CustomerInfo {
	createAccount, _ := strconv.ParseBool(form.Get("createAccount"))
	return models.CustomerInfo{
		FirstName:      form.Get("firstName"),
		LastName:       form.Get("lastName"),
		Email:          form.Get("email"),
		Phone:          form.Get("phone"),
		DeliveryMethod: models.DeliveryMethod(form.Get("deliveryMethod")),
		CreateAccount:  createAccount || form.Get("createAccount") == "on",
	}
}

func cardFromForm(form url.Values) services.CardDetails {
	return services.CardDetails{
		Holder: form.Get("cardHolder"),
		Number: form.Get("cardNumber"),
		Expiry: form.Get("expiry"),
		CVC:    form.Get("cvc"),
	}
}
