package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

// invoiceURL links an order's invoice for the holder of token
func invoiceURL(base, orderNumber, token string) string {
	return strings.TrimRight(base, "/") + "/orders/" + url.PathEscape(orderNumber) + "/invoice?token=" + url.QueryEscape(token)
}

// InvoiceHandler serves archived invoices to holders of a receipt token
type InvoiceHandler struct {
	checkout *checkout.Service
	renderer *services.InvoiceRenderer
	logger   *zap.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(svc *checkout.Service, renderer *services.InvoiceRenderer, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{checkout: svc, renderer: renderer, logger: logger}
}

// Invoice renders an order's invoice as HTML, plain text or JSON (?format=)
func (h *InvoiceHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "number")
	if !models.IsValidOrderNumber(orderNumber) {
		middleware.WriteError(w, r, http.StatusNotFound, "order not found")
		return
	}

	inv, err := h.checkout.Invoice(r.Context(), orderNumber, r.URL.Query().Get("token"))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidReceipt):
		middleware.WriteError(w, r, http.StatusForbidden, "receipt token is invalid or expired")
		return
	case errors.Is(err, models.ErrOrderNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, "order not found")
		return
	default:
		h.logger.Error("failed to load invoice", zap.String("order_number", orderNumber), zap.Error(err))
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	switch r.URL.Query().Get("format") {
	case "json":
		writeJSON(w, http.StatusOK, inv)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(h.renderer.RenderText(inv)))
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := h.renderer.RenderHTML(w, inv); err != nil {
			h.logger.Error("failed to render invoice", zap.String("order_number", orderNumber), zap.Error(err))
		}
	}
}
