package services

import (
	"context"
	"errors"

	"ticket-checkout/internal/models"
)

var (
	// ErrPaymentDeclined means the processor refused the charge; the customer may retry
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrInvalidCard means the card details failed validation before any charge
	ErrInvalidCard = errors.New("invalid card details")
	// ErrUnknownPayment means a refund named a payment the processor never captured
	ErrUnknownPayment = errors.New("unknown payment")
)

// PaymentGateway captures and refunds card payments
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*models.PaymentReceipt, error)
	// Refund returns a captured payment in full
	Refund(ctx context.Context, paymentID string) error
}

// CardDetails is what the payment form submits
type CardDetails struct {
	Holder string `json:"cardHolder"`
	Number string `json:"cardNumber"`
	Expiry string `json:"expiry"` // MM/YY or MM/YYYY
	CVC    string `json:"cvc"`
}

// ChargeRequest describes a single charge attempt
type ChargeRequest struct {
	Amount    models.Money
	Currency  string
	Email     string
	Reference string
	Card      CardDetails
}
