package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// OrderKind tags how an order was settled
type OrderKind string

const (
	OrderFree OrderKind = "free"
	OrderPaid OrderKind = "paid"
)

// OrderNumberPrefix starts every display order number
const OrderNumberPrefix = "WTF-"

// MaxOrderTotal caps the final total of a single order (100,000.00)
const MaxOrderTotal Money = 10000000

// PaymentReceipt is the gateway's proof of a captured charge
type PaymentReceipt struct {
	PaymentID   string    `json:"paymentId" db:"payment_id"`
	Amount      Money     `json:"amount" db:"payment_amount"`
	CardLast4   string    `json:"cardLast4" db:"card_last4"`
	ProcessedAt time.Time `json:"processedAt" db:"paid_at"`
}

// Order represents a finalized checkout
type Order struct {
	ID             string          `json:"id" db:"id"`
	OrderNumber    string          `json:"orderNumber" db:"order_number"`
	Kind           OrderKind       `json:"kind" db:"kind"`
	PurchaseDate   time.Time       `json:"purchaseDate" db:"purchase_date"`
	Event          Event           `json:"event"`
	Tickets        []SelectionLine `json:"tickets"`
	AddOns         []SelectionLine `json:"addons"`
	Customer       CustomerInfo    `json:"customerInfo"`
	PromoApplied   bool            `json:"promoApplied" db:"promo_applied"`
	Subtotal       Money           `json:"subtotal" db:"subtotal"`
	MarketplaceFee Money           `json:"marketplaceFee" db:"marketplace_fee"`
	PromoDiscount  Money           `json:"promoDiscount" db:"promo_discount"`
	DeliveryFee    Money           `json:"deliveryFee" db:"delivery_fee"`
	FinalTotal     Money           `json:"finalTotal" db:"final_total"`
	Payment        *PaymentReceipt `json:"payment,omitempty"`
}

var orderNumberRegex = regexp.MustCompile(`^WTF-\d{8}$`)

// Validate validates the order data
func (o *Order) Validate() error {
	if err := o.validateOrderNumber(); err != nil {
		return err
	}

	return o.ValidateContents()
}

// ValidateContents checks everything but the order number, so a draft can be
// vetted before a number is allocated.
func (o *Order) ValidateContents() error {
	if err := o.validateKind(); err != nil {
		return err
	}

	if err := validateOrderTotalAmount(o.FinalTotal); err != nil {
		return err
	}

	if len(o.Tickets) == 0 {
		return errors.New("order must contain at least one ticket")
	}

	if o.Customer.Email == "" {
		return errors.New("customer email is required")
	}

	return nil
}

// validateOrderNumber validates the order number
func (o *Order) validateOrderNumber() error {
	if o.OrderNumber == "" {
		return errors.New("order number is required")
	}

	if !orderNumberRegex.MatchString(o.OrderNumber) {
		return errors.New("order number format is invalid")
	}

	return nil
}

// validateKind enforces that paid orders carry a receipt and free orders do not
func (o *Order) validateKind() error {
	switch o.Kind {
	case OrderFree:
		if o.Payment != nil {
			return errors.New("free order cannot carry a payment")
		}
		if o.FinalTotal != 0 {
			return errors.New("free order must have a zero total")
		}
	case OrderPaid:
		if o.Payment == nil {
			return errors.New("paid order requires a payment receipt")
		}
		if o.Payment.Amount != o.FinalTotal {
			return errors.New("payment amount does not match order total")
		}
	default:
		return errors.New("invalid order kind")
	}

	return nil
}

// ValidateOrderTotal checks a final total against the order limits
func ValidateOrderTotal(total Money) error {
	return validateOrderTotalAmount(total)
}

// validateOrderTotalAmount validates an order total amount
func validateOrderTotalAmount(total Money) error {
	if total < 0 {
		return errors.New("total amount cannot be negative")
	}

	if total > MaxOrderTotal {
		return fmt.Errorf("total amount cannot exceed 100,000.00: %w", ErrOrderTotalExceeded)
	}

	return nil
}

// GenerateOrderNumber returns a random display number such as WTF-04811237
func GenerateOrderNumber() string {
	max := big.NewInt(100000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fallback to timestamp-based generation if crypto/rand fails
		return fmt.Sprintf("%s%08d", OrderNumberPrefix, time.Now().UnixNano()%100000000)
	}

	return fmt.Sprintf("%s%08d", OrderNumberPrefix, randomNum.Int64())
}

// IsValidOrderNumber reports whether s has the display order number format
func IsValidOrderNumber(s string) bool {
	return orderNumberRegex.MatchString(s)
}

// Digits returns the numeric part of the order number
func (o *Order) Digits() string {
	return strings.TrimPrefix(o.OrderNumber, OrderNumberPrefix)
}

// InvoiceNumber derives the invoice number from the order number
func (o *Order) InvoiceNumber() string {
	return "INV-" + o.Digits()
}

// IsFree returns true if no payment was taken
func (o *Order) IsFree() bool {
	return o.Kind == OrderFree
}

// Lines returns ticket lines followed by add-on lines
func (o *Order) Lines() []SelectionLine {
	lines := make([]SelectionLine, 0, len(o.Tickets)+len(o.AddOns))
	lines = append(lines, o.Tickets...)
	return append(lines, o.AddOns...)
}

// GetKindDisplayName returns a human-readable settlement name
func (o *Order) GetKindDisplayName() string {
	switch o.Kind {
	case OrderFree:
		return "Free Registration"
	case OrderPaid:
		return "Paid"
	default:
		return string(o.Kind)
	}
}
