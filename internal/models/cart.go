package models

import (
	"errors"
	"fmt"
)

// DeliveryMethod is how tickets reach the customer
type DeliveryMethod string

const (
	DeliveryMobile DeliveryMethod = "mobile"
	DeliverySMS    DeliveryMethod = "sms"
)

// Valid reports whether the delivery method is known
func (d DeliveryMethod) Valid() bool {
	return d == DeliveryMobile || d == DeliverySMS
}

// OrDefault returns mobile delivery for an empty method
func (d DeliveryMethod) OrDefault() DeliveryMethod {
	if d == "" {
		return DeliveryMobile
	}
	return d
}

// SelectionLine is one chosen item with its unit price snapshot
type SelectionLine struct {
	ItemID    string   `json:"id"`
	Kind      ItemKind `json:"kind"`
	Name      string   `json:"name"`
	UnitPrice Money    `json:"price"`
	Quantity  int      `json:"quantity"`
}

// Amount returns quantity times unit price
func (l SelectionLine) Amount() Money {
	return l.UnitPrice * Money(l.Quantity)
}

// PricingResult is derived from a selection and never stored on its own
type PricingResult struct {
	Subtotal          Money `json:"subtotal"`
	MarketplaceFee    Money `json:"marketplaceFee"`
	DeliverySurcharge Money `json:"deliverySurcharge"`
	PromoDiscount     Money `json:"promoDiscount"`
	Total             Money `json:"total"`
	IsFree            bool  `json:"isFreeOrder"`
}

// SelectedTickets is the snapshot written when the customer leaves the ticket page
type SelectedTickets struct {
	Event          Event           `json:"event"`
	Tickets        []SelectionLine `json:"tickets"`
	AddOns         []SelectionLine `json:"addons"`
	PromoApplied   bool            `json:"promoApplied"`
	Subtotal       Money           `json:"subtotal"`
	MarketplaceFee Money           `json:"marketplaceFee"`
	PromoDiscount  Money           `json:"promoDiscount"`
	Total          Money           `json:"total"`
	IsFreeOrder    bool            `json:"isFreeOrder"`
}

// Lines returns ticket lines followed by add-on lines
func (s *SelectedTickets) Lines() []SelectionLine {
	lines := make([]SelectionLine, 0, len(s.Tickets)+len(s.AddOns))
	lines = append(lines, s.Tickets...)
	return append(lines, s.AddOns...)
}

// TicketCount returns the number of tickets across all ticket lines
func (s *SelectedTickets) TicketCount() int {
	count := 0
	for _, line := range s.Tickets {
		count += line.Quantity
	}
	return count
}

// Validate checks a snapshot read back from the session
func (s *SelectedTickets) Validate() error {
	if s.Event.ID == "" {
		return errors.New("selection has no event")
	}

	if len(s.Tickets) == 0 {
		return errors.New("selection has no tickets")
	}

	for _, line := range s.Lines() {
		if line.ItemID == "" {
			return errors.New("selection line has no item id")
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("selection line %q has non-positive quantity", line.ItemID)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("selection line %q has negative price", line.ItemID)
		}
	}

	if s.Total < 0 {
		return errors.New("selection total cannot be negative")
	}

	return nil
}
