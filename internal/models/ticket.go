package models

import (
	"errors"
	"strings"
)

// ItemKind distinguishes tickets from add-ons in a selection
type ItemKind string

const (
	KindTicket ItemKind = "ticket"
	KindAddOn  ItemKind = "addon"
)

// TicketType represents a purchasable ticket for an event
type TicketType struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Description   string `json:"description" db:"description"`
	UnitPrice     Money  `json:"price" db:"price"`
	TotalQuantity int    `json:"quantity" db:"quantity"`
	Sold          int    `json:"sold,omitempty" db:"sold"`
	MaxPerOrder   int    `json:"maxPerOrder" db:"max_per_order"`
	MinPerOrder   int    `json:"minPerOrder,omitempty" db:"min_per_order"`
}

// AddOn represents an optional extra sold alongside tickets (parking, merch, ...)
type AddOn struct {
	ID            string `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Description   string `json:"description" db:"description"`
	UnitPrice     Money  `json:"price" db:"price"`
	TotalQuantity int    `json:"quantity" db:"quantity"`
	Sold          int    `json:"sold,omitempty" db:"sold"`
	MaxPerOrder   int    `json:"maxPerOrder" db:"max_per_order"`
	Required      bool   `json:"required,omitempty" db:"required"`
}

// Validate validates the ticket type data
func (tt *TicketType) Validate() error {
	if err := validateItemID(tt.ID); err != nil {
		return err
	}

	if err := validateItemName(tt.Name); err != nil {
		return err
	}

	if err := validateItemPrice(tt.UnitPrice); err != nil {
		return err
	}

	if err := validateItemLimits(tt.TotalQuantity, tt.MaxPerOrder, tt.UnitPrice); err != nil {
		return err
	}

	if tt.MinPerOrder < 0 {
		return errors.New("minimum per order cannot be negative")
	}

	if tt.MinPerOrder > tt.MaxPerOrder {
		return errors.New("minimum per order cannot exceed maximum per order")
	}

	return nil
}

// Validate validates the add-on data
func (a *AddOn) Validate() error {
	if err := validateItemID(a.ID); err != nil {
		return err
	}

	if err := validateItemName(a.Name); err != nil {
		return err
	}

	if err := validateItemPrice(a.UnitPrice); err != nil {
		return err
	}

	return validateItemLimits(a.TotalQuantity, a.MaxPerOrder, a.UnitPrice)
}

// Remaining returns the number of tickets still available
func (tt *TicketType) Remaining() int {
	return remaining(tt.TotalQuantity, tt.Sold)
}

// IsFree returns true for zero-priced tickets
func (tt *TicketType) IsFree() bool {
	return tt.UnitPrice == 0
}

// Remaining returns the number of add-ons still available
func (a *AddOn) Remaining() int {
	return remaining(a.TotalQuantity, a.Sold)
}

func remaining(total, sold int) int {
	available := total - sold
	if available < 0 {
		return 0
	}
	return available
}

func validateItemID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("item id is required")
	}

	if len(id) > 64 {
		return errors.New("item id must be less than 64 characters")
	}

	return nil
}

func validateItemName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("item name is required")
	}

	if len(name) > 100 {
		return errors.New("item name must be less than 100 characters")
	}

	return nil
}

func validateItemPrice(price Money) error {
	if price < 0 {
		return errors.New("item price cannot be negative")
	}

	// 10,000.00 in major units
	if price > 1000000 {
		return errors.New("item price cannot exceed 10,000.00")
	}

	return nil
}

func validateItemLimits(quantity, maxPerOrder int, price Money) error {
	if quantity < 0 {
		return errors.New("item quantity cannot be negative")
	}

	if maxPerOrder < 1 {
		return errors.New("maximum per order must be at least 1")
	}

	// a full line of one item must fit in a single order
	if price*Money(maxPerOrder) > MaxOrderTotal {
		return errors.New("maximum per order at this price exceeds the order total limit")
	}

	return nil
}
