package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCurrency is used when a catalog does not name one
const DefaultCurrency = "USD"

// Event is the summary of an event carried through checkout
type Event struct {
	ID       string    `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Venue    string    `json:"venue,omitempty" db:"venue"`
	StartsAt time.Time `json:"startsAt" db:"starts_at"`
	Currency string    `json:"currency,omitempty" db:"currency"`
}

// Catalog is the immutable snapshot of what can be bought for one event
type Catalog struct {
	Event   Event        `json:"event"`
	Tickets []TicketType `json:"tickets"`
	AddOns  []AddOn      `json:"addons"`
}

// Item is the flattened view of a ticket type or add-on used by selection
type Item struct {
	ID          string
	Kind        ItemKind
	Name        string
	UnitPrice   Money
	MaxPerOrder int
	MinPerOrder int
	Remaining   int
	Required    bool
}

// Cap returns the largest quantity a single order may hold
func (it Item) Cap() int {
	if it.Remaining < it.MaxPerOrder {
		return it.Remaining
	}
	return it.MaxPerOrder
}

// IsSoldOut returns true when nothing is left to sell
func (it Item) IsSoldOut() bool {
	return it.Remaining == 0
}

// CurrencyCode returns the event currency or the default
func (e Event) CurrencyCode() string {
	if e.Currency == "" {
		return DefaultCurrency
	}
	return e.Currency
}

// Validate validates the catalog snapshot
func (c *Catalog) Validate() error {
	if strings.TrimSpace(c.Event.ID) == "" {
		return errors.New("event id is required")
	}

	if strings.TrimSpace(c.Event.Name) == "" {
		return errors.New("event name is required")
	}

	seen := make(map[string]bool)
	for i := range c.Tickets {
		if err := c.Tickets[i].Validate(); err != nil {
			return fmt.Errorf("ticket %q: %w", c.Tickets[i].ID, err)
		}
		if seen[c.Tickets[i].ID] {
			return fmt.Errorf("duplicate item id %q", c.Tickets[i].ID)
		}
		seen[c.Tickets[i].ID] = true
	}

	for i := range c.AddOns {
		if err := c.AddOns[i].Validate(); err != nil {
			return fmt.Errorf("add-on %q: %w", c.AddOns[i].ID, err)
		}
		if seen[c.AddOns[i].ID] {
			return fmt.Errorf("duplicate item id %q", c.AddOns[i].ID)
		}
		seen[c.AddOns[i].ID] = true
	}

	return nil
}

// Items returns tickets followed by add-ons in catalog order
func (c *Catalog) Items() []Item {
	items := make([]Item, 0, len(c.Tickets)+len(c.AddOns))
	for i := range c.Tickets {
		tt := &c.Tickets[i]
		items = append(items, Item{
			ID:          tt.ID,
			Kind:        KindTicket,
			Name:        tt.Name,
			UnitPrice:   tt.UnitPrice,
			MaxPerOrder: tt.MaxPerOrder,
			MinPerOrder: tt.MinPerOrder,
			Remaining:   tt.Remaining(),
		})
	}
	for i := range c.AddOns {
		a := &c.AddOns[i]
		items = append(items, Item{
			ID:          a.ID,
			Kind:        KindAddOn,
			Name:        a.Name,
			UnitPrice:   a.UnitPrice,
			MaxPerOrder: a.MaxPerOrder,
			Remaining:   a.Remaining(),
			Required:    a.Required,
		})
	}
	return items
}

// Lookup finds a ticket type or add-on by id
func (c *Catalog) Lookup(id string) (Item, bool) {
	for _, it := range c.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
