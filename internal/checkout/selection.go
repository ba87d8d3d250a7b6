package checkout

import (
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/pricing"
)

// Selection is the mutable ticket and add-on choice for one event.
// Every mutation reprices synchronously, so Pricing never returns a stale result.
type Selection struct {
	catalog      *models.Catalog
	quantities   map[string]int
	promoApplied bool
	delivery     models.DeliveryMethod
	pricing      models.PricingResult
}

// NewSelection starts an empty selection over a catalog
func NewSelection(catalog *models.Catalog) *Selection {
	s := &Selection{
		catalog:    catalog,
		quantities: make(map[string]int),
		delivery:   models.DeliveryMobile,
	}
	s.recompute()
	return s
}

// RestoreSelection rebuilds a selection from a stored snapshot, re-clamping
// quantities against the current catalog.
func RestoreSelection(catalog *models.Catalog, snap *models.SelectedTickets) *Selection {
	s := NewSelection(catalog)
	if snap == nil {
		return s
	}
	for _, line := range snap.Lines() {
		s.quantities[line.ItemID] = s.clamp(line.ItemID, line.Quantity, 0)
	}
	s.promoApplied = snap.PromoApplied
	s.recompute()
	return s
}

// Catalog returns the catalog the selection is bound to
func (s *Selection) Catalog() *models.Catalog {
	return s.catalog
}

// Quantity returns the chosen quantity of an item
func (s *Selection) Quantity(itemID string) int {
	return s.quantities[itemID]
}

// SetQuantity clamps n into [0, cap] and stores it. Unknown items are ignored.
// It returns the stored quantity.
func (s *Selection) SetQuantity(itemID string, n int) int {
	if _, ok := s.catalog.Lookup(itemID); !ok {
		return 0
	}

	q := s.clamp(itemID, n, s.quantities[itemID])
	if q == 0 {
		delete(s.quantities, itemID)
	} else {
		s.quantities[itemID] = q
	}
	s.recompute()
	return q
}

// Increment adds one of an item
func (s *Selection) Increment(itemID string) int {
	return s.SetQuantity(itemID, s.quantities[itemID]+1)
}

// Decrement removes one of an item
func (s *Selection) Decrement(itemID string) int {
	return s.SetQuantity(itemID, s.quantities[itemID]-1)
}

// clamp bounds n by the item cap and applies the per-order minimum: a value
// between zero and the minimum snaps up when growing and to zero when shrinking.
func (s *Selection) clamp(itemID string, n, current int) int {
	item, ok := s.catalog.Lookup(itemID)
	if !ok {
		return 0
	}

	limit := item.Cap()
	if n < 0 {
		n = 0
	}
	if n > limit {
		n = limit
	}

	if item.MinPerOrder > 0 && n > 0 && n < item.MinPerOrder {
		if n > current && item.MinPerOrder <= limit {
			n = item.MinPerOrder
		} else {
			n = 0
		}
	}

	return n
}

// ApplyPromo accepts the marketplace promo code. Applying it again has no further effect.
func (s *Selection) ApplyPromo(code string) error {
	if err := pricing.CheckPromo(code); err != nil {
		return err
	}
	s.promoApplied = true
	s.recompute()
	return nil
}

// RemovePromo drops an applied promo code
func (s *Selection) RemovePromo() {
	s.promoApplied = false
	s.recompute()
}

// PromoApplied reports whether the promo discount is active
func (s *Selection) PromoApplied() bool {
	return s.promoApplied
}

// SetDeliveryMethod changes how tickets are delivered
func (s *Selection) SetDeliveryMethod(m models.DeliveryMethod) {
	if !m.Valid() {
		m = models.DeliveryMobile
	}
	s.delivery = m
	s.recompute()
}

// DeliveryMethod returns the current delivery method
func (s *Selection) DeliveryMethod() models.DeliveryMethod {
	return s.delivery
}

// Lines returns chosen items in catalog order, tickets first
func (s *Selection) Lines() []models.SelectionLine {
	var lines []models.SelectionLine
	for _, item := range s.catalog.Items() {
		q := s.quantities[item.ID]
		if q <= 0 {
			continue
		}
		lines = append(lines, models.SelectionLine{
			ItemID:    item.ID,
			Kind:      item.Kind,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  q,
		})
	}
	return lines
}

// HasTickets reports whether at least one ticket (not add-on) is chosen
func (s *Selection) HasTickets() bool {
	for _, line := range s.Lines() {
		if line.Kind == models.KindTicket {
			return true
		}
	}
	return false
}

// MissingRequiredAddOns lists required add-ons that are not chosen
func (s *Selection) MissingRequiredAddOns() []string {
	var missing []string
	for _, item := range s.catalog.Items() {
		if item.Required && s.quantities[item.ID] < 1 {
			missing = append(missing, item.ID)
		}
	}
	return missing
}

// RequiredAddOnsSatisfied reports whether every required add-on is chosen
func (s *Selection) RequiredAddOnsSatisfied() bool {
	return len(s.MissingRequiredAddOns()) == 0
}

// Pricing returns the result of the last recompute
func (s *Selection) Pricing() models.PricingResult {
	return s.pricing
}

func (s *Selection) recompute() {
	s.pricing = pricing.Calculate(pricing.Input{
		Lines:        s.Lines(),
		PromoApplied: s.promoApplied,
		Delivery:     s.delivery,
	})
}

// Snapshot freezes the selection into the form stored between pages
func (s *Selection) Snapshot() *models.SelectedTickets {
	snap := &models.SelectedTickets{
		Event:          s.catalog.Event,
		Tickets:        []models.SelectionLine{},
		AddOns:         []models.SelectionLine{},
		PromoApplied:   s.promoApplied,
		Subtotal:       s.pricing.Subtotal,
		MarketplaceFee: s.pricing.MarketplaceFee,
		PromoDiscount:  s.pricing.PromoDiscount,
		Total:          s.pricing.Total,
		IsFreeOrder:    s.pricing.IsFree,
	}
	for _, line := range s.Lines() {
		if line.Kind == models.KindAddOn {
			snap.AddOns = append(snap.AddOns, line)
		} else {
			snap.Tickets = append(snap.Tickets, line)
		}
	}
	return snap
}
