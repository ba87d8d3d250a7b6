package models

import (
	"strings"
	"testing"
)

func sampleCatalog() Catalog {
	return Catalog{
		Event: Event{ID: "jazz-night", Name: "Jazz Night"},
		Tickets: []TicketType{
			{ID: "ga", Name: "General Admission", UnitPrice: 2500, TotalQuantity: 100, MaxPerOrder: 8},
			{ID: "vip", Name: "VIP", UnitPrice: 9000, TotalQuantity: 10, Sold: 7, MaxPerOrder: 4, MinPerOrder: 2},
		},
		AddOns: []AddOn{
			{ID: "parking", Name: "Parking", UnitPrice: 1000, TotalQuantity: 20, MaxPerOrder: 1},
		},
	}
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr string
	}{
		{name: "valid catalog", mutate: func(c *Catalog) {}},
		{name: "missing event id", mutate: func(c *Catalog) { c.Event.ID = "" }, wantErr: "event id is required"},
		{
			name:    "duplicate id across tickets and add-ons",
			mutate:  func(c *Catalog) { c.AddOns[0].ID = "ga" },
			wantErr: `duplicate item id "ga"`,
		},
		{
			name:    "invalid ticket",
			mutate:  func(c *Catalog) { c.Tickets[1].UnitPrice = -1 },
			wantErr: "item price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleCatalog()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := sampleCatalog()

	vip, ok := c.Lookup("vip")
	if !ok {
		t.Fatal("Lookup(vip) not found")
	}
	if vip.Kind != KindTicket || vip.Remaining != 3 || vip.Cap() != 3 || vip.MinPerOrder != 2 {
		t.Errorf("Lookup(vip) = %+v", vip)
	}

	parking, ok := c.Lookup("parking")
	if !ok || parking.Kind != KindAddOn || parking.Cap() != 1 {
		t.Errorf("Lookup(parking) = %+v, %v", parking, ok)
	}

	if _, ok := c.Lookup("missing"); ok {
		t.Error("Lookup(missing) should not be found")
	}

	items := c.Items()
	if len(items) != 3 || items[0].ID != "ga" || items[2].ID != "parking" {
		t.Errorf("Items() order = %+v", items)
	}
}

func TestEvent_CurrencyCode(t *testing.T) {
	if got := (Event{}).CurrencyCode(); got != "USD" {
		t.Errorf("CurrencyCode() = %q, want USD", got)
	}
	if got := (Event{Currency: "KES"}).CurrencyCode(); got != "KES" {
		t.Errorf("CurrencyCode() = %q, want KES", got)
	}
}
