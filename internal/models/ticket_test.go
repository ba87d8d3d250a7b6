package models

import (
	"encoding/json"
	"testing"
)

func TestTicketType_Validate(t *testing.T) {
	tests := []struct {
		name       string
		ticketType TicketType
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "valid ticket type",
			ticketType: TicketType{ID: "ga", Name: "General Admission", UnitPrice: 2500, TotalQuantity: 100, MaxPerOrder: 8},
			wantErr:    false,
		},
		{
			name:       "valid free ticket",
			ticketType: TicketType{ID: "rsvp", Name: "RSVP", UnitPrice: 0, TotalQuantity: 50, MaxPerOrder: 1},
			wantErr:    false,
		},
		{
			name:       "invalid id - empty",
			ticketType: TicketType{Name: "General Admission", UnitPrice: 2500, TotalQuantity: 100, MaxPerOrder: 8},
			wantErr:    true,
			errMsg:     "item id is required",
		},
		{
			name:       "invalid name - empty",
			ticketType: TicketType{ID: "ga", UnitPrice: 2500, TotalQuantity: 100, MaxPerOrder: 8},
			wantErr:    true,
			errMsg:     "item name is required",
		},
		{
			name:       "invalid price - negative",
			ticketType: TicketType{ID: "ga", Name: "General Admission", UnitPrice: -100, TotalQuantity: 100, MaxPerOrder: 8},
			wantErr:    true,
			errMsg:     "item price cannot be negative",
		},
		{
			name:       "invalid max per order",
			ticketType: TicketType{ID: "ga", Name: "General Admission", UnitPrice: 2500, TotalQuantity: 100},
			wantErr:    true,
			errMsg:     "maximum per order must be at least 1",
		},
		{
			name:       "min exceeds max",
			ticketType: TicketType{ID: "ga", Name: "General Admission", UnitPrice: 2500, TotalQuantity: 100, MaxPerOrder: 2, MinPerOrder: 4},
			wantErr:    true,
			errMsg:     "minimum per order cannot exceed maximum per order",
		},
		{
			name:       "full line exceeds the order limit",
			ticketType: TicketType{ID: "box", Name: "Private Box", UnitPrice: 1000000, TotalQuantity: 40, MaxPerOrder: 20},
			wantErr:    true,
			errMsg:     "maximum per order at this price exceeds the order total limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ticketType.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TicketType.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err.Error() != tt.errMsg {
				t.Errorf("TicketType.Validate() error = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestTicketType_Remaining(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		sold     int
		expected int
	}{
		{"untouched inventory", 100, 0, 100},
		{"partially sold", 100, 40, 60},
		{"sold out", 100, 100, 0},
		{"oversold clamps to zero", 10, 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt2 := TicketType{TotalQuantity: tt.total, Sold: tt.sold}
			if got := tt2.Remaining(); got != tt.expected {
				t.Errorf("Remaining() = %d, want %d", got, tt.expected)
			}
			item := Item{Remaining: tt2.Remaining(), MaxPerOrder: 8}
			if item.IsSoldOut() != (tt.expected == 0) {
				t.Errorf("IsSoldOut() = %v", item.IsSoldOut())
			}
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	var tt TicketType
	if err := json.Unmarshal([]byte(`{"id":"ga","name":"GA","price":25.005,"quantity":10,"maxPerOrder":8}`), &tt); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	// half away from zero
	if tt.UnitPrice != 2501 {
		t.Errorf("UnitPrice = %d, want 2501", tt.UnitPrice)
	}

	var fromString TicketType
	if err := json.Unmarshal([]byte(`{"price":"19.99"}`), &fromString); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if fromString.UnitPrice != 1999 {
		t.Errorf("UnitPrice = %d, want 1999", fromString.UnitPrice)
	}

	out, err := json.Marshal(PricingResult{Subtotal: 5000, MarketplaceFee: 500, Total: 5500})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"subtotal":50.00,"marketplaceFee":5.00,"deliverySurcharge":0.00,"promoDiscount":0.00,"total":55.00,"isFreeOrder":false}`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestMoney_Percent(t *testing.T) {
	tests := []struct {
		amount   Money
		pct      int64
		expected Money
	}{
		{5000, 10, 500},
		{1005, 10, 101},
		{1004, 10, 100},
		{0, 10, 0},
		{1, 10, 0},
		{5, 10, 1},
	}

	for _, tt := range tests {
		if got := tt.amount.Percent(tt.pct); got != tt.expected {
			t.Errorf("Money(%d).Percent(%d) = %d, want %d", tt.amount, tt.pct, got, tt.expected)
		}
	}
}
