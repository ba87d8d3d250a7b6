package pricing

import (
	"ticket-checkout/internal/models"
)

const (
	// MarketplaceFeePercent is charged on the subtotal of every paid order
	MarketplaceFeePercent = 10
	// PromoDiscountPercent is taken off the subtotal when a promo code is accepted
	PromoDiscountPercent = 10
	// SMSSurcharge is added when tickets are delivered by text message
	SMSSurcharge models.Money = 100
)

// Input is everything the calculator looks at
type Input struct {
	Lines        []models.SelectionLine
	PromoApplied bool
	Delivery     models.DeliveryMethod
}

// Calculate prices a selection. It is a pure function of its input.
func Calculate(in Input) models.PricingResult {
	var result models.PricingResult

	ticketLines := 0
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			continue
		}
		if line.Kind != models.KindAddOn {
			ticketLines++
		}
		result.Subtotal += line.Amount()
	}

	if result.Subtotal == 0 {
		result.IsFree = ticketLines > 0
		return result
	}

	result.MarketplaceFee = result.Subtotal.Percent(MarketplaceFeePercent)

	if in.PromoApplied {
		result.PromoDiscount = result.Subtotal.Percent(PromoDiscountPercent)
	}

	if in.Delivery == models.DeliverySMS {
		result.DeliverySurcharge = SMSSurcharge
	}

	result.Total = result.Subtotal + result.MarketplaceFee + result.DeliverySurcharge - result.PromoDiscount
	if result.Total < 0 {
		result.Total = 0
	}

	return result
}
