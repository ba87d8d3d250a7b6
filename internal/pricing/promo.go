package pricing

import (
	"errors"
	"strings"
)

// PromoCode is the only code the marketplace accepts
const PromoCode = "JAZZ10"

// ErrInvalidPromoCode is returned for any code other than PromoCode
var ErrInvalidPromoCode = errors.New("invalid promo code")

// MatchPromo compares a customer-entered code case-insensitively
func MatchPromo(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), PromoCode)
}

// CheckPromo returns ErrInvalidPromoCode unless code matches
func CheckPromo(code string) error {
	if !MatchPromo(code) {
		return ErrInvalidPromoCode
	}
	return nil
}
