package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"ticket-checkout/internal/models"
)

// DeclineTestCard always declines in the mock gateway
const DeclineTestCard = "4000000000000002"

// NormalizeCardNumber strips spaces and dashes
func NormalizeCardNumber(number string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
}

// LastFour returns the final four digits of a card number
func LastFour(number string) string {
	n := NormalizeCardNumber(number)
	if len(n) < 4 {
		return n
	}
	return n[len(n)-4:]
}

// ValidateCard checks number, expiry and CVC against now. The returned error
// wraps both ErrInvalidCard and models.ValidationErrors.
func ValidateCard(card CardDetails, now time.Time) error {
	errs := make(models.ValidationErrors)

	if strings.TrimSpace(card.Holder) == "" {
		errs.Add("cardHolder", "cardholder name is required")
	}

	number := NormalizeCardNumber(card.Number)
	switch {
	case number == "":
		errs.Add("cardNumber", "card number is required")
	case len(number) < 12 || len(number) > 19 || !allDigits(number):
		errs.Add("cardNumber", "card number must be 12 to 19 digits")
	case !luhnValid(number):
		errs.Add("cardNumber", "card number is invalid")
	}

	if err := validateExpiry(card.Expiry, now); err != nil {
		errs.Add("expiry", err.Error())
	}

	cvc := strings.TrimSpace(card.CVC)
	if (len(cvc) != 3 && len(cvc) != 4) || !allDigits(cvc) {
		errs.Add("cvc", "security code must be 3 or 4 digits")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCard, errs)
}

func validateExpiry(expiry string, now time.Time) error {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return fmt.Errorf("expiry must be MM/YY")
	}

	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("expiry month is invalid")
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || year < 0 {
		return fmt.Errorf("expiry year is invalid")
	}
	if year < 100 {
		year += 2000
	}

	// cards are valid through the last day of the expiry month
	expiresAt := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.UTC().Before(expiresAt) {
		return fmt.Errorf("card has expired")
	}

	return nil
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
