package models

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{6,19}$`)
)

// CustomerInfo is the contact data captured on the details page
type CustomerInfo struct {
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	CreateAccount  bool           `json:"createAccount"`
}

// Normalize trims whitespace and defaults the delivery method
func (c *CustomerInfo) Normalize() {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.DeliveryMethod = c.DeliveryMethod.OrDefault()
}

// FullName returns first and last name joined by a space
func (c CustomerInfo) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validate returns per-field messages, or nil when the contact info is usable
func (c *CustomerInfo) Validate() error {
	errs := make(ValidationErrors)

	validateCustomerName(errs, "firstName", "first name", c.FirstName)
	validateCustomerName(errs, "lastName", "last name", c.LastName)

	switch {
	case c.Email == "":
		errs.Add("email", "email is required")
	case len(c.Email) > 255:
		errs.Add("email", "email must be less than 255 characters")
	case !emailRegex.MatchString(c.Email):
		errs.Add("email", "email format is invalid")
	}

	if !c.DeliveryMethod.Valid() {
		errs.Add("deliveryMethod", "delivery method must be mobile or sms")
	}

	if c.Phone == "" {
		if c.DeliveryMethod == DeliverySMS {
			errs.Add("phone", "phone number is required for SMS delivery")
		}
	} else if !phoneRegex.MatchString(c.Phone) {
		errs.Add("phone", "phone number format is invalid")
	}

	return errs.OrNil()
}

func validateCustomerName(errs ValidationErrors, field, label, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, label+" is required")
		return
	}

	if len(value) > 100 {
		errs.Add(field, label+" must be less than 100 characters")
	}
}
