package models

import (
	"errors"
	"sort"
	"strings"
)

// Common errors used throughout the application
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInsufficientStock  = errors.New("insufficient ticket stock")
	// ErrOrderTotalExceeded means a selection prices above MaxOrderTotal
	ErrOrderTotalExceeded = errors.New("order total exceeds the limit")
)

// ValidationErrors maps a form field to its validation messages
type ValidationErrors map[string][]string

// Add records a message for a field
func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

// Has reports whether a field has any messages
func (v ValidationErrors) Has(field string) bool {
	return len(v[field]) > 0
}

// Error joins all messages in field order
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(v[field], ", "))
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput)
func (v ValidationErrors) Unwrap() error {
	return ErrInvalidInput
}

// OrNil returns nil when no field failed
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
