package checkout

import "errors"

var (
	// ErrMissingSessionState means a page was reached without the state it needs.
	// Handlers answer it with a redirect, never an error body.
	ErrMissingSessionState = errors.New("missing session state")
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrEmptySelection      = errors.New("select at least one ticket")
	ErrRequiredAddOn       = errors.New("required add-on not selected")
	// ErrOrderNumberExhausted means every generated order number collided with an archived order
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)
