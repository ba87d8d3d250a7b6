package checkout

import (
	"fmt"

	"ticket-checkout/internal/models"
)

// Step is a page of the checkout wizard
type Step int

const (
	Selecting Step = iota
	Detailing
	Paying
	Confirmed
)

func (s Step) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case Detailing:
		return "detailing"
	case Paying:
		return "paying"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Event moves the wizard forward
type Event int

const (
	TicketsChosen Event = iota
	DetailsSubmitted
	PaymentCaptured
)

func (e Event) String() string {
	switch e {
	case TicketsChosen:
		return "tickets-chosen"
	case DetailsSubmitted:
		return "details-submitted"
	case PaymentCaptured:
		return "payment-captured"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Snapshot is the checkout state accumulated in the session store
type Snapshot struct {
	Selection *models.SelectedTickets
	Customer  *models.CustomerInfo
	Order     *models.Order
}

func hasSelection(s Snapshot) bool {
	return s.Selection != nil && len(s.Selection.Tickets) > 0
}

func hasCustomer(s Snapshot) bool {
	return s.Customer != nil
}

func isFree(s Snapshot) bool {
	return hasSelection(s) && s.Selection.IsFreeOrder
}

func hasOrder(s Snapshot) bool {
	return s.Order != nil
}

// Transition is the only way the wizard advances. It never moves backwards.
func Transition(from Step, ev Event, snap Snapshot) (Step, error) {
	switch {
	case from == Selecting && ev == TicketsChosen && hasSelection(snap):
		return Detailing, nil

	case from == Detailing && ev == DetailsSubmitted && hasSelection(snap) && hasCustomer(snap):
		if isFree(snap) {
			return Confirmed, nil
		}
		return Paying, nil

	case from == Paying && ev == PaymentCaptured && hasOrder(snap) && !isFree(snap):
		return Confirmed, nil
	}

	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}

// Resolve returns the step a request for target actually lands on, given
// what the session holds. Missing prerequisites send the customer back to
// the earliest step they can use.
func Resolve(target Step, snap Snapshot) Step {
	switch target {
	case Detailing:
		if hasSelection(snap) {
			return Detailing
		}

	case Paying:
		if hasSelection(snap) && hasCustomer(snap) {
			if isFree(snap) {
				return Confirmed
			}
			return Paying
		}

	case Confirmed:
		if hasOrder(snap) {
			return Confirmed
		}
		if hasSelection(snap) && hasCustomer(snap) {
			if isFree(snap) {
				return Confirmed
			}
			return Paying
		}
	}

	return Selecting
}
