package registration

import (
	"fmt"
	"strings"
)

type Transition struct {
	From PaymentStatus
	To   PaymentStatus
	// Role is the only role allowed to trigger the transition.
	Role                 Role
	RequiresPaymentProof bool
}

// ReleasesSlot reports whether the transition gives the capacity slot back.
func (t Transition) ReleasesSlot() bool {
	return t.From.IsCounted() && !t.To.IsCounted()
}

var transitions = []Transition{
	{From: STATUS_PENDING, To: STATUS_PROCESSING, Role: ROLE_PARTICIPANT, RequiresPaymentProof: true},
	{From: STATUS_PENDING, To: STATUS_CANCELLED, Role: ROLE_PARTICIPANT},
	{From: STATUS_PROCESSING, To: STATUS_PAID, Role: ROLE_ORGANIZER},
	{From: STATUS_PROCESSING, To: STATUS_REJECTED, Role: ROLE_ORGANIZER},
	{From: STATUS_PAID, To: STATUS_REFUNDED, Role: ROLE_ORGANIZER},
}

func LookupTransition(from, to PaymentStatus) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// AllowedTargets lists the statuses role may move a registration in from to.
func AllowedTargets(from PaymentStatus, role Role) []PaymentStatus {
	var targets []PaymentStatus
	for _, t := range transitions {
		if t.From == from && t.Role == role {
			targets = append(targets, t.To)
		}
	}
	return targets
}

// CheckTransition decides whether role may move a registration from one status to another.
// It does not look at capacity: a transition never re-enters a counted status.
func CheckTransition(from, to PaymentStatus, role Role, paymentProofRef *string) (Transition, error) {
	t, ok := LookupTransition(from, to)
	if !ok {
		return Transition{}, NewInvalidStateTransitionError(from, to)
	}

	if t.Role != role {
		return Transition{}, NewForbiddenError(fmt.Sprintf("Only the %s can move a registration from %q to %q", t.Role, from, to))
	}

	if t.RequiresPaymentProof && (paymentProofRef == nil || strings.TrimSpace(*paymentProofRef) == "") {
		return Transition{}, NewValidationError("A payment proof reference is required")
	}

	return t, nil
}
