package registration

import (
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/google/uuid"
)

type Role string

const (
	ROLE_PARTICIPANT Role = "participant"
	ROLE_ORGANIZER   Role = "organizer"
)

func (r Role) Valid() bool {
	return r == ROLE_PARTICIPANT || r == ROLE_ORGANIZER
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Authorize checks that actor may act on reg: a participant must own it and an
// organizer must own its event. Which role may perform a given transition is
// decided by CheckTransition.
func Authorize(actor Actor, reg Registration, event events.Event) error {
	switch actor.Role {
	case ROLE_PARTICIPANT:
		if reg.ParticipantID != actor.ID {
			return NewForbiddenError(fmt.Sprintf("Registration %q does not belong to participant %q", reg.ID, actor.ID))
		}
		return nil
	case ROLE_ORGANIZER:
		return AuthorizeOrganizer(actor, event)
	default:
		return NewForbiddenError(fmt.Sprintf("Unknown role %q", actor.Role))
	}
}

func AuthorizeOrganizer(actor Actor, event events.Event) error {
	if actor.Role != ROLE_ORGANIZER || event.OrganizerID != actor.ID {
		return NewForbiddenError(fmt.Sprintf("Event %q is not organized by %q", event.ID, actor.ID))
	}
	return nil
}
