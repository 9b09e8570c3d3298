package registration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID            uuid.UUID
	Version       int
	ParticipantID uuid.UUID
	// ParticipantName is the runner's name as it was when they registered.
	ParticipantName string
	CategoryID      uuid.UUID
	EventID         uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Status          PaymentStatus
	ShirtSize       *ShirtSize
	// WaiverAccepted is always true for a stored registration.
	WaiverAccepted  bool
	PaymentProofRef *string
	// StatusReason is the optional note left with the last transition.
	StatusReason *string
}

type EventRegistrationsFilter struct {
	CategoryID *uuid.UUID
	Status     *PaymentStatus
	// ParticipantName matches a case-insensitive substring of the runner's name.
	ParticipantName *string
}

func (f EventRegistrationsFilter) Matches(reg Registration) bool {
	if f.CategoryID != nil && reg.CategoryID != *f.CategoryID {
		return false
	}
	if f.Status != nil && reg.Status != *f.Status {
		return false
	}
	if f.ParticipantName != nil && !strings.Contains(NameSearchKey(reg.ParticipantName), NameSearchKey(*f.ParticipantName)) {
		return false
	}
	return true
}

// NameSearchKey folds a name for substring search.
func NameSearchKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

type GetAllRegistrationsResponse struct {
	Data        []Registration
	Cursor      *string
	HasNextPage bool
}

// Repository persists registrations. Registration writes are conditioned on versions:
// a new entity must not exist and have Version 1, an existing one must be stored at
// Version-1. Slot counters are not version-checked. They are incremented in place
// under a capacity condition and bump the aggregate versions as they go.
type Repository interface {
	// CreateRegistration atomically inserts reg and counts it in its category and event.
	// A category or event with no slots left fails with REASON_CATEGORY_FULL or
	// REASON_EVENT_FULL, checked in that order. An active registration of the same
	// participant in the event fails with REASON_DUPLICATE_REGISTRATION.
	CreateRegistration(ctx context.Context, reg Registration) error
	// UpdateRegistration writes reg and, when releaseSlot is set, uncounts it from its
	// category and event in the same transaction.
	UpdateRegistration(ctx context.Context, reg Registration, releaseSlot bool) error
	GetRegistration(ctx context.Context, id uuid.UUID) (Registration, error)
	HasActiveRegistrationForEvent(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID) (bool, error)
	GetRegistrationsForParticipant(ctx context.Context, participantID uuid.UUID) ([]Registration, error)
	// GetRegistrationsForEvent pages newest first.
	GetRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, filter EventRegistrationsFilter, limit int32, cursor *string) (GetAllRegistrationsResponse, error)
	CountByStatus(ctx context.Context, eventID uuid.UUID) (map[PaymentStatus]int, error)
	// CountCountedRegistrations recounts slot-holding registrations, optionally for one category.
	CountCountedRegistrations(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) (int, error)
}
