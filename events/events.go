package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	STATE_DRAFT     State = "draft"
	STATE_PUBLISHED State = "published"
	STATE_CANCELLED State = "cancelled"
	STATE_FINISHED  State = "finished"
)

func (s State) Valid() bool {
	switch s {
	case STATE_DRAFT, STATE_PUBLISHED, STATE_CANCELLED, STATE_FINISHED:
		return true
	}
	return false
}

type Event struct {
	ID          uuid.UUID
	Version     int
	OrganizerID uuid.UUID
	Name        string
	Location    string
	StartTime   time.Time
	State       State
	// Capacity is nil when the event has no overall limit.
	Capacity *int
	// NumCounted is the number of registrations holding a slot across all categories.
	NumCounted int
	// PaymentInfo is shown to a participant once admitted (bank alias, account, ...).
	PaymentInfo *string
}

// IsOpenForRegistration reports whether new registrations may be admitted at now.
func (e Event) IsOpenForRegistration(now time.Time) bool {
	return e.State == STATE_PUBLISHED && e.StartTime.After(now)
}

type Range struct {
	Min int
	Max int
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

type Repository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	CreateEvent(ctx context.Context, event Event) error
	GetCategory(ctx context.Context, id uuid.UUID) (Category, error)
	GetCategoriesForEvent(ctx context.Context, eventID uuid.UUID) ([]Category, error)
	CreateCategory(ctx context.Context, category Category) error
	UpdateCategory(ctx context.Context, category Category) error
}

func ValidateNewEvent(event Event) error {
	if strings.TrimSpace(event.Name) == "" {
		return NewInvalidEventError("Event name is required")
	}
	if !event.State.Valid() {
		return NewInvalidEventError(fmt.Sprintf("Unknown event state %q", event.State))
	}
	if event.Capacity != nil && *event.Capacity < 1 {
		return NewInvalidEventError("Event capacity must be at least 1")
	}
	if event.NumCounted != 0 {
		return NewInvalidEventError("New events cannot have registrations")
	}
	return nil
}

func CreateEvent(ctx context.Context, event Event, repo Repository) (Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.State == "" {
		event.State = STATE_DRAFT
	}
	event.Version = 1

	if err := ValidateNewEvent(event); err != nil {
		return Event{}, err
	}

	if err := repo.CreateEvent(ctx, event); err != nil {
		return Event{}, err
	}
	return event, nil
}
