package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/slices"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName                = "github.com/Estebaan93/RunnConnectAPI/registration"
	defaultAdmissionAttempts  = 2
	MaxEventRegistrationsPage = 50
)

type Service struct {
	events        events.Repository
	registrations Repository
	profiles      participant.Provider

	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	maxAttempts int
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithMaxAttempts bounds how many times a write that lost an optimistic
// version check is re-read and retried. Values below 1 mean a single attempt.
func WithMaxAttempts(n int) ServiceOption {
	return func(s *Service) {
		s.maxAttempts = max(n, 1)
	}
}

func NewService(eventRepo events.Repository, registrationRepo Repository, profiles participant.Provider, opts ...ServiceOption) *Service {
	s := &Service{
		events:        eventRepo,
		registrations: registrationRepo,
		profiles:      profiles,
		logger:        slog.New(slog.DiscardHandler),
		tracer:        otel.Tracer(tracerName),
		now:           time.Now,
		maxAttempts:   defaultAdmissionAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateRequest struct {
	ParticipantID  uuid.UUID
	CategoryID     uuid.UUID
	WaiverAccepted bool
	ShirtSize      *string
}

// Admission is the result of a successful registration: the registration plus
// what the participant needs to pay for it.
type Admission struct {
	Registration Registration
	CategoryName string
	EventName    string
	Fee          *money.Money
	PaymentInfo  *string
}

func (s *Service) CreateRegistration(ctx context.Context, req CreateRequest) (Admission, error) {
	ctx, span := s.tracer.Start(ctx, "registration.CreateRegistration", trace.WithAttributes(
		attribute.String("participant.id", req.ParticipantID.String()),
		attribute.String("category.id", req.CategoryID.String()),
	))
	defer span.End()

	if !req.WaiverAccepted {
		return Admission{}, recordError(span, NewValidationError("The waiver must be accepted to register"))
	}

	var shirtSize *ShirtSize
	if req.ShirtSize != nil && strings.TrimSpace(*req.ShirtSize) != "" {
		size, err := ParseShirtSize(*req.ShirtSize)
		if err != nil {
			return Admission{}, recordError(span, err)
		}
		shirtSize = &size
	}

	for attempt := 1; ; attempt++ {
		span.SetAttributes(attribute.Int("registration.attempt", attempt))

		admission, err := s.admit(ctx, req, shirtSize)
		if err == nil {
			span.SetAttributes(attribute.String("registration.id", admission.Registration.ID.String()))
			return admission, nil
		}

		if !HasReason(err, REASON_VERSION_CONFLICT) || attempt >= s.maxAttempts {
			return Admission{}, recordError(span, err)
		}

		s.logger.WarnContext(ctx, "Admission lost a concurrent write, retrying",
			slog.Int("attempt", attempt),
			slog.String("category-id", req.CategoryID.String()),
			slog.String("participant-id", req.ParticipantID.String()),
		)
	}
}

func (s *Service) admit(ctx context.Context, req CreateRequest, shirtSize *ShirtSize) (Admission, error) {
	category, err := s.events.GetCategory(ctx, req.CategoryID)
	if err != nil {
		return Admission{}, fromEventsError(err, fmt.Sprintf("category %q", req.CategoryID))
	}

	event, err := s.events.GetEvent(ctx, category.EventID)
	if err != nil {
		return Admission{}, fromEventsError(err, fmt.Sprintf("event %q", category.EventID))
	}

	now := s.now()
	if !event.IsOpenForRegistration(now) {
		return Admission{}, NewEventNotOpenError(fmt.Sprintf("Event %q is %s and starts at %s", event.Name, event.State, event.StartTime.Format(time.RFC3339)))
	}

	profile, err := s.profiles.GetProfile(ctx, req.ParticipantID)
	if err != nil {
		return Admission{}, fromParticipantError(err, req.ParticipantID)
	}

	if err := ValidateEligibility(profile, category, now); err != nil {
		if inv, ok := s.profiles.(participant.Invalidator); ok {
			inv.Invalidate(req.ParticipantID)
		}
		return Admission{}, err
	}

	active, err := s.registrations.HasActiveRegistrationForEvent(ctx, event.ID, req.ParticipantID)
	if err != nil {
		return Admission{}, asRegistrationError(err, "Failed to check for existing registrations")
	}
	if active {
		return Admission{}, NewDuplicateRegistrationError(fmt.Sprintf("Participant %q already has an active registration for event %q", req.ParticipantID, event.ID), nil)
	}

	if err := Reserve(&category, &event); err != nil {
		return Admission{}, err
	}

	reg := Registration{
		ID:              uuid.New(),
		Version:         1,
		ParticipantID:   req.ParticipantID,
		ParticipantName: profile.FullName(),
		CategoryID:      category.ID,
		EventID:         event.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Status:          STATUS_PENDING,
		ShirtSize:       shirtSize,
		WaiverAccepted:  true,
	}

	if err := s.registrations.CreateRegistration(ctx, reg); err != nil {
		return Admission{}, asRegistrationError(err, "Failed to create registration")
	}

	s.logger.InfoContext(ctx, "Registration admitted",
		slog.String("registration-id", reg.ID.String()),
		slog.String("event-id", event.ID.String()),
		slog.String("category-id", category.ID.String()),
		slog.Int("category-counted", category.NumCounted),
		slog.Int("event-counted", event.NumCounted),
	)

	return Admission{
		Registration: reg,
		CategoryName: category.Name,
		EventName:    event.Name,
		Fee:          category.Fee,
		PaymentInfo:  event.PaymentInfo,
	}, nil
}

type TransitionRequest struct {
	RegistrationID  uuid.UUID
	Actor           Actor
	Target          PaymentStatus
	Reason          *string
	PaymentProofRef *string
}

func (s *Service) TransitionState(ctx context.Context, req TransitionRequest) (Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.TransitionState", trace.WithAttributes(
		attribute.String("registration.id", req.RegistrationID.String()),
		attribute.String("actor.role", string(req.Actor.Role)),
		attribute.String("registration.target_status", string(req.Target)),
	))
	defer span.End()

	for attempt := 1; ; attempt++ {
		reg, err := s.transition(ctx, req)
		if err == nil {
			return reg, nil
		}

		if !HasReason(err, REASON_VERSION_CONFLICT) || attempt >= s.maxAttempts {
			return Registration{}, recordError(span, err)
		}

		s.logger.WarnContext(ctx, "Transition lost a concurrent write, retrying",
			slog.Int("attempt", attempt),
			slog.String("registration-id", req.RegistrationID.String()),
		)
	}
}

func (s *Service) transition(ctx context.Context, req TransitionRequest) (Registration, error) {
	reg, err := s.registrations.GetRegistration(ctx, req.RegistrationID)
	if err != nil {
		return Registration{}, asRegistrationError(err, "Failed to fetch registration")
	}

	event, err := s.events.GetEvent(ctx, reg.EventID)
	if err != nil {
		return Registration{}, fromEventsError(err, fmt.Sprintf("event %q", reg.EventID))
	}

	if err := Authorize(req.Actor, reg, event); err != nil {
		return Registration{}, err
	}

	t, err := CheckTransition(reg.Status, req.Target, req.Actor.Role, req.PaymentProofRef)
	if err != nil {
		return Registration{}, err
	}

	from := reg.Status
	reg.Status = t.To
	reg.UpdatedAt = s.now()
	reg.StatusReason = req.Reason
	if t.RequiresPaymentProof {
		proof := strings.TrimSpace(*req.PaymentProofRef)
		reg.PaymentProofRef = &proof
	}
	reg.Version++

	if err := s.registrations.UpdateRegistration(ctx, reg, t.ReleasesSlot()); err != nil {
		return Registration{}, asRegistrationError(err, "Failed to update registration")
	}

	s.logger.InfoContext(ctx, "Registration status changed",
		slog.String("registration-id", reg.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(reg.Status)),
		slog.String("actor-role", string(req.Actor.Role)),
		slog.Bool("slot-released", t.ReleasesSlot()),
	)

	return reg, nil
}

// CountByStatus returns the number of registrations in each status for an event.
// Every status is present in the result, with zero when there are none.
func (s *Service) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[PaymentStatus]int, error) {
	ctx, span := s.tracer.Start(ctx, "registration.CountByStatus", trace.WithAttributes(
		attribute.String("event.id", eventID.String()),
	))
	defer span.End()

	counts, err := s.registrations.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, recordError(span, asRegistrationError(err, "Failed to count registrations"))
	}

	result := make(map[PaymentStatus]int, len(AllStatuses))
	for _, status := range AllStatuses {
		result[status] = counts[status]
	}
	return result, nil
}

func (s *Service) GetRegistration(ctx context.Context, actor Actor, id uuid.UUID) (Registration, error) {
	reg, err := s.registrations.GetRegistration(ctx, id)
	if err != nil {
		return Registration{}, asRegistrationError(err, "Failed to fetch registration")
	}

	event, err := s.events.GetEvent(ctx, reg.EventID)
	if err != nil {
		return Registration{}, fromEventsError(err, fmt.Sprintf("event %q", reg.EventID))
	}

	if err := Authorize(actor, reg, event); err != nil {
		return Registration{}, err
	}
	return reg, nil
}

// ListParticipantRegistrations returns the actor's own registrations, newest first.
func (s *Service) ListParticipantRegistrations(ctx context.Context, actor Actor, activeOnly bool) ([]Registration, error) {
	regs, err := s.registrations.GetRegistrationsForParticipant(ctx, actor.ID)
	if err != nil {
		return nil, asRegistrationError(err, "Failed to fetch registrations")
	}

	if activeOnly {
		regs = slices.Filter(regs, func(r Registration) bool { return r.Status.IsActive() })
	}
	return regs, nil
}

func (s *Service) ListEventRegistrations(ctx context.Context, actor Actor, eventID uuid.UUID, filter EventRegistrationsFilter, limit int32, cursor *string) (GetAllRegistrationsResponse, error) {
	if limit < 1 || limit > MaxEventRegistrationsPage {
		return GetAllRegistrationsResponse{}, NewValidationError(fmt.Sprintf("Limit must be between 1 and %d", MaxEventRegistrationsPage))
	}

	if _, err := s.authorizedEvent(ctx, actor, eventID); err != nil {
		return GetAllRegistrationsResponse{}, err
	}

	resp, err := s.registrations.GetRegistrationsForEvent(ctx, eventID, filter, limit, cursor)
	if err != nil {
		return GetAllRegistrationsResponse{}, asRegistrationError(err, "Failed to fetch registrations")
	}
	return resp, nil
}

func (s *Service) CategoryOccupancy(ctx context.Context, actor Actor, eventID uuid.UUID) ([]Occupancy, error) {
	if _, err := s.authorizedEvent(ctx, actor, eventID); err != nil {
		return nil, err
	}

	categories, err := s.events.GetCategoriesForEvent(ctx, eventID)
	if err != nil {
		return nil, fromEventsError(err, fmt.Sprintf("categories of event %q", eventID))
	}

	return slices.Map(categories, NewOccupancy), nil
}

// CounterDrift is a stored slot counter that disagrees with the registrations behind it.
type CounterDrift struct {
	EventID    uuid.UUID
	CategoryID *uuid.UUID
	Stored     int
	Actual     int
}

// AuditCounters recounts the counted registrations of an event and its categories
// and reports every counter that does not match.
func (s *Service) AuditCounters(ctx context.Context, eventID uuid.UUID) ([]CounterDrift, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fromEventsError(err, fmt.Sprintf("event %q", eventID))
	}

	categories, err := s.events.GetCategoriesForEvent(ctx, eventID)
	if err != nil {
		return nil, fromEventsError(err, fmt.Sprintf("categories of event %q", eventID))
	}

	var drifts []CounterDrift

	actual, err := s.registrations.CountCountedRegistrations(ctx, eventID, nil)
	if err != nil {
		return nil, asRegistrationError(err, "Failed to count registrations")
	}
	if actual != event.NumCounted {
		drifts = append(drifts, CounterDrift{EventID: eventID, Stored: event.NumCounted, Actual: actual})
	}

	for _, category := range categories {
		actual, err := s.registrations.CountCountedRegistrations(ctx, eventID, &category.ID)
		if err != nil {
			return nil, asRegistrationError(err, "Failed to count registrations")
		}
		if actual != category.NumCounted {
			drifts = append(drifts, CounterDrift{EventID: eventID, CategoryID: &category.ID, Stored: category.NumCounted, Actual: actual})
		}
	}

	if len(drifts) > 0 {
		s.logger.WarnContext(ctx, "Slot counters drifted", slog.String("event-id", eventID.String()), slog.Int("drifts", len(drifts)))
	}
	return drifts, nil
}

func (s *Service) authorizedEvent(ctx context.Context, actor Actor, eventID uuid.UUID) (events.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return events.Event{}, fromEventsError(err, fmt.Sprintf("event %q", eventID))
	}
	if err := AuthorizeOrganizer(actor, event); err != nil {
		return events.Event{}, err
	}
	return event, nil
}

func recordError(span trace.Span, err error) error {
	var regErr *Error
	if errors.As(err, &regErr) && regErr.IsBusiness() {
		span.SetAttributes(attribute.String("registration.rejected", string(regErr.Reason)))
		return err
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func fromEventsError(err error, what string) error {
	var eventErr *events.Error
	if errors.As(err, &eventErr) {
		switch eventErr.Reason {
		case events.REASON_EVENT_DOES_NOT_EXIST, events.REASON_CATEGORY_DOES_NOT_EXIST:
			return NewNotFoundError(fmt.Sprintf("Could not find %s", what), err)
		case events.REASON_TIMEOUT:
			return newRegistrationError(REASON_TIMEOUT, fmt.Sprintf("Timed out fetching %s", what), err)
		}
	}
	return NewFailedToFetchError(fmt.Sprintf("Failed to fetch %s", what), err)
}

func fromParticipantError(err error, participantID uuid.UUID) error {
	var participantErr *participant.Error
	if errors.As(err, &participantErr) {
		switch participantErr.Reason {
		case participant.REASON_PROFILE_DOES_NOT_EXIST:
			return NewProfileIncompleteError(nil, err)
		case participant.REASON_TIMEOUT:
			return newRegistrationError(REASON_TIMEOUT, fmt.Sprintf("Timed out fetching profile of %q", participantID), err)
		}
	}
	return NewFailedToFetchError(fmt.Sprintf("Failed to fetch profile of %q", participantID), err)
}

func asRegistrationError(err error, message string) error {
	var regErr *Error
	if errors.As(err, &regErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newRegistrationError(REASON_TIMEOUT, message, err)
	}
	return NewFailedToWriteError(message, err)
}
