package api

import (
	"context"
	"log/slog"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
)

var noopLogger = slog.New(slog.DiscardHandler)

var _ RegistrationService = &mockRegistrationService{}

type mockRegistrationService struct {
	CreateRegistrationFunc           func(ctx context.Context, req registration.CreateRequest) (registration.Admission, error)
	TransitionStateFunc              func(ctx context.Context, req registration.TransitionRequest) (registration.Registration, error)
	CountByStatusFunc                func(ctx context.Context, eventID uuid.UUID) (map[registration.PaymentStatus]int, error)
	GetRegistrationFunc              func(ctx context.Context, actor registration.Actor, id uuid.UUID) (registration.Registration, error)
	ListParticipantRegistrationsFunc func(ctx context.Context, actor registration.Actor, activeOnly bool) ([]registration.Registration, error)
	ListEventRegistrationsFunc       func(ctx context.Context, actor registration.Actor, eventID uuid.UUID, filter registration.EventRegistrationsFilter, limit int32, cursor *string) (registration.GetAllRegistrationsResponse, error)
	CategoryOccupancyFunc            func(ctx context.Context, actor registration.Actor, eventID uuid.UUID) ([]registration.Occupancy, error)
}

func (m *mockRegistrationService) CreateRegistration(ctx context.Context, req registration.CreateRequest) (registration.Admission, error) {
	if m.CreateRegistrationFunc != nil {
		return m.CreateRegistrationFunc(ctx, req)
	}
	return registration.Admission{}, nil
}

func (m *mockRegistrationService) TransitionState(ctx context.Context, req registration.TransitionRequest) (registration.Registration, error) {
	if m.TransitionStateFunc != nil {
		return m.TransitionStateFunc(ctx, req)
	}
	return registration.Registration{}, nil
}

func (m *mockRegistrationService) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[registration.PaymentStatus]int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, eventID)
	}
	return map[registration.PaymentStatus]int{}, nil
}

func (m *mockRegistrationService) GetRegistration(ctx context.Context, actor registration.Actor, id uuid.UUID) (registration.Registration, error) {
	if m.GetRegistrationFunc != nil {
		return m.GetRegistrationFunc(ctx, actor, id)
	}
	return registration.Registration{}, nil
}

func (m *mockRegistrationService) ListParticipantRegistrations(ctx context.Context, actor registration.Actor, activeOnly bool) ([]registration.Registration, error) {
	if m.ListParticipantRegistrationsFunc != nil {
		return m.ListParticipantRegistrationsFunc(ctx, actor, activeOnly)
	}
	return nil, nil
}

func (m *mockRegistrationService) ListEventRegistrations(ctx context.Context, actor registration.Actor, eventID uuid.UUID, filter registration.EventRegistrationsFilter, limit int32, cursor *string) (registration.GetAllRegistrationsResponse, error) {
	if m.ListEventRegistrationsFunc != nil {
		return m.ListEventRegistrationsFunc(ctx, actor, eventID, filter, limit, cursor)
	}
	return registration.GetAllRegistrationsResponse{}, nil
}

func (m *mockRegistrationService) CategoryOccupancy(ctx context.Context, actor registration.Actor, eventID uuid.UUID) ([]registration.Occupancy, error) {
	if m.CategoryOccupancyFunc != nil {
		return m.CategoryOccupancyFunc(ctx, actor, eventID)
	}
	return nil, nil
}
