package registration

import (
	"context"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/google/uuid"
)

type mockEventRepository struct {
	events.Repository
	GetEventFunc              func(ctx context.Context, id uuid.UUID) (events.Event, error)
	GetCategoryFunc           func(ctx context.Context, id uuid.UUID) (events.Category, error)
	GetCategoriesForEventFunc func(ctx context.Context, eventID uuid.UUID) ([]events.Category, error)
}

func (m *mockEventRepository) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	return m.GetEventFunc(ctx, id)
}

func (m *mockEventRepository) GetCategory(ctx context.Context, id uuid.UUID) (events.Category, error) {
	return m.GetCategoryFunc(ctx, id)
}

func (m *mockEventRepository) GetCategoriesForEvent(ctx context.Context, eventID uuid.UUID) ([]events.Category, error) {
	return m.GetCategoriesForEventFunc(ctx, eventID)
}

var _ Repository = &mockRegistrationRepository{}

type mockRegistrationRepository struct {
	CreateRegistrationFunc             func(ctx context.Context, reg Registration) error
	UpdateRegistrationFunc             func(ctx context.Context, reg Registration, releaseSlot bool) error
	GetRegistrationFunc                func(ctx context.Context, id uuid.UUID) (Registration, error)
	HasActiveRegistrationForEventFunc  func(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID) (bool, error)
	GetRegistrationsForParticipantFunc func(ctx context.Context, participantID uuid.UUID) ([]Registration, error)
	GetRegistrationsForEventFunc       func(ctx context.Context, eventID uuid.UUID, filter EventRegistrationsFilter, limit int32, cursor *string) (GetAllRegistrationsResponse, error)
	CountByStatusFunc                  func(ctx context.Context, eventID uuid.UUID) (map[PaymentStatus]int, error)
	CountCountedRegistrationsFunc      func(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) (int, error)
}

func (m *mockRegistrationRepository) CreateRegistration(ctx context.Context, reg Registration) error {
	return m.CreateRegistrationFunc(ctx, reg)
}

func (m *mockRegistrationRepository) UpdateRegistration(ctx context.Context, reg Registration, releaseSlot bool) error {
	return m.UpdateRegistrationFunc(ctx, reg, releaseSlot)
}

func (m *mockRegistrationRepository) GetRegistration(ctx context.Context, id uuid.UUID) (Registration, error) {
	return m.GetRegistrationFunc(ctx, id)
}

func (m *mockRegistrationRepository) HasActiveRegistrationForEvent(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID) (bool, error) {
	if m.HasActiveRegistrationForEventFunc != nil {
		return m.HasActiveRegistrationForEventFunc(ctx, eventID, participantID)
	}
	return false, nil
}

func (m *mockRegistrationRepository) GetRegistrationsForParticipant(ctx context.Context, participantID uuid.UUID) ([]Registration, error) {
	return m.GetRegistrationsForParticipantFunc(ctx, participantID)
}

func (m *mockRegistrationRepository) GetRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, filter EventRegistrationsFilter, limit int32, cursor *string) (GetAllRegistrationsResponse, error) {
	return m.GetRegistrationsForEventFunc(ctx, eventID, filter, limit, cursor)
}

func (m *mockRegistrationRepository) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[PaymentStatus]int, error) {
	return m.CountByStatusFunc(ctx, eventID)
}

func (m *mockRegistrationRepository) CountCountedRegistrations(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) (int, error) {
	return m.CountCountedRegistrationsFunc(ctx, eventID, categoryID)
}

type mockProfileProvider struct {
	GetProfileFunc func(ctx context.Context, participantID uuid.UUID) (participant.Profile, error)
}

func (m *mockProfileProvider) GetProfile(ctx context.Context, participantID uuid.UUID) (participant.Profile, error) {
	return m.GetProfileFunc(ctx, participantID)
}
