package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
)

func (s *Store) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registrations[reg.ID]; ok || reg.Version != 1 {
		return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q already exists", reg.ID), nil)
	}
	if s.hasActiveRegistration(reg.EventID, reg.ParticipantID) {
		return registration.NewDuplicateRegistrationError(fmt.Sprintf("Participant %q already has an active registration for event %q", reg.ParticipantID, reg.EventID), nil)
	}

	category, ok := s.categories[reg.CategoryID]
	if !ok {
		return registration.NewNotFoundError(fmt.Sprintf("Category with ID %q not found", reg.CategoryID), nil)
	}
	event, ok := s.events[reg.EventID]
	if !ok {
		return registration.NewNotFoundError(fmt.Sprintf("Event with ID %q not found", reg.EventID), nil)
	}
	if err := registration.Reserve(&category, &event); err != nil {
		return err
	}

	s.registrations[reg.ID] = reg
	s.categories[category.ID] = category
	s.events[event.ID] = event
	return nil
}

func (s *Store) UpdateRegistration(ctx context.Context, reg registration.Registration, releaseSlot bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.registrations[reg.ID]
	if !ok {
		return registration.NewNotFoundError(fmt.Sprintf("Registration with ID %q not found", reg.ID), nil)
	}
	if stored.Version != reg.Version-1 {
		return registration.NewVersionConflictError(fmt.Sprintf("Registration %q is at version %d", reg.ID, stored.Version), nil)
	}
	if releaseSlot {
		s.releaseSlot(stored.CategoryID, stored.EventID)
	}

	s.registrations[reg.ID] = reg
	return nil
}

func (s *Store) releaseSlot(categoryID, eventID uuid.UUID) {
	if category, ok := s.categories[categoryID]; ok {
		category.NumCounted = max(category.NumCounted-1, 0)
		category.Version++
		s.categories[categoryID] = category
	}
	if event, ok := s.events[eventID]; ok {
		event.NumCounted = max(event.NumCounted-1, 0)
		event.Version++
		s.events[eventID] = event
	}
}

func (s *Store) hasActiveRegistration(eventID, participantID uuid.UUID) bool {
	for _, r := range s.registrations {
		if r.EventID == eventID && r.ParticipantID == participantID && r.Status.IsCounted() {
			return true
		}
	}
	return false
}

func (s *Store) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.registrations[id]
	if !ok {
		return registration.Registration{}, registration.NewNotFoundError(fmt.Sprintf("Registration with ID %q not found", id), nil)
	}
	return reg, nil
}

func (s *Store) HasActiveRegistrationForEvent(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasActiveRegistration(eventID, participantID), nil
}

func (s *Store) GetRegistrationsForParticipant(ctx context.Context, participantID uuid.UUID) ([]registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(r registration.Registration) bool {
		return r.ParticipantID == participantID
	}), nil
}

func (s *Store) GetRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, filter registration.EventRegistrationsFilter, limit int32, cursor *string) (registration.GetAllRegistrationsResponse, error) {
	offset := 0
	if cursor != nil {
		var err error
		offset, err = decodeOffset(*cursor)
		if err != nil {
			return registration.GetAllRegistrationsResponse{}, registration.NewInvalidCursorError("Invalid cursor", err)
		}
	}

	s.mu.RLock()
	matching := s.collect(func(r registration.Registration) bool {
		return r.EventID == eventID && filter.Matches(r)
	})
	s.mu.RUnlock()

	start := min(offset, len(matching))
	end := min(start+int(limit), len(matching))
	hasNextPage := end < len(matching)

	var newCursor *string
	if hasNextPage {
		c := encodeOffset(end)
		newCursor = &c
	}

	return registration.GetAllRegistrationsResponse{
		Data:        matching[start:end],
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}

func (s *Store) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[registration.PaymentStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[registration.PaymentStatus]int{}
	for _, r := range s.registrations {
		if r.EventID == eventID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (s *Store) CountCountedRegistrations(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.registrations {
		if r.EventID != eventID || !r.Status.IsCounted() {
			continue
		}
		if categoryID != nil && r.CategoryID != *categoryID {
			continue
		}
		count++
	}
	return count, nil
}

// collect returns the matching registrations newest first. Callers hold the lock.
func (s *Store) collect(keep func(registration.Registration) bool) []registration.Registration {
	result := []registration.Registration{}
	for _, r := range s.registrations {
		if keep(r) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return result
}

func encodeOffset(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeOffset(cursor string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("failed to b64 decode: %w", err)
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("cursor %q is not an offset", raw)
	}
	return offset, nil
}
