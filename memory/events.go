package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/google/uuid"
)

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return events.Event{}, events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", id), nil)
	}
	return event, nil
}

func (s *Store) CreateEvent(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok || event.Version != 1 {
		return events.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q already exists", event.ID), nil)
	}
	s.events[event.ID] = event
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (events.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return events.Category{}, events.NewCategoryDoesNotExistsError(fmt.Sprintf("Category with ID %q not found", id), nil)
	}
	return category, nil
}

func (s *Store) GetCategoriesForEvent(ctx context.Context, eventID uuid.UUID) ([]events.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []events.Category{}
	for _, c := range s.categories {
		if c.EventID == eventID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (s *Store) CreateCategory(ctx context.Context, category events.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[category.EventID]; !ok {
		return events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", category.EventID), nil)
	}
	if _, ok := s.categories[category.ID]; ok || category.Version != 1 {
		return events.NewCategoryAlreadyExistsError(fmt.Sprintf("Category with ID %q already exists", category.ID), nil)
	}
	s.categories[category.ID] = category
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, category events.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.categories[category.ID]
	if !ok {
		return events.NewCategoryDoesNotExistsError(fmt.Sprintf("Category with ID %q not found", category.ID), nil)
	}
	if stored.Version != category.Version-1 {
		return events.NewVersionConflictError(fmt.Sprintf("Category %q is at version %d", category.ID, stored.Version), nil)
	}
	s.categories[category.ID] = category
	return nil
}
