package memory

import (
	"context"
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/google/uuid"
)

func (s *Store) GetProfile(ctx context.Context, participantID uuid.UUID) (participant.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[participantID]
	if !ok {
		return participant.Profile{}, participant.NewProfileDoesNotExistError(fmt.Sprintf("Profile of %q not found", participantID), nil)
	}
	return profile, nil
}

func (s *Store) SaveProfile(ctx context.Context, profile participant.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.ParticipantID] = profile
	return nil
}
