// Package memory is a mutex-guarded in-process store used for local runs and tests.
// It enforces the same version conditions as the persistent stores.
package memory

import (
	"sync"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
)

var (
	_ events.Repository       = &Store{}
	_ registration.Repository = &Store{}
	_ participant.Repository  = &Store{}
)

type Store struct {
	mu            sync.RWMutex
	events        map[uuid.UUID]events.Event
	categories    map[uuid.UUID]events.Category
	registrations map[uuid.UUID]registration.Registration
	profiles      map[uuid.UUID]participant.Profile
}

func NewStore() *Store {
	return &Store{
		events:        map[uuid.UUID]events.Event{},
		categories:    map[uuid.UUID]events.Category{},
		registrations: map[uuid.UUID]registration.Registration{},
		profiles:      map[uuid.UUID]participant.Profile{},
	}
}
