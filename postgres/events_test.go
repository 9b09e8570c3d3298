package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent() events.Event {
	return events.Event{
		ID:          uuid.New(),
		Version:     1,
		OrganizerID: uuid.New(),
		Name:        "Cruce de los Andes",
		Location:    "San Juan",
		StartTime:   time.Date(2026, 12, 6, 7, 30, 0, 0, time.UTC),
		State:       events.STATE_PUBLISHED,
		Capacity:    ptr.Int(100),
	}
}

func newTestCategory(eventID uuid.UUID) events.Category {
	return events.Category{
		ID:       uuid.New(),
		EventID:  eventID,
		Version:  1,
		Name:     "42K Elite",
		Capacity: ptr.Int(50),
		AgeRange: events.Range{Min: 21, Max: 70},
		Gender:   participant.GENDER_MALE,
		Fee:      money.New(2500000, money.ARS),
	}
}

func requireEventsReason(t *testing.T, err error, reason events.ErrorReason) {
	t.Helper()
	var eventErr *events.Error
	require.ErrorAs(t, err, &eventErr)
	assert.Equal(t, reason, eventErr.Reason)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips an event", func(t *testing.T) {
		resetTables(ctx)
		event := newTestEvent()
		require.NoError(t, db.CreateEvent(ctx, event))

		got, err := db.GetEvent(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.Name, got.Name)
		assert.Equal(t, event.OrganizerID, got.OrganizerID)
		assert.Equal(t, events.STATE_PUBLISHED, got.State)
		assert.True(t, event.StartTime.Equal(got.StartTime))
		assert.Equal(t, 100, *got.Capacity)
		assert.Nil(t, got.PaymentInfo)
	})

	t.Run("duplicate event", func(t *testing.T) {
		resetTables(ctx)
		event := newTestEvent()
		require.NoError(t, db.CreateEvent(ctx, event))

		requireEventsReason(t, db.CreateEvent(ctx, event), events.REASON_EVENT_ALREADY_EXISTS)
	})

	t.Run("missing event", func(t *testing.T) {
		resetTables(ctx)

		_, err := db.GetEvent(ctx, uuid.New())
		requireEventsReason(t, err, events.REASON_EVENT_DOES_NOT_EXIST)
	})
}

func TestCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a category", func(t *testing.T) {
		resetTables(ctx)
		event := newTestEvent()
		require.NoError(t, db.CreateEvent(ctx, event))
		category := newTestCategory(event.ID)
		require.NoError(t, db.CreateCategory(ctx, category))

		got, err := db.GetCategory(ctx, category.ID)
		require.NoError(t, err)
		assert.Equal(t, category.AgeRange, got.AgeRange)
		assert.Equal(t, participant.GENDER_MALE, got.Gender)
		require.NotNil(t, got.Fee)
		assert.Equal(t, int64(2500000), got.Fee.Amount())

		list, err := db.GetCategoriesForEvent(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, category.ID, list[0].ID)
	})

	t.Run("category of a missing event", func(t *testing.T) {
		resetTables(ctx)

		err := db.CreateCategory(ctx, newTestCategory(uuid.New()))
		requireEventsReason(t, err, events.REASON_EVENT_DOES_NOT_EXIST)
	})

	t.Run("update is version checked", func(t *testing.T) {
		resetTables(ctx)
		event := newTestEvent()
		require.NoError(t, db.CreateEvent(ctx, event))
		category := newTestCategory(event.ID)
		require.NoError(t, db.CreateCategory(ctx, category))

		category.Version = 2
		category.Capacity = ptr.Int(75)
		require.NoError(t, db.UpdateCategory(ctx, category))

		requireEventsReason(t, db.UpdateCategory(ctx, category), events.REASON_VERSION_CONFLICT)

		got, err := db.GetCategory(ctx, category.ID)
		require.NoError(t, err)
		assert.Equal(t, 75, *got.Capacity)
	})
}
