package registration

import (
	"testing"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCapacity(t *testing.T) {
	assert.True(t, HasCapacity(nil, 1_000_000))
	assert.True(t, HasCapacity(ptr.Int(1), 0))
	assert.False(t, HasCapacity(ptr.Int(1), 1))
	assert.False(t, HasCapacity(ptr.Int(0), 0))
}

func TestReserve(t *testing.T) {
	t.Run("takes a slot in both aggregates", func(t *testing.T) {
		cat := events.Category{Version: 4, Capacity: ptr.Int(2), NumCounted: 1}
		evt := events.Event{Version: 9, Capacity: ptr.Int(10), NumCounted: 5}

		require.NoError(t, Reserve(&cat, &evt))

		assert.Equal(t, 2, cat.NumCounted)
		assert.Equal(t, 5, cat.Version)
		assert.Equal(t, 6, evt.NumCounted)
		assert.Equal(t, 10, evt.Version)
	})

	t.Run("category full is reported before event full", func(t *testing.T) {
		cat := events.Category{Capacity: ptr.Int(1), NumCounted: 1}
		evt := events.Event{Capacity: ptr.Int(1), NumCounted: 1}

		requireReason(t, Reserve(&cat, &evt), REASON_CATEGORY_FULL)
		assert.Equal(t, 1, cat.NumCounted, "failed reservation must not change counters")
	})

	t.Run("event full with free category", func(t *testing.T) {
		cat := events.Category{Capacity: ptr.Int(5), NumCounted: 0}
		evt := events.Event{Capacity: ptr.Int(3), NumCounted: 3}

		requireReason(t, Reserve(&cat, &evt), REASON_EVENT_FULL)
		assert.Equal(t, 3, evt.NumCounted)
	})

	t.Run("unbounded", func(t *testing.T) {
		cat := events.Category{NumCounted: 500}
		evt := events.Event{NumCounted: 5000}
		assert.NoError(t, Reserve(&cat, &evt))
	})
}

func TestNewOccupancy(t *testing.T) {
	occ := NewOccupancy(events.Category{Name: "5K", Capacity: ptr.Int(8), NumCounted: 2})
	require.NotNil(t, occ.Available)
	assert.Equal(t, 6, *occ.Available)
	assert.InDelta(t, 25.0, *occ.Percent, 0.001)

	unbounded := NewOccupancy(events.Category{Name: "Kids", NumCounted: 3})
	assert.Nil(t, unbounded.Available)
	assert.Nil(t, unbounded.Percent)
	assert.Equal(t, 3, unbounded.Counted)
}
