package registration

import (
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/google/uuid"
)

// HasCapacity reports whether another counted registration fits. A nil capacity is unbounded.
func HasCapacity(capacity *int, counted int) bool {
	return capacity == nil || counted < *capacity
}

func CheckCapacity(category events.Category, event events.Event) error {
	if !HasCapacity(category.Capacity, category.NumCounted) {
		return NewCategoryFullError(fmt.Sprintf("Category %q has no slots left", category.Name))
	}
	if !HasCapacity(event.Capacity, event.NumCounted) {
		return NewEventFullError(fmt.Sprintf("Event %q has no slots left", event.Name))
	}
	return nil
}

// Reserve checks capacity against the copies read by the caller and counts one more
// registration in them, the same way the store applies it to the stored aggregates.
// The store repeats the capacity check atomically, so a stale copy can pass here and
// still fail with CATEGORY_FULL or EVENT_FULL on write.
func Reserve(category *events.Category, event *events.Event) error {
	if err := CheckCapacity(*category, *event); err != nil {
		return err
	}

	category.NumCounted++
	category.Version++
	event.NumCounted++
	event.Version++

	return nil
}

// Occupancy summarizes how full a category is.
type Occupancy struct {
	CategoryID   uuid.UUID
	CategoryName string
	Capacity     *int
	Counted      int
	// Available is nil for unbounded categories.
	Available *int
	// Percent is nil for unbounded categories.
	Percent *float64
}

func NewOccupancy(category events.Category) Occupancy {
	occ := Occupancy{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Capacity:     category.Capacity,
		Counted:      category.NumCounted,
	}

	if category.Capacity != nil {
		available := max(*category.Capacity-category.NumCounted, 0)
		percent := 0.0
		if *category.Capacity > 0 {
			percent = float64(category.NumCounted) * 100 / float64(*category.Capacity)
		}
		occ.Available = &available
		occ.Percent = &percent
	}

	return occ
}
