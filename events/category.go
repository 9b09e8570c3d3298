package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

const (
	MinCategoryAge      = 14
	MaxCategoryAge      = 90
	MaxCategoryCapacity = 10000
)

type Category struct {
	ID       uuid.UUID
	EventID  uuid.UUID
	Version  int
	Name     string
	Capacity *int
	// AgeRange is inclusive on both ends.
	AgeRange Range
	// Gender is participant.GENDER_ANY for mixed categories.
	Gender     participant.Gender
	Fee        *money.Money
	NumCounted int
}

// ValidateNewCategory checks a category against its parent event before it is created.
// Capacity limits are only checked here; later changes to the event are not re-verified.
func ValidateNewCategory(category Category, event Event) error {
	if category.EventID != event.ID {
		return NewInvalidCategoryError(fmt.Sprintf("Category belongs to event %q, not %q", category.EventID, event.ID))
	}
	if event.State == STATE_CANCELLED || event.State == STATE_FINISHED {
		return NewInvalidCategoryError(fmt.Sprintf("Cannot add categories to a %s event", event.State))
	}
	if strings.TrimSpace(category.Name) == "" {
		return NewInvalidCategoryError("Category name is required")
	}
	if category.AgeRange.Min < MinCategoryAge || category.AgeRange.Max > MaxCategoryAge || category.AgeRange.Min > category.AgeRange.Max {
		return NewInvalidCategoryError(fmt.Sprintf("Age range must be within %d and %d with min <= max, got [%d, %d]",
			MinCategoryAge, MaxCategoryAge, category.AgeRange.Min, category.AgeRange.Max))
	}
	if !category.Gender.Valid() {
		return NewInvalidCategoryError(fmt.Sprintf("Unknown category gender %q", category.Gender))
	}
	if category.Capacity != nil {
		if *category.Capacity < 1 || *category.Capacity > MaxCategoryCapacity {
			return NewInvalidCategoryError(fmt.Sprintf("Category capacity must be within 1 and %d", MaxCategoryCapacity))
		}
		if event.Capacity != nil && *category.Capacity > *event.Capacity {
			return NewInvalidCategoryError(fmt.Sprintf("Category capacity %d exceeds event capacity %d", *category.Capacity, *event.Capacity))
		}
	}
	if category.Fee != nil && category.Fee.IsNegative() {
		return NewInvalidCategoryError("Category fee cannot be negative")
	}
	if category.NumCounted != 0 {
		return NewInvalidCategoryError("New categories cannot have registrations")
	}
	return nil
}

// ValidateCategoryCapacityChange rejects capacities that would leave the category overbooked.
func ValidateCategoryCapacityChange(category Category, newCapacity *int) error {
	if newCapacity == nil {
		return nil
	}
	if *newCapacity < 1 || *newCapacity > MaxCategoryCapacity {
		return NewInvalidCategoryError(fmt.Sprintf("Category capacity must be within 1 and %d", MaxCategoryCapacity))
	}
	if *newCapacity < category.NumCounted {
		return NewInvalidCategoryError(fmt.Sprintf("Category already has %d registrations, capacity cannot be %d", category.NumCounted, *newCapacity))
	}
	return nil
}

func CreateCategory(ctx context.Context, category Category, repo Repository) (Category, error) {
	event, err := repo.GetEvent(ctx, category.EventID)
	if err != nil {
		return Category{}, err
	}

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.Version = 1

	if err := ValidateNewCategory(category, event); err != nil {
		return Category{}, err
	}

	if err := repo.CreateCategory(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}

func UpdateCategoryCapacity(ctx context.Context, categoryID uuid.UUID, capacity *int, repo Repository) (Category, error) {
	category, err := repo.GetCategory(ctx, categoryID)
	if err != nil {
		return Category{}, err
	}

	if err := ValidateCategoryCapacityChange(category, capacity); err != nil {
		return Category{}, err
	}

	category.Capacity = capacity
	category.Version++

	if err := repo.UpdateCategory(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}
