package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	eventColumns    = `id, version, organizer_id, name, location, start_time, state, capacity, num_counted, payment_info`
	categoryColumns = `id, event_id, version, name, capacity, age_min, age_max, gender, fee_amount, fee_currency, num_counted`
)

func scanEvent(row pgx.Row) (events.Event, error) {
	var e events.Event
	err := row.Scan(&e.ID, &e.Version, &e.OrganizerID, &e.Name, &e.Location, &e.StartTime,
		&e.State, &e.Capacity, &e.NumCounted, &e.PaymentInfo)
	return e, err
}

func scanCategory(row pgx.Row) (events.Category, error) {
	var (
		c           events.Category
		feeAmount   *int64
		feeCurrency *string
	)
	err := row.Scan(&c.ID, &c.EventID, &c.Version, &c.Name, &c.Capacity, &c.AgeRange.Min, &c.AgeRange.Max,
		&c.Gender, &feeAmount, &feeCurrency, &c.NumCounted)
	if err != nil {
		return events.Category{}, err
	}
	if feeAmount != nil && feeCurrency != nil {
		c.Fee = money.New(*feeAmount, *feeCurrency)
	}
	return c, nil
}

func feeColumns(fee *money.Money) (*int64, *string) {
	if fee == nil {
		return nil, nil
	}
	amount := fee.Amount()
	currency := fee.Currency().Code
	return &amount, &currency
}

func (d *DB) GetEvent(ctx context.Context, id uuid.UUID) (events.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	event, err := scanEvent(d.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Event{}, events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", id), nil)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return events.Event{}, events.NewTimeoutError("GetEvent timed out")
		}
		return events.Event{}, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch event with ID %q", id), err)
	}
	return event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if event.Version != 1 {
		return events.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q is not a new event", event.ID), nil)
	}

	_, err := d.pool.Exec(ctx, `INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID, event.Version, event.OrganizerID, event.Name, event.Location, event.StartTime,
		event.State, event.Capacity, event.NumCounted, event.PaymentInfo)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return events.NewEventAlreadyExistsError(fmt.Sprintf("Event with ID %q already exists", event.ID), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("CreateEvent timed out")
		}
		return events.NewFailedToWriteError("Failed to insert event", err)
	}
	return nil
}

func (d *DB) GetCategory(ctx context.Context, id uuid.UUID) (events.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	category, err := scanCategory(d.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Category{}, events.NewCategoryDoesNotExistsError(fmt.Sprintf("Category with ID %q not found", id), nil)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return events.Category{}, events.NewTimeoutError("GetCategory timed out")
		}
		return events.Category{}, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch category with ID %q", id), err)
	}
	return category, nil
}

func (d *DB) GetCategoriesForEvent(ctx context.Context, eventID uuid.UUID) ([]events.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE event_id = $1 ORDER BY name, id`, eventID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, events.NewTimeoutError("GetCategoriesForEvent timed out")
		}
		return nil, events.NewFailedToFetchError(fmt.Sprintf("Failed to fetch categories for event %q", eventID), err)
	}

	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (events.Category, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, events.NewFailedToFetchError(fmt.Sprintf("Failed to read categories for event %q", eventID), err)
	}
	return categories, nil
}

func (d *DB) CreateCategory(ctx context.Context, category events.Category) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if category.Version != 1 {
		return events.NewCategoryAlreadyExistsError(fmt.Sprintf("Category with ID %q is not a new category", category.ID), nil)
	}

	feeAmount, feeCurrency := feeColumns(category.Fee)
	_, err := d.pool.Exec(ctx, `INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		category.ID, category.EventID, category.Version, category.Name, category.Capacity,
		category.AgeRange.Min, category.AgeRange.Max, category.Gender, feeAmount, feeCurrency, category.NumCounted)
	if err != nil {
		switch code, _ := pgErrorCode(err); {
		case code == pgUniqueViolation:
			return events.NewCategoryAlreadyExistsError(fmt.Sprintf("Category with ID %q already exists", category.ID), err)
		case code == pgForeignKeyViolation:
			return events.NewEventDoesNotExistsError(fmt.Sprintf("Event with ID %q not found", category.EventID), err)
		case errors.Is(err, context.DeadlineExceeded):
			return events.NewTimeoutError("CreateCategory timed out")
		}
		return events.NewFailedToWriteError("Failed to insert category", err)
	}
	return nil
}

func (d *DB) UpdateCategory(ctx context.Context, category events.Category) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	feeAmount, feeCurrency := feeColumns(category.Fee)
	tag, err := d.pool.Exec(ctx, `UPDATE categories
		SET version = $2, name = $3, capacity = $4, age_min = $5, age_max = $6, gender = $7,
		    fee_amount = $8, fee_currency = $9, num_counted = $10
		WHERE id = $1 AND version = $11`,
		category.ID, category.Version, category.Name, category.Capacity, category.AgeRange.Min, category.AgeRange.Max,
		category.Gender, feeAmount, feeCurrency, category.NumCounted, category.Version-1)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return events.NewTimeoutError("UpdateCategory timed out")
		}
		return events.NewFailedToWriteError("Failed to update category", err)
	}
	if tag.RowsAffected() == 0 {
		return events.NewVersionConflictError(fmt.Sprintf("Category with ID %q changed or does not exist", category.ID), nil)
	}
	return nil
}
