package postgres

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/Estebaan93/RunnConnectAPI/slices"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const registrationColumns = `id, version, participant_id, participant_name, category_id, event_id, created_at, updated_at,
	status, shirt_size, waiver_accepted, payment_proof_ref, status_reason`

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var r registration.Registration
	err := row.Scan(&r.ID, &r.Version, &r.ParticipantID, &r.ParticipantName, &r.CategoryID, &r.EventID, &r.CreatedAt, &r.UpdatedAt,
		&r.Status, &r.ShirtSize, &r.WaiverAccepted, &r.PaymentProofRef, &r.StatusReason)
	return r, err
}

func collectRegistrations(rows pgx.Rows) ([]registration.Registration, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (registration.Registration, error) {
		return scanRegistration(row)
	})
}

func countedStatuses() []string {
	return slices.Map(registration.CountedStatuses, func(s registration.PaymentStatus) string {
		return string(s)
	})
}

func (d *DB) CreateRegistration(ctx context.Context, reg registration.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if reg.Version != 1 {
		return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q is not a new registration", reg.ID), nil)
	}

	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		if err := takeSlot(ctx, tx, reg.CategoryID, reg.EventID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO registrations (`+registrationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			reg.ID, reg.Version, reg.ParticipantID, reg.ParticipantName, reg.CategoryID, reg.EventID, reg.CreatedAt, reg.UpdatedAt,
			reg.Status, reg.ShirtSize, reg.WaiverAccepted, reg.PaymentProofRef, reg.StatusReason)
		return err
	})
	if err != nil {
		switch code, constraint := pgErrorCode(err); {
		case code == pgUniqueViolation && constraint == oneActivePerEventConstraint:
			return registration.NewDuplicateRegistrationError(fmt.Sprintf("Participant %q already has an active registration for event %q", reg.ParticipantID, reg.EventID), err)
		case code == pgUniqueViolation:
			return registration.NewRegistrationAlreadyExistsError(fmt.Sprintf("Registration with ID %q already exists", reg.ID), err)
		case errors.Is(err, errCategoryFull):
			return registration.NewCategoryFullError(fmt.Sprintf("Category %q has no slots left", reg.CategoryID))
		case errors.Is(err, errEventFull):
			return registration.NewEventFullError(fmt.Sprintf("Event %q has no slots left", reg.EventID))
		case errors.Is(err, context.DeadlineExceeded):
			return registration.NewTimeoutError("CreateRegistration timed out")
		}
		return registration.NewFailedToWriteError("Failed to insert registration", err)
	}
	return nil
}

func (d *DB) UpdateRegistration(ctx context.Context, reg registration.Registration, releaseSlot bool) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	err := pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE registrations
			SET version = $2, updated_at = $3, status = $4, shirt_size = $5, payment_proof_ref = $6, status_reason = $7
			WHERE id = $1 AND version = $8`,
			reg.ID, reg.Version, reg.UpdatedAt, reg.Status, reg.ShirtSize, reg.PaymentProofRef, reg.StatusReason, reg.Version-1)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("registration %q: %w", reg.ID, errVersionMismatch)
		}

		if releaseSlot {
			return freeSlot(ctx, tx, reg.CategoryID, reg.EventID)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errVersionMismatch):
			return registration.NewVersionConflictError(fmt.Sprintf("Registration %q changed or does not exist", reg.ID), err)
		case errors.Is(err, context.DeadlineExceeded):
			return registration.NewTimeoutError("UpdateRegistration timed out")
		}
		return registration.NewFailedToWriteError("Failed to update registration", err)
	}
	return nil
}

func (d *DB) GetRegistration(ctx context.Context, id uuid.UUID) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	reg, err := scanRegistration(d.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registration.Registration{}, registration.NewNotFoundError(fmt.Sprintf("Registration with id %q not found", id), nil)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistration timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration with id %q", id), err)
	}
	return reg, nil
}

func (d *DB) HasActiveRegistrationForEvent(ctx context.Context, eventID uuid.UUID, participantID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM registrations WHERE event_id = $1 AND participant_id = $2 AND status = ANY($3)
	)`, eventID, participantID, countedStatuses()).Scan(&exists)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, registration.NewTimeoutError("HasActiveRegistrationForEvent timed out")
		}
		return false, registration.NewFailedToFetchError(fmt.Sprintf("Failed to check active registration of %q in event %q", participantID, eventID), err)
	}
	return exists, nil
}

func (d *DB) GetRegistrationsForParticipant(ctx context.Context, participantID uuid.UUID) ([]registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations
		WHERE participant_id = $1 ORDER BY created_at DESC, id DESC`, participantID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, registration.NewTimeoutError("GetRegistrationsForParticipant timed out")
		}
		return nil, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registrations of participant %q", participantID), err)
	}

	regs, err := collectRegistrations(rows)
	if err != nil {
		return nil, registration.NewFailedToFetchError(fmt.Sprintf("Failed to read registrations of participant %q", participantID), err)
	}
	return regs, nil
}

// pageCursor is the keyset position of the last registration handed out.
type pageCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        uuid.UUID `json:"id"`
}

func encodeCursor(reg registration.Registration) (string, error) {
	b, err := json.Marshal(pageCursor{CreatedAt: reg.CreatedAt, ID: reg.ID})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func decodeCursor(cursor string) (pageCursor, error) {
	b, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return pageCursor{}, fmt.Errorf("failed to b64 decode: %w", err)
	}
	var c pageCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return pageCursor{}, fmt.Errorf("failed to json decode: %w", err)
	}
	return c, nil
}

func (d *DB) GetRegistrationsForEvent(ctx context.Context, eventID uuid.UUID, filter registration.EventRegistrationsFilter, limit int32, cursor *string) (registration.GetAllRegistrationsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	where := []string{"event_id = $1"}
	args := []any{eventID}
	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategoryID != nil {
		where = append(where, "category_id = "+addArg(*filter.CategoryID))
	}
	if filter.Status != nil {
		where = append(where, "status = "+addArg(string(*filter.Status)))
	}
	if filter.ParticipantName != nil {
		where = append(where, "strpos(lower(regexp_replace(participant_name, '\\s+', ' ', 'g')), "+addArg(registration.NameSearchKey(*filter.ParticipantName))+") > 0")
	}
	if cursor != nil {
		c, err := decodeCursor(*cursor)
		if err != nil {
			return registration.GetAllRegistrationsResponse{}, registration.NewInvalidCursorError("Invalid cursor", err)
		}
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", addArg(c.CreatedAt), addArg(c.ID)))
	}

	// Fetch 1 more than limit to check if there is another page or not
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE %s ORDER BY created_at DESC, id DESC LIMIT %s`,
		registrationColumns, strings.Join(where, " AND "), addArg(limit+1))

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.GetAllRegistrationsResponse{}, registration.NewTimeoutError("GetRegistrationsForEvent timed out")
		}
		return registration.GetAllRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to fetch registrations", err)
	}

	regs, err := collectRegistrations(rows)
	if err != nil {
		return registration.GetAllRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to read registrations", err)
	}

	hasNextPage := len(regs) > int(limit)
	regs = regs[:min(int(limit), len(regs))]

	var newCursor *string
	if hasNextPage {
		c, err := encodeCursor(regs[len(regs)-1])
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor: %s", err))
		}
		newCursor = &c
	}

	return registration.GetAllRegistrationsResponse{
		Data:        regs,
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}

func (d *DB) CountByStatus(ctx context.Context, eventID uuid.UUID) (map[registration.PaymentStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	rows, err := d.pool.Query(ctx, `SELECT status, count(*) FROM registrations WHERE event_id = $1 GROUP BY status`, eventID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, registration.NewTimeoutError("CountByStatus timed out")
		}
		return nil, registration.NewFailedToFetchError(fmt.Sprintf("Failed to count registrations of event %q", eventID), err)
	}
	defer rows.Close()

	counts := map[registration.PaymentStatus]int{}
	for rows.Next() {
		var (
			status registration.PaymentStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, registration.NewFailedToFetchError("Failed to read registration counts", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, registration.NewFailedToFetchError("Failed to read registration counts", err)
	}
	return counts, nil
}

func (d *DB) CountCountedRegistrations(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var count int
	err := d.pool.QueryRow(ctx, `SELECT count(*) FROM registrations
		WHERE event_id = $1 AND status = ANY($2) AND ($3::uuid IS NULL OR category_id = $3)`,
		eventID, countedStatuses(), categoryID).Scan(&count)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, registration.NewTimeoutError("CountCountedRegistrations timed out")
		}
		return 0, registration.NewFailedToFetchError(fmt.Sprintf("Failed to count registrations of event %q", eventID), err)
	}
	return count, nil
}
