package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ events.Repository       = &DB{}
	_ registration.Repository = &DB{}
	_ participant.Repository  = &DB{}
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	oneActivePerEventConstraint = "registrations_one_active_per_event"
)

type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// NewPool connects to dsn and checks the connection before returning.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func pgErrorCode(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

var (
	// errVersionMismatch reports a row that is missing or not at the expected version.
	errVersionMismatch = errors.New("version mismatch")
	errCategoryFull    = errors.New("category full")
	errEventFull       = errors.New("event full")
)

// takeSlot counts one more registration in the category then the event, each only
// while it has capacity left. The row lock taken by each UPDATE serializes concurrent
// admissions, and the condition is evaluated again on the latest row once the lock is
// granted. Every transaction touching both rows locks them in this order.
func takeSlot(ctx context.Context, tx pgx.Tx, categoryID, eventID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `UPDATE categories SET num_counted = num_counted + 1, version = version + 1
		WHERE id = $1 AND (capacity IS NULL OR num_counted < capacity)`, categoryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %q: %w", categoryID, errCategoryFull)
	}

	tag, err = tx.Exec(ctx, `UPDATE events SET num_counted = num_counted + 1, version = version + 1
		WHERE id = $1 AND (capacity IS NULL OR num_counted < capacity)`, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %q: %w", eventID, errEventFull)
	}
	return nil
}

// freeSlot uncounts a registration from the category then the event.
func freeSlot(ctx context.Context, tx pgx.Tx, categoryID, eventID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE categories SET num_counted = GREATEST(num_counted - 1, 0), version = version + 1
		WHERE id = $1`, categoryID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE events SET num_counted = GREATEST(num_counted - 1, 0), version = version + 1
		WHERE id = $1`, eventID)
	return err
}
