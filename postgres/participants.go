package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (d *DB) GetProfile(ctx context.Context, participantID uuid.UUID) (participant.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var p participant.Profile
	err := d.pool.QueryRow(ctx, `SELECT participant_id, first_name, last_name, birth_date, gender, national_id,
			locality, emergency_contact_name, emergency_contact_phone, phone
		FROM participant_profiles WHERE participant_id = $1`, participantID).
		Scan(&p.ParticipantID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender, &p.NationalID,
			&p.Locality, &p.EmergencyContactName, &p.EmergencyContactPhone, &p.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return participant.Profile{}, participant.NewProfileDoesNotExistError(fmt.Sprintf("Profile of %q not found", participantID), nil)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return participant.Profile{}, participant.NewTimeoutError("GetProfile timed out")
		}
		return participant.Profile{}, participant.NewFailedToFetchError(fmt.Sprintf("Failed to fetch profile of %q", participantID), err)
	}
	return p, nil
}

func (d *DB) SaveProfile(ctx context.Context, p participant.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx, `INSERT INTO participant_profiles (participant_id, first_name, last_name, birth_date,
			gender, national_id, locality, emergency_contact_name, emergency_contact_phone, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (participant_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			birth_date = EXCLUDED.birth_date,
			gender = EXCLUDED.gender,
			national_id = EXCLUDED.national_id,
			locality = EXCLUDED.locality,
			emergency_contact_name = EXCLUDED.emergency_contact_name,
			emergency_contact_phone = EXCLUDED.emergency_contact_phone,
			phone = EXCLUDED.phone`,
		p.ParticipantID, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.NationalID,
		p.Locality, p.EmergencyContactName, p.EmergencyContactPhone, p.Phone)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return participant.NewTimeoutError("SaveProfile timed out")
		}
		return participant.NewFailedToWriteError("Failed to save profile", err)
	}
	return nil
}
