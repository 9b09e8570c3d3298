package participant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GENDER_FEMALE Gender = "F"
	GENDER_MALE   Gender = "M"
	// GENDER_ANY doubles as "mixed" on categories and "other" on profiles.
	GENDER_ANY Gender = "X"
)

func (g Gender) Valid() bool {
	switch g {
	case GENDER_FEMALE, GENDER_MALE, GENDER_ANY:
		return true
	}
	return false
}

func ParseGender(s string) (Gender, bool) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	return g, g.Valid()
}

// Profile is the subset of a user's profile the registration engine reads.
// It is owned by user management and never written by the engine.
type Profile struct {
	ParticipantID         uuid.UUID
	FirstName             string
	LastName              string
	BirthDate             *time.Time
	Gender                Gender
	NationalID            string
	Locality              string
	EmergencyContactName  string
	EmergencyContactPhone string
	Phone                 string
}

// MissingFields lists the required fields that are not populated, in a stable order.
func (p Profile) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	check("firstName", p.FirstName)
	check("lastName", p.LastName)
	if p.BirthDate == nil || p.BirthDate.IsZero() {
		missing = append(missing, "birthDate")
	}
	if !p.Gender.Valid() {
		missing = append(missing, "gender")
	}
	check("nationalId", p.NationalID)
	check("locality", p.Locality)
	check("emergencyContactName", p.EmergencyContactName)
	check("emergencyContactPhone", p.EmergencyContactPhone)
	check("phone", p.Phone)

	return missing
}

func (p Profile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func (p Profile) IsComplete() bool {
	return len(p.MissingFields()) == 0
}

// AgeAt returns the number of whole years between birth and now, comparing calendar dates.
// Someone born on Feb 29 turns a year older on Mar 1 in non-leap years.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()

	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

type Provider interface {
	GetProfile(ctx context.Context, participantID uuid.UUID) (Profile, error)
}

type Repository interface {
	Provider
	SaveProfile(ctx context.Context, profile Profile) error
}
