package registration

import (
	"time"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/participant"
)

// ValidateEligibility checks profile against the category's constraints as of now.
// Completeness is checked first since age and gender are meaningless without it.
func ValidateEligibility(profile participant.Profile, category events.Category, now time.Time) error {
	if missing := profile.MissingFields(); len(missing) > 0 {
		return NewProfileIncompleteError(missing, nil)
	}

	age := participant.AgeAt(*profile.BirthDate, now)
	if !category.AgeRange.Contains(age) {
		return NewAgeOutOfRangeError(age, category.AgeRange.Min, category.AgeRange.Max)
	}

	if category.Gender != participant.GENDER_ANY && category.Gender != profile.Gender {
		return NewGenderMismatchError(string(category.Gender), string(profile.Gender))
	}

	return nil
}
