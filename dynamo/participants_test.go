package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	resetTable(ctx)

	t.Run("round trips a profile", func(t *testing.T) {
		profile := participant.Profile{
			ParticipantID:         uuid.New(),
			FirstName:             "Lucía",
			LastName:              "Gómez",
			BirthDate:             ptr.Time(time.Date(1990, 2, 14, 0, 0, 0, 0, time.UTC)),
			Gender:                participant.GENDER_FEMALE,
			NationalID:            "30111222",
			Locality:              "San Luis",
			EmergencyContactName:  "Marta Gómez",
			EmergencyContactPhone: "+54 266 400000",
			Phone:                 "+54 266 411111",
		}
		require.NoError(t, db.SaveProfile(ctx, profile))

		got, err := db.GetProfile(ctx, profile.ParticipantID)
		require.NoError(t, err)
		assert.Equal(t, profile.FirstName, got.FirstName)
		assert.True(t, profile.BirthDate.Equal(*got.BirthDate))
		assert.True(t, got.IsComplete())
	})

	t.Run("incomplete profile keeps its gaps", func(t *testing.T) {
		profile := participant.Profile{ParticipantID: uuid.New(), FirstName: "Juan"}
		require.NoError(t, db.SaveProfile(ctx, profile))

		got, err := db.GetProfile(ctx, profile.ParticipantID)
		require.NoError(t, err)
		assert.Nil(t, got.BirthDate)
		assert.Contains(t, got.MissingFields(), "birthDate")
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := db.GetProfile(ctx, uuid.New())
		var pErr *participant.Error
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, participant.REASON_PROFILE_DOES_NOT_EXIST, pErr.Reason)
	})
}
