package participant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeProfile() Profile {
	return Profile{
		ParticipantID:         uuid.New(),
		FirstName:             "Ana",
		LastName:              "Gomez",
		BirthDate:             ptr.Time(time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC)),
		Gender:                GENDER_FEMALE,
		NationalID:            "30111222",
		Locality:              "San Luis",
		EmergencyContactName:  "Juan Gomez",
		EmergencyContactPhone: "2664000000",
		Phone:                 "2664111111",
	}
}

func TestMissingFields(t *testing.T) {
	t.Run("complete profile", func(t *testing.T) {
		p := completeProfile()
		assert.Empty(t, p.MissingFields())
		assert.True(t, p.IsComplete())
	})

	t.Run("reports every missing field in order", func(t *testing.T) {
		p := completeProfile()
		p.BirthDate = nil
		p.Gender = ""
		p.Locality = "   "
		p.EmergencyContactPhone = ""

		assert.Equal(t, []string{"birthDate", "gender", "locality", "emergencyContactPhone"}, p.MissingFields())
		assert.False(t, p.IsComplete())
	})

	t.Run("unknown gender counts as missing", func(t *testing.T) {
		p := completeProfile()
		p.Gender = "Q"
		assert.Equal(t, []string{"gender"}, p.MissingFields())
	})
}

func TestAgeAt(t *testing.T) {
	birth := time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"day before birthday", time.Date(2020, time.June, 14, 23, 0, 0, 0, time.UTC), 19},
		{"on birthday", time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC), 20},
		{"after birthday", time.Date(2020, time.December, 1, 0, 0, 0, 0, time.UTC), 20},
		{"earlier month", time.Date(2020, time.January, 30, 0, 0, 0, 0, time.UTC), 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(birth, tt.now))
		})
	}

	t.Run("leap day birthday", func(t *testing.T) {
		leap := time.Date(2004, time.February, 29, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 16, AgeAt(leap, time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, 17, AgeAt(leap, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)))
	})
}

func TestParseGender(t *testing.T) {
	g, ok := ParseGender(" m ")
	assert.True(t, ok)
	assert.Equal(t, GENDER_MALE, g)

	_, ok = ParseGender("female")
	assert.False(t, ok)
}

type mockProvider struct {
	GetProfileFunc func(ctx context.Context, participantID uuid.UUID) (Profile, error)
	calls          int
}

func (m *mockProvider) GetProfile(ctx context.Context, participantID uuid.UUID) (Profile, error) {
	m.calls++
	return m.GetProfileFunc(ctx, participantID)
}

func TestCachedProvider(t *testing.T) {
	t.Run("second read is served from cache", func(t *testing.T) {
		profile := completeProfile()
		next := &mockProvider{
			GetProfileFunc: func(ctx context.Context, participantID uuid.UUID) (Profile, error) {
				return profile, nil
			},
		}
		cached := NewCachedProvider(next, time.Minute)

		first, err := cached.GetProfile(context.Background(), profile.ParticipantID)
		require.NoError(t, err)
		second, err := cached.GetProfile(context.Background(), profile.ParticipantID)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		next := &mockProvider{
			GetProfileFunc: func(ctx context.Context, participantID uuid.UUID) (Profile, error) {
				return Profile{}, NewProfileDoesNotExistError("missing", nil)
			},
		}
		cached := NewCachedProvider(next, time.Minute)
		id := uuid.New()

		_, err := cached.GetProfile(context.Background(), id)
		var participantErr *Error
		require.True(t, errors.As(err, &participantErr))
		assert.Equal(t, REASON_PROFILE_DOES_NOT_EXIST, participantErr.Reason)

		_, _ = cached.GetProfile(context.Background(), id)
		assert.Equal(t, 2, next.calls)
	})

	t.Run("incomplete profiles are read every time", func(t *testing.T) {
		profile := completeProfile()
		profile.Locality = ""
		next := &mockProvider{
			GetProfileFunc: func(ctx context.Context, participantID uuid.UUID) (Profile, error) {
				return profile, nil
			},
		}
		cached := NewCachedProvider(next, time.Minute)

		_, err := cached.GetProfile(context.Background(), profile.ParticipantID)
		require.NoError(t, err)

		profile.Locality = "Merlo"
		got, err := cached.GetProfile(context.Background(), profile.ParticipantID)
		require.NoError(t, err)

		assert.Equal(t, "Merlo", got.Locality)
		assert.Equal(t, 2, next.calls)
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		profile := completeProfile()
		next := &mockProvider{
			GetProfileFunc: func(ctx context.Context, participantID uuid.UUID) (Profile, error) {
				return profile, nil
			},
		}
		cached := NewCachedProvider(next, time.Minute)

		_, _ = cached.GetProfile(context.Background(), profile.ParticipantID)
		cached.Invalidate(profile.ParticipantID)
		_, _ = cached.GetProfile(context.Background(), profile.ParticipantID)

		assert.Equal(t, 2, next.calls)
	})
}
