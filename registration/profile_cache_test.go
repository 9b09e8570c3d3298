package registration_test

import (
	"context"
	"testing"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedProfilesSeeFixesAfterRejection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		spoil  func(p *participant.Profile)
		reason registration.ErrorReason
	}{
		{
			name:   "profile completed",
			spoil:  func(p *participant.Profile) { p.Locality = "" },
			reason: registration.REASON_PROFILE_INCOMPLETE,
		},
		{
			name:   "birth date corrected",
			spoil:  func(p *participant.Profile) { p.BirthDate = ptr.Time(now.AddDate(-16, 0, 0)) },
			reason: registration.REASON_AGE_OUT_OF_RANGE,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld(t, nil, ptr.Int(10))
			service := registration.NewService(w.store, w.store, participant.NewCachedProvider(w.store, 30*time.Second),
				registration.WithClock(func() time.Time { return now }))

			id := w.newParticipant(t)
			fixed, err := w.store.GetProfile(ctx, id)
			require.NoError(t, err)
			broken := fixed
			tc.spoil(&broken)
			require.NoError(t, w.store.SaveProfile(ctx, broken))

			req := registration.CreateRequest{ParticipantID: id, CategoryID: w.category[0].ID, WaiverAccepted: true}

			_, err = service.CreateRegistration(ctx, req)
			require.True(t, registration.HasReason(err, tc.reason), "got %v", err)

			require.NoError(t, w.store.SaveProfile(ctx, fixed))

			admission, err := service.CreateRegistration(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, registration.STATUS_PENDING, admission.Registration.Status)
		})
	}
}
