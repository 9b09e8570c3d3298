package registration

import (
	"testing"

	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func requireReason(t *testing.T, err error, reason ErrorReason) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, HasReason(err, reason), "expected reason %s, got %v", reason, err)
}

func TestCheckTransition(t *testing.T) {
	proof := ptr.String("receipts/abc.pdf")

	allowed := []struct {
		from  PaymentStatus
		to    PaymentStatus
		role  Role
		proof *string
	}{
		{STATUS_PENDING, STATUS_PROCESSING, ROLE_PARTICIPANT, proof},
		{STATUS_PENDING, STATUS_CANCELLED, ROLE_PARTICIPANT, nil},
		{STATUS_PROCESSING, STATUS_PAID, ROLE_ORGANIZER, nil},
		{STATUS_PROCESSING, STATUS_REJECTED, ROLE_ORGANIZER, nil},
		{STATUS_PAID, STATUS_REFUNDED, ROLE_ORGANIZER, nil},
	}
	for _, tt := range allowed {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			tr, err := CheckTransition(tt.from, tt.to, tt.role, tt.proof)
			require.NoError(t, err)
			assert.Equal(t, tt.to, tr.To)
		})
	}

	t.Run("participant cannot mark as paid", func(t *testing.T) {
		_, err := CheckTransition(STATUS_PENDING, STATUS_PAID, ROLE_PARTICIPANT, nil)
		requireReason(t, err, REASON_INVALID_STATE_TRANSITION)
	})

	t.Run("organizer cannot cancel for the participant", func(t *testing.T) {
		_, err := CheckTransition(STATUS_PENDING, STATUS_CANCELLED, ROLE_ORGANIZER, nil)
		requireReason(t, err, REASON_FORBIDDEN)
	})

	t.Run("participant cannot confirm payment", func(t *testing.T) {
		_, err := CheckTransition(STATUS_PROCESSING, STATUS_PAID, ROLE_PARTICIPANT, nil)
		requireReason(t, err, REASON_FORBIDDEN)
	})

	t.Run("payment proof is required", func(t *testing.T) {
		_, err := CheckTransition(STATUS_PENDING, STATUS_PROCESSING, ROLE_PARTICIPANT, nil)
		requireReason(t, err, REASON_VALIDATION_ERROR)

		_, err = CheckTransition(STATUS_PENDING, STATUS_PROCESSING, ROLE_PARTICIPANT, ptr.String("  "))
		requireReason(t, err, REASON_VALIDATION_ERROR)
	})

	t.Run("refunded cannot go back to processing", func(t *testing.T) {
		_, err := CheckTransition(STATUS_REFUNDED, STATUS_PROCESSING, ROLE_ORGANIZER, nil)
		requireReason(t, err, REASON_INVALID_STATE_TRANSITION)
	})

	t.Run("error names both statuses", func(t *testing.T) {
		_, err := CheckTransition(STATUS_PAID, STATUS_PENDING, ROLE_ORGANIZER, nil)
		assert.Contains(t, err.Error(), `"paid"`)
		assert.Contains(t, err.Error(), `"pending"`)
	})
}

func TestTransitionReleasesSlot(t *testing.T) {
	releasing := map[PaymentStatus]bool{
		STATUS_CANCELLED: true,
		STATUS_REJECTED:  true,
		STATUS_REFUNDED:  true,
	}
	for _, tr := range transitions {
		assert.Equal(t, releasing[tr.To], tr.ReleasesSlot(), "%s -> %s", tr.From, tr.To)
	}
}

func TestAllowedTargets(t *testing.T) {
	assert.ElementsMatch(t, []PaymentStatus{STATUS_PROCESSING, STATUS_CANCELLED}, AllowedTargets(STATUS_PENDING, ROLE_PARTICIPANT))
	assert.Empty(t, AllowedTargets(STATUS_PENDING, ROLE_ORGANIZER))
	assert.ElementsMatch(t, []PaymentStatus{STATUS_PAID, STATUS_REJECTED}, AllowedTargets(STATUS_PROCESSING, ROLE_ORGANIZER))
}

func TestStateMachineProperties(t *testing.T) {
	roles := []Role{ROLE_PARTICIPANT, ROLE_ORGANIZER}

	t.Run("terminal statuses have no way out", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			from := rapid.SampledFrom([]PaymentStatus{STATUS_CANCELLED, STATUS_REJECTED, STATUS_REFUNDED}).Draw(t, "from")
			to := rapid.SampledFrom(AllStatuses).Draw(t, "to")
			role := rapid.SampledFrom(roles).Draw(t, "role")

			_, err := CheckTransition(from, to, role, ptr.String("proof"))
			if !HasReason(err, REASON_INVALID_STATE_TRANSITION) {
				t.Fatalf("expected %s -> %s to be invalid, got %v", from, to, err)
			}
		})
	})

	t.Run("only listed transitions by the listed role succeed", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			from := rapid.SampledFrom(AllStatuses).Draw(t, "from")
			to := rapid.SampledFrom(AllStatuses).Draw(t, "to")
			role := rapid.SampledFrom(roles).Draw(t, "role")

			_, err := CheckTransition(from, to, role, ptr.String("proof"))
			rule, listed := LookupTransition(from, to)
			if (err == nil) != (listed && rule.Role == role) {
				t.Fatalf("%s -> %s by %s: listed=%v err=%v", from, to, role, listed, err)
			}
		})
	})

	t.Run("no walk re-enters a counted status after leaving it", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			status := STATUS_PENDING
			left := false
			steps := rapid.IntRange(1, 10).Draw(t, "steps")
			for range steps {
				to := rapid.SampledFrom(AllStatuses).Draw(t, "to")
				role := rapid.SampledFrom(roles).Draw(t, "role")
				if _, err := CheckTransition(status, to, role, ptr.String("proof")); err != nil {
					continue
				}
				if status.IsCounted() && !to.IsCounted() {
					left = true
				}
				if left && to.IsCounted() {
					t.Fatalf("re-entered counted status %s", to)
				}
				status = to
			}
		})
	})
}

func TestStatusHelpers(t *testing.T) {
	for _, s := range AllStatuses {
		assert.NotEqual(t, s.IsCounted(), s.IsTerminal(), s)
		assert.Equal(t, s.IsCounted(), s.IsActive(), s)
	}
	assert.Equal(t, "status_processing", STATUS_PROCESSING.DescriptionKey())

	status, err := ParsePaymentStatus(" PAID ")
	require.NoError(t, err)
	assert.Equal(t, STATUS_PAID, status)

	_, err = ParsePaymentStatus("confirmado")
	requireReason(t, err, REASON_VALIDATION_ERROR)
}

func TestParseShirtSize(t *testing.T) {
	size, err := ParseShirtSize("xl")
	require.NoError(t, err)
	assert.Equal(t, SHIRT_XL, size)

	_, err = ParseShirtSize("XXXL")
	requireReason(t, err, REASON_VALIDATION_ERROR)
}
