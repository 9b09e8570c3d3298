package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/events"
	"github.com/Estebaan93/RunnConnectAPI/i18n"
	"github.com/Estebaan93/RunnConnectAPI/memory"
	"github.com/Estebaan93/RunnConnectAPI/participant"
	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type e2eEnv struct {
	server    *httptest.Server
	organizer registration.Actor
	event     events.Event
	category  events.Category

	seedParticipant func(t *testing.T) registration.Actor
}

func newE2EEnv(t *testing.T) *e2eEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	env := &e2eEnv{organizer: organizerActor()}
	env.event = events.Event{
		ID:          uuid.New(),
		Version:     1,
		OrganizerID: env.organizer.ID,
		Name:        "Cruce de las Sierras",
		Location:    "Merlo, San Luis",
		StartTime:   time.Now().Add(30 * 24 * time.Hour),
		State:       events.STATE_PUBLISHED,
		Capacity:    ptr.Int(10),
		PaymentInfo: ptr.String("CBU 0000003100000000000001"),
	}
	env.category = events.Category{
		ID:       uuid.New(),
		EventID:  env.event.ID,
		Version:  1,
		Name:     "21K Libres",
		Capacity: ptr.Int(1),
		AgeRange: events.Range{Min: 18, Max: 70},
		Gender:   participant.GENDER_ANY,
		Fee:      money.New(2500000, money.ARS),
	}
	require.NoError(t, store.CreateEvent(ctx, env.event))
	require.NoError(t, store.CreateCategory(ctx, env.category))

	translator, err := i18n.NewTranslator("es")
	require.NoError(t, err)

	service := registration.NewService(store, store, participant.NewCachedProvider(store, time.Minute))
	api := NewAPI(service, noopLogger, LOCAL, translator, NewTokenVerifier(testSecret), nil)
	h, err := api.Handler()
	require.NoError(t, err)

	env.server = httptest.NewServer(h)
	t.Cleanup(env.server.Close)

	env.seedParticipant = func(t *testing.T) registration.Actor {
		actor := participantActor()
		require.NoError(t, store.SaveProfile(ctx, participant.Profile{
			ParticipantID:         actor.ID,
			FirstName:             "Lucía",
			LastName:              "Pereyra",
			BirthDate:             ptr.Time(time.Date(1990, time.May, 4, 0, 0, 0, 0, time.UTC)),
			Gender:                participant.GENDER_FEMALE,
			NationalID:            "35123456",
			Locality:              "Villa Mercedes",
			EmergencyContactName:  "Marcos Pereyra",
			EmergencyContactPhone: "+54 2657 400000",
			Phone:                 "+54 2657 411111",
		}))
		return actor
	}
	return env
}

func (e *e2eEnv) call(t *testing.T, actor registration.Actor, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, actor))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeResp[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRegistrationE2E(t *testing.T) {
	env := newE2EEnv(t)
	runner := env.seedParticipant(t)
	other := env.seedParticipant(t)

	// Admit
	resp := env.call(t, runner, http.MethodPost, "/registrations", CreateRegistrationRequest{CategoryID: env.category.ID, WaiverAccepted: true, ShirtSize: ptr.String("s")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	admission := decodeResp[Admission](t, resp)
	assert.Equal(t, "pending", admission.Registration.Status)
	assert.Equal(t, "S", *admission.Registration.ShirtSize)
	assert.Equal(t, int64(2500000), admission.Fee.Amount)
	regID := admission.Registration.ID.String()

	// Same participant again
	resp = env.call(t, runner, http.MethodPost, "/registrations", CreateRegistrationRequest{CategoryID: env.category.ID, WaiverAccepted: true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_REGISTRATION", decodeResp[Error](t, resp).Code)

	// The only slot is taken
	resp = env.call(t, other, http.MethodPost, "/registrations", CreateRegistrationRequest{CategoryID: env.category.ID, WaiverAccepted: true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CATEGORY_FULL", decodeResp[Error](t, resp).Code)

	// Proof, then approval
	resp = env.call(t, runner, http.MethodPost, "/registrations/"+regID+"/payment-proof", PaymentProofRequest{PaymentProofRef: "comprobantes/123.jpg"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processing", decodeResp[Registration](t, resp).Status)

	resp = env.call(t, other, http.MethodGet, "/registrations/"+regID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.call(t, env.organizer, http.MethodPost, "/registrations/"+regID+"/status", StatusRequest{Status: "paid"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "paid", decodeResp[Registration](t, resp).Status)

	// A paid registration cannot be cancelled by its owner
	resp = env.call(t, runner, http.MethodPost, "/registrations/"+regID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Refund frees the slot for the other participant
	resp = env.call(t, env.organizer, http.MethodPost, "/registrations/"+regID+"/status", StatusRequest{Status: "refunded", Reason: ptr.String("Race moved")})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.call(t, other, http.MethodPost, "/registrations", CreateRegistrationRequest{CategoryID: env.category.ID, WaiverAccepted: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Organizer views
	resp = env.call(t, env.organizer, http.MethodGet, "/events/"+env.event.ID.String()+"/registrations?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeResp[RegistrationPage](t, resp)
	assert.Len(t, page.Data, 1)
	assert.True(t, page.HasNextPage)

	resp = env.call(t, env.organizer, http.MethodGet, "/events/"+env.event.ID.String()+"/registrations?participantName=PEREYRA", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decodeResp[RegistrationPage](t, resp)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Lucía Pereyra", page.Data[0].ParticipantName)

	resp = env.call(t, env.organizer, http.MethodGet, "/events/"+env.event.ID.String()+"/registrations?participantName=Sosa", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeResp[RegistrationPage](t, resp).Data)

	resp = env.call(t, env.organizer, http.MethodGet, "/events/"+env.event.ID.String()+"/registrations/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeResp[Stats](t, resp)
	assert.Equal(t, 1, stats.Counts["refunded"])
	assert.Equal(t, 1, stats.Counts["pending"])
	require.Len(t, stats.Categories, 1)
	assert.Equal(t, 1, stats.Categories[0].Counted)

	// Participant history
	resp = env.call(t, runner, http.MethodGet, "/me/registrations?active=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeResp[RegistrationList](t, resp).Data)

	resp = env.call(t, runner, http.MethodGet, "/me/registrations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeResp[RegistrationList](t, resp).Data, 1)
}

func TestRegistrationE2EProfileIncomplete(t *testing.T) {
	env := newE2EEnv(t)

	resp := env.call(t, participantActor(), http.MethodPost, "/registrations", CreateRegistrationRequest{CategoryID: env.category.ID, WaiverAccepted: true})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "PROFILE_INCOMPLETE", decodeResp[Error](t, resp).Code)
}
