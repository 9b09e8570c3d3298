package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/i18n"
	"github.com/Estebaan93/RunnConnectAPI/ptr"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/Estebaan93/RunnConnectAPI/slices"
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

type Registration struct {
	ID                uuid.UUID `json:"id"`
	EventID           uuid.UUID `json:"eventId"`
	CategoryID        uuid.UUID `json:"categoryId"`
	ParticipantID     uuid.UUID `json:"participantId"`
	ParticipantName   string    `json:"participantName,omitempty"`
	Status            string    `json:"status"`
	StatusDescription string    `json:"statusDescription,omitempty"`
	ShirtSize         *string   `json:"shirtSize,omitempty"`
	WaiverAccepted    bool      `json:"waiverAccepted"`
	PaymentProofRef   *string   `json:"paymentProofRef,omitempty"`
	StatusReason      *string   `json:"statusReason,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Fee struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

type Admission struct {
	Registration Registration `json:"registration"`
	CategoryName string       `json:"categoryName"`
	EventName    string       `json:"eventName"`
	Fee          *Fee         `json:"fee,omitempty"`
	PaymentInfo  *string      `json:"paymentInfo,omitempty"`
}

type RegistrationList struct {
	Data []Registration `json:"data"`
}

type CreateRegistrationRequest struct {
	CategoryID     uuid.UUID `json:"categoryId"`
	WaiverAccepted bool      `json:"waiverAccepted"`
	ShirtSize      *string   `json:"shirtSize,omitempty"`
}

type PaymentProofRequest struct {
	PaymentProofRef string `json:"paymentProofRef"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type StatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

func (a *API) registrationToApiRegistration(r *http.Request, reg registration.Registration) Registration {
	var shirtSize *string
	if reg.ShirtSize != nil {
		shirtSize = ptr.String(string(*reg.ShirtSize))
	}

	return Registration{
		ID:                reg.ID,
		EventID:           reg.EventID,
		CategoryID:        reg.CategoryID,
		ParticipantID:     reg.ParticipantID,
		ParticipantName:   reg.ParticipantName,
		Status:            string(reg.Status),
		StatusDescription: a.translate(r, i18n.StatusKey(string(reg.Status)), "", nil),
		ShirtSize:         shirtSize,
		WaiverAccepted:    reg.WaiverAccepted,
		PaymentProofRef:   reg.PaymentProofRef,
		StatusReason:      reg.StatusReason,
		CreatedAt:         reg.CreatedAt,
		UpdatedAt:         reg.UpdatedAt,
	}
}

func feeToApiFee(fee *money.Money) *Fee {
	if fee == nil {
		return nil
	}
	return &Fee{
		Amount:   fee.Amount(),
		Currency: fee.Currency().Code,
		Display:  fee.Display(),
	}
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched when
// the body is optional.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		if optional {
			return nil
		}
		return registration.NewValidationError("Must specify a body")
	}
	if err != nil {
		return registration.NewValidationError("Invalid body")
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return uuid.Nil, registration.NewValidationError("Path id must be a UUID")
	}
	return id, nil
}

// requireActor returns the authenticated caller. Routes behind authMiddleware
// always have one.
func (a *API) requireActor(w http.ResponseWriter, r *http.Request) (registration.Actor, bool) {
	actor, ok := getActorFromCtx(r.Context())
	if !ok {
		a.writeUnauthorized(w, r)
	}
	return actor, ok
}

func (a *API) postRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != registration.ROLE_PARTICIPANT {
		a.writeError(w, r, registration.NewForbiddenError("Only participants can register"))
		return
	}

	var body CreateRegistrationRequest
	if err := decodeBody(r, &body, false); err != nil {
		a.writeError(w, r, err)
		return
	}

	admission, err := a.service.CreateRegistration(r.Context(), registration.CreateRequest{
		ParticipantID:  actor.ID,
		CategoryID:     body.CategoryID,
		WaiverAccepted: body.WaiverAccepted,
		ShirtSize:      body.ShirtSize,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, Admission{
		Registration: a.registrationToApiRegistration(r, admission.Registration),
		CategoryName: admission.CategoryName,
		EventName:    admission.EventName,
		Fee:          feeToApiFee(admission.Fee),
		PaymentInfo:  admission.PaymentInfo,
	})
}

func (a *API) getRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	reg, err := a.service.GetRegistration(r.Context(), actor, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, a.registrationToApiRegistration(r, reg))
}

func (a *API) postPaymentProof(w http.ResponseWriter, r *http.Request) {
	var body PaymentProofRequest
	if err := decodeBody(r, &body, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.transition(w, r, registration.STATUS_PROCESSING, nil, &body.PaymentProofRef)
}

func (a *API) postCancel(w http.ResponseWriter, r *http.Request) {
	var body CancelRequest
	if err := decodeBody(r, &body, true); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.transition(w, r, registration.STATUS_CANCELLED, body.Reason, nil)
}

func (a *API) postStatus(w http.ResponseWriter, r *http.Request) {
	var body StatusRequest
	if err := decodeBody(r, &body, false); err != nil {
		a.writeError(w, r, err)
		return
	}
	target, err := registration.ParsePaymentStatus(body.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.transition(w, r, target, body.Reason, nil)
}

func (a *API) transition(w http.ResponseWriter, r *http.Request, target registration.PaymentStatus, reason, proof *string) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	reg, err := a.service.TransitionState(r.Context(), registration.TransitionRequest{
		RegistrationID:  id,
		Actor:           actor,
		Target:          target,
		Reason:          reason,
		PaymentProofRef: proof,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, a.registrationToApiRegistration(r, reg))
}

func (a *API) getMyRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}

	var active *bool
	if err := runtime.BindQueryParameter("form", true, false, "active", r.URL.Query(), &active); err != nil {
		a.writeBadRequest(w, r, "active must be a boolean")
		return
	}

	regs, err := a.service.ListParticipantRegistrations(r.Context(), actor, active != nil && *active)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, RegistrationList{
		Data: slices.Map(regs, func(reg registration.Registration) Registration {
			return a.registrationToApiRegistration(r, reg)
		}),
	})
}
