package api

import (
	"net/http"
	"strings"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/Estebaan93/RunnConnectAPI/slices"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

const defaultEventRegistrationsLimit = 10

type RegistrationPage struct {
	Data        []Registration `json:"data"`
	Cursor      *string        `json:"cursor,omitempty"`
	HasNextPage bool           `json:"hasNextPage"`
}

type Occupancy struct {
	CategoryID   uuid.UUID `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	Capacity     *int      `json:"capacity,omitempty"`
	Counted      int       `json:"counted"`
	Available    *int      `json:"available,omitempty"`
	Percent      *float64  `json:"percent,omitempty"`
}

type Stats struct {
	Counts     map[string]int `json:"counts"`
	Categories []Occupancy    `json:"categories"`
}

func occupancyToApiOccupancy(o registration.Occupancy) Occupancy {
	return Occupancy{
		CategoryID:   o.CategoryID,
		CategoryName: o.CategoryName,
		Capacity:     o.Capacity,
		Counted:      o.Counted,
		Available:    o.Available,
		Percent:      o.Percent,
	}
}

type eventRegistrationsParams struct {
	CategoryID      *uuid.UUID
	Status          *string
	ParticipantName *string
	Limit           *int
	Cursor          *string
}

func bindEventRegistrationsParams(r *http.Request) (eventRegistrationsParams, error) {
	var params eventRegistrationsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "categoryId", query, &params.CategoryID); err != nil {
		return params, registration.NewValidationError("categoryId must be a UUID")
	}
	if err := runtime.BindQueryParameter("form", true, false, "status", query, &params.Status); err != nil {
		return params, registration.NewValidationError("Invalid status")
	}
	if err := runtime.BindQueryParameter("form", true, false, "participantName", query, &params.ParticipantName); err != nil {
		return params, registration.NewValidationError("Invalid participantName")
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		return params, registration.NewValidationError("Limit must be between 1 and 50")
	}
	if err := runtime.BindQueryParameter("form", true, false, "cursor", query, &params.Cursor); err != nil {
		return params, registration.NewValidationError("Invalid cursor")
	}
	return params, nil
}

func (p eventRegistrationsParams) filter() (registration.EventRegistrationsFilter, error) {
	filter := registration.EventRegistrationsFilter{CategoryID: p.CategoryID}
	if p.Status != nil {
		status, err := registration.ParsePaymentStatus(*p.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if p.ParticipantName != nil && strings.TrimSpace(*p.ParticipantName) != "" {
		filter.ParticipantName = p.ParticipantName
	}
	return filter, nil
}

func (a *API) getEventRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	eventID, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	params, err := bindEventRegistrationsParams(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	filter, err := params.filter()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	limit := defaultEventRegistrationsLimit
	if params.Limit != nil {
		limit = *params.Limit
		if limit < 1 || limit > registration.MaxEventRegistrationsPage {
			a.writeBadRequest(w, r, "Limit must be between 1 and 50")
			return
		}
	}

	var cursor *string
	if params.Cursor != nil && *params.Cursor != "" {
		cursor = params.Cursor
	}

	result, err := a.service.ListEventRegistrations(r.Context(), actor, eventID, filter, int32(limit), cursor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, RegistrationPage{
		Data: slices.Map(result.Data, func(reg registration.Registration) Registration {
			return a.registrationToApiRegistration(r, reg)
		}),
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}

// getEventRegistrationStats checks ownership through CategoryOccupancy before counting.
func (a *API) getEventRegistrationStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireActor(w, r)
	if !ok {
		return
	}
	eventID, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	occupancy, err := a.service.CategoryOccupancy(r.Context(), actor, eventID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	counts, err := a.service.CountByStatus(r.Context(), eventID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	stats := Stats{
		Counts:     make(map[string]int, len(counts)),
		Categories: slices.Map(occupancy, occupancyToApiOccupancy),
	}
	for status, n := range counts {
		stats.Counts[string(status)] = n
	}

	writeJSON(r.Context(), w, http.StatusOK, stats)
}
