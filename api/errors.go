package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Estebaan93/RunnConnectAPI/i18n"
	"github.com/Estebaan93/RunnConnectAPI/registration"
)

// Codes outside the registration reasons.
const (
	CODE_VALIDATION_ERROR = string(registration.REASON_VALIDATION_ERROR)
	CODE_NOT_FOUND        = string(registration.REASON_NOT_FOUND)
	CODE_UNAUTHORIZED     = "UNAUTHORIZED"
	CODE_INTERNAL         = "INTERNAL"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var reasonStatus = map[registration.ErrorReason]int{
	registration.REASON_NOT_FOUND:                http.StatusNotFound,
	registration.REASON_VALIDATION_ERROR:         http.StatusBadRequest,
	registration.REASON_INVALID_CURSOR:           http.StatusBadRequest,
	registration.REASON_PROFILE_INCOMPLETE:       http.StatusUnprocessableEntity,
	registration.REASON_AGE_OUT_OF_RANGE:         http.StatusUnprocessableEntity,
	registration.REASON_GENDER_MISMATCH:          http.StatusUnprocessableEntity,
	registration.REASON_EVENT_NOT_OPEN:           http.StatusUnprocessableEntity,
	registration.REASON_DUPLICATE_REGISTRATION:   http.StatusConflict,
	registration.REASON_CATEGORY_FULL:            http.StatusConflict,
	registration.REASON_EVENT_FULL:               http.StatusConflict,
	registration.REASON_INVALID_STATE_TRANSITION: http.StatusConflict,
	registration.REASON_VERSION_CONFLICT:         http.StatusConflict,
	registration.REASON_FORBIDDEN:                http.StatusForbidden,
	registration.REASON_TIMEOUT:                  http.StatusGatewayTimeout,
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		getLoggerFromCtx(ctx).Error("Failed to marshal response", "error", err)
		status = http.StatusInternalServerError
		jsonBody = []byte(`{"code": "INTERNAL", "message": "failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBody)
}

func (a *API) translate(r *http.Request, key, fallback string, data map[string]any) string {
	if a.translator == nil {
		return fallback
	}
	return a.translator.T(r.Header.Get("Accept-Language"), key, fallback, data)
}

// writeError maps err to a status and a localized {code, message} body.
// Infrastructure failures are logged and never leak their details.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := getLoggerFromCtx(r.Context())

	var regErr *registration.Error
	if errors.As(err, &regErr) {
		if status, ok := reasonStatus[regErr.Reason]; ok {
			if regErr.IsBusiness() {
				logger.Info("Request rejected", "reason", regErr.Reason, "error", err)
			} else {
				logger.Warn("Request failed", "reason", regErr.Reason, "error", err)
			}
			code := string(regErr.Reason)
			writeJSON(r.Context(), w, status, Error{
				Code:    code,
				Message: a.translate(r, i18n.ErrorKey(code), regErr.Message, regErr.Details),
			})
			return
		}
	}

	logger.Error("Request failed", "error", err)
	writeJSON(r.Context(), w, http.StatusInternalServerError, Error{
		Code:    CODE_INTERNAL,
		Message: a.translate(r, i18n.ErrorKey(CODE_INTERNAL), "Internal server error", nil),
	})
}

func (a *API) writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusUnauthorized, Error{
		Code:    CODE_UNAUTHORIZED,
		Message: a.translate(r, i18n.ErrorKey(CODE_UNAUTHORIZED), "Sign in required", nil),
	})
}

func (a *API) writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	a.writeError(w, r, registration.NewValidationError(message))
}
