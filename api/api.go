package api

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Estebaan93/RunnConnectAPI/i18n"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed openapi.yaml
var openapiSpec []byte

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

// RegistrationService is the part of registration.Service the HTTP layer drives.
type RegistrationService interface {
	CreateRegistration(ctx context.Context, req registration.CreateRequest) (registration.Admission, error)
	TransitionState(ctx context.Context, req registration.TransitionRequest) (registration.Registration, error)
	CountByStatus(ctx context.Context, eventID uuid.UUID) (map[registration.PaymentStatus]int, error)
	GetRegistration(ctx context.Context, actor registration.Actor, id uuid.UUID) (registration.Registration, error)
	ListParticipantRegistrations(ctx context.Context, actor registration.Actor, activeOnly bool) ([]registration.Registration, error)
	ListEventRegistrations(ctx context.Context, actor registration.Actor, eventID uuid.UUID, filter registration.EventRegistrationsFilter, limit int32, cursor *string) (registration.GetAllRegistrationsResponse, error)
	CategoryOccupancy(ctx context.Context, actor registration.Actor, eventID uuid.UUID) ([]registration.Occupancy, error)
}

var _ RegistrationService = (*registration.Service)(nil)

type API struct {
	service     RegistrationService
	logger      *slog.Logger
	env         Environment
	translator  *i18n.Translator
	tokens      *TokenVerifier
	corsOrigins []string
}

func NewAPI(service RegistrationService, logger *slog.Logger, env Environment, translator *i18n.Translator, tokens *TokenVerifier, corsOrigins []string) *API {
	return &API{
		service:     service,
		logger:      logger,
		env:         env,
		translator:  translator,
		tokens:      tokens,
		corsOrigins: corsOrigins,
	}
}

func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := swagger.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return swagger, nil
}

// Handler routes every endpoint behind the middleware chain.
func (a *API) Handler() (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	// Requests are validated regardless of the Host they arrive on.
	swagger.Servers = nil

	r := http.NewServeMux()
	r.HandleFunc("GET /healthz", a.getHealth)
	r.HandleFunc("POST /registrations", a.postRegistration)
	r.HandleFunc("GET /registrations/{id}", a.getRegistration)
	r.HandleFunc("POST /registrations/{id}/payment-proof", a.postPaymentProof)
	r.HandleFunc("POST /registrations/{id}/cancel", a.postCancel)
	r.HandleFunc("POST /registrations/{id}/status", a.postStatus)
	r.HandleFunc("GET /me/registrations", a.getMyRegistrations)
	r.HandleFunc("GET /events/{id}/registrations", a.getEventRegistrations)
	r.HandleFunc("GET /events/{id}/registrations/stats", a.getEventRegistrationStats)

	h := useMiddlewares(r,
		a.openapiValidateMiddleware(swagger),
		a.authMiddleware(),
		a.corsMiddleware(),
		a.loggingMiddleware(),
		a.requestIDMiddleware(),
	)

	return otelhttp.NewHandler(h, "race-registration-api"), nil
}

func (a *API) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
