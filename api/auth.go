package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "runnconnect"

// actorClaims is the token payload: the subject is the user ID.
type actorClaims struct {
	Role registration.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 bearer tokens issued by the user management service.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) Verify(token string) (registration.Actor, error) {
	var claims actorClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return registration.Actor{}, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return registration.Actor{}, fmt.Errorf("subject is not a user id: %w", err)
	}
	if !claims.Role.Valid() {
		return registration.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return registration.Actor{ID: id, Role: claims.Role}, nil
}

// IssueToken signs a token for actor that expires after ttl.
func IssueToken(secret string, actor registration.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := actorClaims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var errMissingBearer = errors.New("missing bearer token")

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errMissingBearer
	}
	return strings.TrimSpace(token), nil
}

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/healthz": true,
}

func (a *API) authMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			logger := getLoggerFromCtx(r.Context())

			token, err := bearerToken(r)
			if err != nil {
				a.writeUnauthorized(w, r)
				return
			}

			actor, err := a.tokens.Verify(token)
			if err != nil {
				logger.Warn("Invalid bearer token", "error", err)
				a.writeUnauthorized(w, r)
				return
			}

			ctx := ctxWithActor(r.Context(), actor)
			ctx = ctxWithLogger(ctx, logger.With(slog.String("actor-id", actor.ID.String()), slog.String("actor-role", string(actor.Role))))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
