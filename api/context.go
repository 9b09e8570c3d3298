package api

import (
	"context"
	"log/slog"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxRequestIdKey ctxKey = iota
	ctxLoggerKey
	ctxActorKey
)

func ctxWithRequestId(ctx context.Context, requestId uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxRequestIdKey, requestId)
}

func getRequestIdFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxRequestIdKey).(uuid.UUID)
	return id
}

func ctxWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, logger)
}

func getLoggerFromCtx(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func ctxWithActor(ctx context.Context, actor registration.Actor) context.Context {
	return context.WithValue(ctx, ctxActorKey, actor)
}

func getActorFromCtx(ctx context.Context) (registration.Actor, bool) {
	actor, ok := ctx.Value(ctxActorKey).(registration.Actor)
	return actor, ok
}
