package utils

import (
	"context"

	"theater-warehouse/internal/authz"
	"theater-warehouse/pkg/contextkeys"
	apperrors "theater-warehouse/pkg/errors"
)

func ContextWithActor(ctx context.Context, actor *authz.Actor) context.Context {
	return context.WithValue(ctx, contextkeys.ActorKey, actor)
}

func GetActorFromContext(ctx context.Context) (*authz.Actor, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(*authz.Actor)
	if !ok || actor == nil {
		return nil, apperrors.ErrUserIDNotFoundInContext
	}
	return actor, nil
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextkeys.RequestIDKey).(string)
	return id
}
